package validate_test

import (
	"testing"

	"e2egateway/internal/util/validate"
)

func TestIdentityTags(t *testing.T) {
	cases := []struct {
		in      string
		tag     string
		wantErr bool
	}{
		{"ECHOECHO", "identity", false},
		{"*GATEWAY", "identity", false},
		{"echoecho", "identity", true},
		{"ECHO", "identity", true},
		{"ECHOECH*", "identity", true},
		{"*GATEWAY", "gateway_identity", false},
		{"ECHOECHO", "gateway_identity", true},
	}
	for _, c := range cases {
		err := validate.Var(c.in, c.tag)
		if (err != nil) != c.wantErr {
			t.Fatalf("%s %q: err=%v wantErr=%v", c.tag, c.in, err, c.wantErr)
		}
	}
}

func TestStruct_KeyTags(t *testing.T) {
	type keys struct {
		Pub string `validate:"omitempty,public_key"`
	}
	if err := validate.Struct(keys{Pub: "public:4a6a1b34dcef15d43cb74de2fd36091be99fbbaf126d099d47d83d919712c72b"}); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if err := validate.Struct(keys{Pub: "public:00"}); err == nil {
		t.Fatal("expected short key to fail")
	}
	if err := validate.Struct(keys{}); err != nil {
		t.Fatalf("empty optional key rejected: %v", err)
	}
}
