package main

import (
	"strings"
	"testing"
)

func TestParsePeer(t *testing.T) {
	key := "public:" + strings.Repeat("ab", 32)

	id, _, caps, err := parsePeer("ECHOECHO=" + key)
	if err != nil {
		t.Fatalf("parsePeer: %v", err)
	}
	if id != "ECHOECHO" || caps != nil {
		t.Fatalf("got %q %v", id, caps)
	}

	_, _, caps, err = parsePeer("ECHOECHO=" + key + "=text,file")
	if err != nil {
		t.Fatalf("parsePeer with caps: %v", err)
	}
	if len(caps) != 2 || caps[0] != "text" || caps[1] != "file" {
		t.Fatalf("caps: %v", caps)
	}

	for _, bad := range []string{"ECHOECHO", "bad id=" + key, "ECHOECHO=public:zz"} {
		if _, _, _, err := parsePeer(bad); err == nil {
			t.Fatalf("parsePeer(%q): expected error", bad)
		}
	}
}
