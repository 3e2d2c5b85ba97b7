package app_test

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"e2egateway/internal/app"
	"e2egateway/internal/crypto"
)

func privateKeyString(t *testing.T) string {
	t.Helper()
	priv, _, err := crypto.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return crypto.EncodePrivateKey(priv)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("GATEWAY_IDENTITY", "*TESTGW1")
	t.Setenv("GATEWAY_SECRET", "s3cret")
	t.Setenv("GATEWAY_PRIVATE_KEY", privateKeyString(t))
	t.Setenv("GATEWAY_TIMEOUT", "5s")
	t.Setenv("GATEWAY_VERIFY_PINNED_KEYS", "true")
	t.Setenv("GATEWAY_PINNED_KEYS", "ECHOECHO=public:"+strings.Repeat("ab", 32)+",OTHERID1=public:"+strings.Repeat("cd", 32))

	cfg, err := app.LoadConfig(filepath.Join(t.TempDir(), "empty.env"))
	if err == nil {
		t.Fatal("expected error for a missing, explicitly named env file")
	}

	path := filepath.Join(t.TempDir(), "blank.env")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = app.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 5*time.Second || !cfg.VerifyPinnedKeys || len(cfg.PinnedKeys) != 2 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.BaseURL != "https://msgapi.threema.ch" || cfg.MaxTextLength != 3500 || cfg.MaxPayloadSize != 7000 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	keys := []string{"GATEWAY_IDENTITY", "GATEWAY_SECRET", "GATEWAY_PRIVATE_KEY", "GATEWAY_LOG_LEVEL"}
	for _, k := range keys {
		if _, ok := os.LookupEnv(k); ok {
			t.Skipf("%s set in the environment", k)
		}
	}
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})

	path := filepath.Join(t.TempDir(), ".env")
	body := strings.Join([]string{
		"GATEWAY_IDENTITY=*TESTGW1",
		"GATEWAY_SECRET=s3cret",
		"GATEWAY_PRIVATE_KEY=" + privateKeyString(t),
		"GATEWAY_LOG_LEVEL=debug",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Identity != "*TESTGW1" || cfg.LogLevel != "debug" {
		t.Fatalf("dotenv not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	good := app.Config{
		Identity:   "*TESTGW1",
		Secret:     "s",
		PrivateKey: privateKeyString(t),
		PinnedKeys: []string{"ECHOECHO=public:" + strings.Repeat("ab", 32)},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := []app.Config{
		{Identity: "TESTGW01", Secret: "s", PrivateKey: good.PrivateKey}, // not a gateway id
		{Identity: "*TESTGW1", PrivateKey: good.PrivateKey},              // no secret
		{Identity: "*TESTGW1", Secret: "s"},                              // no key
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: "private:00"},
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: good.PrivateKey, BaseURL: "::"},
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: good.PrivateKey, LogLevel: "loud"},
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: good.PrivateKey, PinnedKeys: []string{"ECHOECHO"}},
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: good.PrivateKey, PinnedKeys: []string{"bad=public:" + strings.Repeat("ab", 32)}},
		{Identity: "*TESTGW1", Secret: "s", PrivateKey: good.PrivateKey, PinnedKeys: []string{"ECHOECHO=public:" + strings.Repeat("00", 32)}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
