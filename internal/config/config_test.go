package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":3000" {
		t.Errorf("expected addr :3000, got %q", cfg.HTTP.Addr)
	}
	if cfg.Provider.Name != "plivo" {
		t.Errorf("expected provider plivo, got %q", cfg.Provider.Name)
	}
	if cfg.Menu.TimeoutSec != 10 || cfg.Menu.Retries != 1 {
		t.Errorf("unexpected menu defaults: %+v", cfg.Menu)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("expected idempotency ttl 24h, got %v", cfg.Idempotency.TTL)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("public_url: \"https://example.ngrok.io/\"\nprovider:\n  name: TWILIO\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IVR_PROVIDER_AUTH_ID", "MAXXXX")
	t.Setenv("PLIVO_AUTH_TOKEN", "secret")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PublicURL != "https://example.ngrok.io" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.PublicURL)
	}
	if cfg.Provider.Name != "twilio" {
		t.Errorf("expected provider twilio, got %q", cfg.Provider.Name)
	}
	if cfg.Provider.AuthID != "MAXXXX" {
		t.Errorf("expected auth id from IVR_ env, got %q", cfg.Provider.AuthID)
	}
	if cfg.Provider.AuthToken != "secret" {
		t.Errorf("expected auth token from legacy env, got %q", cfg.Provider.AuthToken)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Port() != "8080" {
		t.Errorf("expected PORT to win, got addr %q", cfg.HTTP.Addr)
	}
}

func TestMissing(t *testing.T) {
	var cfg Config
	cfg.Provider.AuthID = "id"
	cfg.PublicURL = "https://x"

	missing := cfg.Missing()
	want := []string{"IVR_PROVIDER_AUTH_TOKEN", "IVR_PROVIDER_PHONE_NUMBER"}
	if len(missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}

	err := cfg.RequireCallSettings()
	var me *MissingError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MissingError, got %v", err)
	}
	if me.Error() != "missing required configuration: IVR_PROVIDER_AUTH_TOKEN, IVR_PROVIDER_PHONE_NUMBER" {
		t.Errorf("unexpected message %q", me.Error())
	}

	cfg.Provider.AuthToken = "t"
	cfg.Provider.PhoneNumber = "+15550000000"
	if err := cfg.RequireCallSettings(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
