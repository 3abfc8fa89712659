package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: dev\n"))
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.App.Name != "strongjohn" {
		t.Fatalf("app name = %q", cfg.App.Name)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" || cfg.Cache.Kind != "memory" {
		t.Fatalf("default backends: %q/%q", cfg.Storage.Driver, cfg.Cache.Kind)
	}
	if cfg.Session.CookieName != "sj_session" {
		t.Fatalf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("session ttl = %v", cfg.SessionTTL())
	}
	if cfg.MFA.TOTPSkew != 1 || cfg.MFA.RecoveryCodeCount != 10 {
		t.Fatalf("mfa defaults: %+v", cfg.MFA)
	}
	if cfg.WebAuthn.RPID != "localhost" {
		t.Fatalf("rp id = %q", cfg.WebAuthn.RPID)
	}
	if cfg.TrustedDeviceTTL() != 720*time.Hour {
		t.Fatalf("device ttl = %v", cfg.TrustedDeviceTTL())
	}
	if cfg.Rate.Login.Limit != 10 || cfg.Rate.Confirm.Limit != 5 {
		t.Fatalf("rate defaults: %+v", cfg.Rate)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "session:\n  ttl: nope\n"))
	if err == nil {
		t.Fatalf("invalid duration accepted")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: oracle\n"))
	if err == nil {
		t.Fatalf("unknown driver accepted")
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
	if err == nil {
		t.Fatalf("postgres without dsn accepted")
	}
}

func TestLoad_TrustedDeviceRequiresKey(t *testing.T) {
	_, err := Load(writeConfig(t, "trusted_device:\n  enabled: true\n"))
	if err == nil {
		t.Fatalf("trusted_device enabled without signing key accepted")
	}
}

func TestLoad_ProdGuards(t *testing.T) {
	base := "app:\n  env: prod\nsession:\n  secure: true\n"
	if _, err := Load(writeConfig(t, base)); err == nil {
		t.Fatalf("prod without secretbox master key accepted")
	}

	withKey := base + "security:\n  secretbox_master_key: abc\n"
	if _, err := Load(writeConfig(t, withKey)); err != nil {
		t.Fatalf("valid prod config rejected: %v", err)
	}

	insecure := "app:\n  env: prod\nsecurity:\n  secretbox_master_key: abc\n"
	if _, err := Load(writeConfig(t, insecure)); err == nil {
		t.Fatalf("prod with insecure cookies accepted")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("WEBAUTHN_RP_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(writeConfig(t, "server:\n  addr: :8080\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("env override ignored: %q", cfg.Server.Addr)
	}
	if len(cfg.WebAuthn.RPOrigins) != 2 || cfg.WebAuthn.RPOrigins[1] != "https://b.example" {
		t.Fatalf("csv override = %v", cfg.WebAuthn.RPOrigins)
	}
}
