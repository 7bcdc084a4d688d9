package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "boltctl.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
default = "local"

[profile.local]
address = "localhost:7687"
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := doc.Get("")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.UserAgent != "boltctl/0" {
		t.Fatalf("user agent = %q, want boltctl/0", p.UserAgent)
	}
	if len(p.Versions) != 3 || p.Versions[0] != 3 {
		t.Fatalf("versions = %v, want [3 2 1]", p.Versions)
	}
	if p.ConnectTimeout().Seconds() != 10 {
		t.Fatalf("connect timeout = %v, want 10s", p.ConnectTimeout())
	}
}

func TestLoadMissingAddressFails(t *testing.T) {
	path := writeConfig(t, `
default = "local"

[profile.local]
user_agent = "x"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing address")
	}
}

func TestLoadUnknownDefaultFails(t *testing.T) {
	path := writeConfig(t, `
default = "missing"

[profile.local]
address = "localhost:7687"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown default profile")
	}
}

func TestLoadMutualTLSRequiresCertAndKey(t *testing.T) {
	path := writeConfig(t, `
default = "local"

[profile.local]
address = "localhost:7687"

[profile.local.tls]
enabled = true
mutual = true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for mutual tls without cert/key")
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("BOLTCTL_TEST_PASSWORD", "hunter2")
	p := ProfileConfig{AuthEnv: "BOLTCTL_TEST_PASSWORD"}
	got, err := p.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("credentials = %q, want hunter2", got)
	}
}

func TestCredentialsMissingEnvFails(t *testing.T) {
	p := ProfileConfig{AuthEnv: "BOLTCTL_DOES_NOT_EXIST"}
	if _, err := p.Credentials(); err == nil {
		t.Fatal("expected error for unset auth_env")
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boltctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("first WriteTemplate: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatal("expected error on second write without overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite WriteTemplate: %v", err)
	}
}
