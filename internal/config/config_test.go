package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"caldera/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[verify]
jobs = 4
checks = ["correct", "region", "not-in-cset"]

[output]
color = "off"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Verify.Jobs != 4 {
		t.Errorf("jobs = %d, want 4", cfg.Verify.Jobs)
	}
	if len(cfg.Verify.Checks) != 3 || cfg.Verify.Checks[2] != "not-in-cset" {
		t.Errorf("checks = %v", cfg.Verify.Checks)
	}
	if cfg.Output.Color != "off" {
		t.Errorf("color = %q, want off", cfg.Output.Color)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[verify]\njobs = 2\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("color = %q, want the auto default", cfg.Output.Color)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[verify]\nworkers = 4\n")
	if _, err := config.Load(path); err == nil {
		t.Fatal("unknown key should not load")
	} else if !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("error %q should name the unknown key", err)
	}
}

func TestLoadRejectsBadColor(t *testing.T) {
	path := writeConfig(t, "[output]\ncolor = \"maybe\"\n")
	if _, err := config.Load(path); err == nil {
		t.Fatal("bad color value should not load")
	}
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })

	cfg, err := config.LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("color = %q, want auto", cfg.Output.Color)
	}
}
