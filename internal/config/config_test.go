package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	inDir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.FlagAfter != 30*time.Minute || cfg.FlagInterval != time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PostLimit != 10 || cfg.PostWindow != time.Minute {
		t.Errorf("unexpected rate limit defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "port: 9090\nflag_after: 5m\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("HELPWAVE_DB_PATH", "/tmp/hw.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.FlagAfter != 5*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/hw.db" {
		t.Errorf("env override not applied: %q", cfg.DBPath)
	}
}

func TestLoadClient(t *testing.T) {
	inDir(t, t.TempDir())
	t.Setenv("HELPWAVE_SERVER_URL", "http://example.test:1234")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}
	if cfg.ServerURL != "http://example.test:1234" {
		t.Errorf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.LogLevel != "warn" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
