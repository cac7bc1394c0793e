package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamkeeper/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, target, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	if _, _, err := runCLI(t, target, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, target, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateAndShow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, configPath) {
		t.Fatalf("unexpected validate output: %q", out)
	}
	if _, err := os.Stat(cfg.Paths.RecordingsDir); err != nil {
		t.Fatalf("expected recordings dir to be created: %v", err)
	}

	out, _, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "recordings_dir") || !strings.Contains(out, cfg.Paths.RecordingsDir) {
		t.Fatalf("unexpected show output: %q", out)
	}
}

func TestConfigValidateRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\nbroken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, path, "config", "validate"); err == nil {
		t.Fatal("expected broken config to fail validation")
	}
}
