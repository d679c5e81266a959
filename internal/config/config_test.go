package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, found, err := Load(dir)
	if err != nil {
		t.Fatalf("a missing file must not be an error: %v", err)
	}
	if found {
		t.Fatalf("nothing to find in an empty directory")
	}
	if cfg.CLI.Color != "auto" || cfg.CLI.MaxDiagnostics != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadReadsFileAndLayersDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[cli]\ncolor = \"off\"\n\n[shell]\nhistory_file = \"/tmp/hist\"\n"
	if err := os.WriteFile(filepath.Join(dir, "ruleslang.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, found, err := Load(dir)
	if err != nil || !found {
		t.Fatalf("expected a parsed file, got found=%v err=%v", found, err)
	}
	if cfg.CLI.Color != "off" {
		t.Fatalf("color not read: %+v", cfg.CLI)
	}
	if cfg.CLI.MaxDiagnostics != 100 {
		t.Fatalf("unset fields keep their defaults: %+v", cfg.CLI)
	}
	if cfg.Shell.HistoryFile != "/tmp/hist" {
		t.Fatalf("history file not read: %+v", cfg.Shell)
	}
}

func TestLoadSearchesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ruleslang.toml"), []byte("[cli]\ncolor = \"on\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, found, err := Load(nested)
	if err != nil || !found {
		t.Fatalf("expected the parent's file, got found=%v err=%v", found, err)
	}
	if cfg.CLI.Color != "on" {
		t.Fatalf("wrong file loaded: %+v", cfg.CLI)
	}
}
