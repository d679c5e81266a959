// Package config loads optional CLI defaults from a ruleslang.toml next
// to the invocation directory (searched upward), mirroring the manifest
// convention of the CLI's project layout. A missing file is not an error;
// every field has a default.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Path string `toml:"-"`

	CLI   CLIConfig   `toml:"cli"`
	Shell ShellConfig `toml:"shell"`
}

type CLIConfig struct {
	// Color is "auto", "on", or "off".
	Color string `toml:"color"`
	// MaxDiagnostics caps how many diagnostics a single compile prints.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

type ShellConfig struct {
	// HistoryFile is the history_file setting. The shell does not read it;
	// no input history is persisted.
	HistoryFile string `toml:"history_file"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		CLI:   CLIConfig{Color: "auto", MaxDiagnostics: 100},
		Shell: ShellConfig{},
	}
}

// Load searches startDir and its parents for ruleslang.toml and parses
// the first one found, layering it over Default. ok reports whether a
// file was found.
func Load(startDir string) (Config, bool, error) {
	cfg := Default()
	path, found, err := find(startDir)
	if err != nil || !found {
		return cfg, false, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), true, err
	}
	cfg.Path = path
	if cfg.CLI.Color == "" {
		cfg.CLI.Color = "auto"
	}
	if cfg.CLI.MaxDiagnostics <= 0 {
		cfg.CLI.MaxDiagnostics = 100
	}
	return cfg, true, nil
}

func find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, "ruleslang.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
