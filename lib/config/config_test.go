// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Store.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Store.Compression)
	}
	if cfg.FilterDelay() != 300*time.Millisecond {
		t.Errorf("expected filter delay 300ms, got %s", cfg.FilterDelay())
	}
	if cfg.Session.RestrictionOff != "delete" {
		t.Errorf("expected restriction_off=delete, got %s", cfg.Session.RestrictionOff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad_RequiresKinshipConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when KINSHIP_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "KINSHIP_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err)
	}
}

func TestLoad_WithKinshipConfig(t *testing.T) {
	configPath := writeConfig(t, `
store:
  path: /srv/genealogy/family.db
session:
  fuzzy_filter: true
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Path != "/srv/genealogy/family.db" {
		t.Errorf("expected path=/srv/genealogy/family.db, got %s", cfg.Store.Path)
	}
	if !cfg.IsSQLite() {
		t.Error("expected .db path to select SQLite")
	}
	if !cfg.Session.FuzzyFilter {
		t.Error("expected fuzzy_filter=true")
	}
	// Unset fields keep their defaults.
	if cfg.Session.FilterDelay != "300ms" {
		t.Errorf("expected default filter_delay, got %s", cfg.Session.FilterDelay)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: development

store:
  path: /data/tree.kinship
  compression: lz4
  recipients:
    - age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p
  identity_file: /data/key.txt

session:
  filter_delay: 150ms
  restriction_off: public

log:
  level: debug
`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Store.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Store.Compression)
	}
	if len(cfg.Store.Recipients) != 1 {
		t.Errorf("expected one recipient, got %v", cfg.Store.Recipients)
	}
	if cfg.Store.IdentityFile != "/data/key.txt" {
		t.Errorf("expected identity_file=/data/key.txt, got %s", cfg.Store.IdentityFile)
	}
	if cfg.FilterDelay() != 150*time.Millisecond {
		t.Errorf("expected filter delay 150ms, got %s", cfg.FilterDelay())
	}
	if cfg.Session.RestrictionOff != "public" {
		t.Errorf("expected restriction_off=public, got %s", cfg.Session.RestrictionOff)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel())
	}
	if cfg.IsSQLite() {
		t.Error("archive path selected SQLite")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
store:
  path: /data/tree.kinship
session:
  fuzzy_filter: true
production:
  store:
    path: /srv/tree.db
  session:
    restriction_off: public
    fuzzy_filter: false
development:
  log:
    level: debug
`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Store.Path != "/srv/tree.db" {
		t.Errorf("expected production path, got %s", cfg.Store.Path)
	}
	if cfg.Session.RestrictionOff != "public" {
		t.Errorf("expected restriction_off=public, got %s", cfg.Session.RestrictionOff)
	}
	if cfg.Session.FuzzyFilter {
		t.Error("production override of fuzzy_filter not applied")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("development section leaked into production: level %s", cfg.Log.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := writeConfig(t, "environment: production\n")
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("expected warn level in production, got %s", cfg.LogLevel())
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/archivist")
	t.Setenv("KINSHIP_TEST_DATA", "/mnt/research")
	configPath := writeConfig(t, `
store:
  path: ${KINSHIP_TEST_DATA}/tree.kinship
  identity_file: ${HOME}/.config/kinship/key.txt
`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Store.Path != "/mnt/research/tree.kinship" {
		t.Errorf("path = %s", cfg.Store.Path)
	}
	if cfg.Store.IdentityFile != "/home/archivist/.config/kinship/key.txt" {
		t.Errorf("identity_file = %s", cfg.Store.IdentityFile)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("KINSHIP_TEST_SET", "set")
	vars := map[string]string{"HOME": "/home/a"}
	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/x", "/home/a/x"},
		{"${KINSHIP_TEST_SET}", "set"},
		{"${KINSHIP_TEST_UNSET:-fallback}", "fallback"},
		{"${KINSHIP_TEST_UNSET}", ""},
		{"plain", "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Environment = "staging"
	cfg.Store.Path = ""
	cfg.Store.Compression = "gzip"
	cfg.Store.Recipients = []string{"ssh-ed25519 AAAA"}
	cfg.Session.FilterDelay = "soon"
	cfg.Session.RestrictionOff = "hide"
	cfg.Log.Level = "trace"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"invalid environment",
		"store.path",
		"store.compression",
		"store.recipients",
		"session.filter_delay",
		"session.restriction_off",
		"log.level",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error does not mention %s: %v", want, err)
		}
	}

	cfg = Default()
	cfg.Session.FilterDelay = "-1s"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "negative") {
		t.Errorf("negative delay: %v", err)
	}
}

func TestIsSQLitePath(t *testing.T) {
	for path, want := range map[string]bool{
		"tree.db":        true,
		"tree.SQLite":    true,
		"tree.sqlite3":   true,
		"tree.kinship":   false,
		"tree":           false,
		"/a.db/tree.bin": false,
	} {
		if got := IsSQLitePath(path); got != want {
			t.Errorf("IsSQLitePath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestEnsureStoreDirectory(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "dir", "tree.kinship")
	if err := cfg.EnsureStoreDirectory(); err != nil {
		t.Fatalf("EnsureStoreDirectory: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(cfg.Store.Path)); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kinship.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
