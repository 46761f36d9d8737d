// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "KINSHIP_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for working on a personal tree.
	Development Environment = "development"
	// Production is for a shared research database.
	Production Environment = "production"
)

// Config is the kinship configuration file.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Store selects and configures the table store.
	Store StoreConfig `yaml:"store"`

	// Session configures record-edit sessions.
	Session SessionConfig `yaml:"session"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment. Empty strings and nil pointers leave the base value.
type ConfigOverrides struct {
	Store   *StoreConfig      `yaml:"store,omitempty"`
	Session *SessionOverrides `yaml:"session,omitempty"`
	Log     *LogConfig        `yaml:"log,omitempty"`
}

// StoreConfig configures the table store.
type StoreConfig struct {
	// Path is the store location. A path ending in .db or .sqlite is
	// a SQLite database; anything else is an archive file.
	Path string `yaml:"path"`

	// Compression is the archive compression: none, lz4 or zstd.
	// Ignored for SQLite stores.
	Compression string `yaml:"compression"`

	// Recipients are age public keys (age1...). When set, archives
	// are sealed to them.
	Recipients []string `yaml:"recipients"`

	// IdentityFile holds the age secret key that opens a sealed
	// archive.
	IdentityFile string `yaml:"identity_file"`
}

// SessionConfig configures record-edit sessions.
type SessionConfig struct {
	// FilterDelay is the debounce delay for filter text, as a Go
	// duration string. Default: 300ms.
	FilterDelay string `yaml:"filter_delay"`

	// RestrictionOff is what turning a restriction off does: delete
	// removes the restriction record, public keeps it marked public.
	RestrictionOff string `yaml:"restriction_off"`

	// FuzzyFilter switches the list filter from substring to fuzzy
	// matching.
	FuzzyFilter bool `yaml:"fuzzy_filter"`
}

// SessionOverrides mirrors SessionConfig with the bool made optional.
type SessionOverrides struct {
	FilterDelay    string `yaml:"filter_delay"`
	RestrictionOff string `yaml:"restriction_off"`
	FuzzyFilter    *bool  `yaml:"fuzzy_filter"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

var (
	compressions    = []string{"none", "lz4", "zstd"}
	restrictionOffs = []string{"delete", "public"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// Default returns the default configuration. It is the base every
// config file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Store: StoreConfig{
			Path:        filepath.Join(homeDir, ".local", "share", "kinship", "family.kinship"),
			Compression: "zstd",
		},
		Session: SessionConfig{
			FilterDelay:    "300ms",
			RestrictionOff: "delete",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the KINSHIP_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your kinship.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// matching environment overrides, and expands path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{Log: &LogConfig{Level: "warn"}}
		}
	}
	if overrides == nil {
		return
	}

	if store := overrides.Store; store != nil {
		if store.Path != "" {
			c.Store.Path = store.Path
		}
		if store.Compression != "" {
			c.Store.Compression = store.Compression
		}
		if len(store.Recipients) > 0 {
			c.Store.Recipients = store.Recipients
		}
		if store.IdentityFile != "" {
			c.Store.IdentityFile = store.IdentityFile
		}
	}

	if session := overrides.Session; session != nil {
		if session.FilterDelay != "" {
			c.Session.FilterDelay = session.FilterDelay
		}
		if session.RestrictionOff != "" {
			c.Session.RestrictionOff = session.RestrictionOff
		}
		if session.FuzzyFilter != nil {
			c.Session.FuzzyFilter = *session.FuzzyFilter
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Store.IdentityFile = expandVars(c.Store.IdentityFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem at
// once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if !slices.Contains(compressions, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressions))
	}
	for _, recipient := range c.Store.Recipients {
		if !strings.HasPrefix(recipient, "age1") {
			errs = append(errs, fmt.Errorf("store.recipients: %q is not an age public key", recipient))
		}
	}

	if delay, err := time.ParseDuration(c.Session.FilterDelay); err != nil {
		errs = append(errs, fmt.Errorf("session.filter_delay: %w", err))
	} else if delay < 0 {
		errs = append(errs, fmt.Errorf("session.filter_delay must not be negative"))
	}
	if !slices.Contains(restrictionOffs, c.Session.RestrictionOff) {
		errs = append(errs, fmt.Errorf("session.restriction_off must be one of: %v", restrictionOffs))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	return errors.Join(errs...)
}

// FilterDelay returns the parsed session.filter_delay. Call Validate
// first; an unparseable value yields zero.
func (c *Config) FilterDelay() time.Duration {
	delay, _ := time.ParseDuration(c.Session.FilterDelay)
	return delay
}

// LogLevel returns log.level as an slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsSQLite reports whether the store path names a SQLite database.
func (c *Config) IsSQLite() bool {
	return IsSQLitePath(c.Store.Path)
}

// IsSQLitePath reports whether path names a SQLite database rather
// than an archive file.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// EnsureStoreDirectory creates the directory holding the store.
func (c *Config) EnsureStoreDirectory() error {
	directory := filepath.Dir(c.Store.Path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	return nil
}
