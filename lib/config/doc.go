// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for kinship.
//
// Configuration is loaded from a single file specified by either the
// KINSHIP_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. A command run without either uses
// [Default] and says so in its debug log.
//
// The file may carry environment sections (development, production)
// that override base values when [Config].Environment matches.
// Production defaults are quieter: the log level rises to warn.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// This package depends on no other kinship packages.
package config
