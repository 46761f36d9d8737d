// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Kinship edits a genealogy database from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/cmd/kinship/commands"
	"github.com/bureau-foundation/kinship/lib/config"
	"github.com/bureau-foundation/kinship/lib/version"
)

func main() {
	if err := run(); err != nil {
		if !cli.Silent(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCodeOf(err))
	}
}

func run() error {
	var (
		configPath  string
		storePath   string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("kinship", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to kinship.yaml (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&storePath, "store", "", "archive file or SQLite database to edit (overrides store.path)")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")
	flagSet.Usage = func() {}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			commands.Root(&commands.Environment{}).PrintHelp(os.Stderr)
			fmt.Fprintf(os.Stderr, "\nGlobal flags:\n%s", flagSet.FlagUsages())
			return nil
		}
		return cli.WithCode(cli.ExitUsage, err)
	}

	if showVersion {
		fmt.Printf("kinship %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cli.WithCode(cli.ExitUsage, fmt.Errorf("invalid configuration: %w", err))
	}

	logger := cli.NewCommandLogger(cfg.LogLevel())
	logger.Debug("configuration loaded",
		"environment", cfg.Environment,
		"store", cfg.Store.Path,
		"sqlite", cfg.IsSQLite(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &commands.Environment{Config: cfg}
	return commands.Root(env).Execute(ctx, flagSet.Args(), logger)
}

// loadConfig reads --config, then $KINSHIP_CONFIG, and falls back to
// the built-in defaults when neither is set.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	return config.Default(), nil
}
