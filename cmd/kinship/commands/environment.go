// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"filippo.io/age"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/archive"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/clock"
	"github.com/bureau-foundation/kinship/lib/config"
	"github.com/bureau-foundation/kinship/lib/editors"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/filter"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/session"
	"github.com/bureau-foundation/kinship/lib/sqlstore"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Environment is what every command runs against. main builds it from
// the global flags and the config file; tests build it directly.
type Environment struct {
	Config *config.Config

	// Clock stamps modifications. Nil means clock.Real().
	Clock clock.Clock

	Stdin  io.Reader
	Stdout io.Writer
}

func (env *Environment) clock() clock.Clock {
	if env.Clock == nil {
		return clock.Real()
	}
	return env.Clock
}

func (env *Environment) stdout() io.Writer {
	if env.Stdout == nil {
		return os.Stdout
	}
	return env.Stdout
}

func (env *Environment) stdin() io.Reader {
	if env.Stdin == nil {
		return os.Stdin
	}
	return env.Stdin
}

// workspace is an open store. Mutating commands call save before
// close; for archive stores that writes the file, for SQLite it is a
// no-op because every Put is already durable.
type workspace struct {
	store    tablestore.Store
	snapshot func(ctx context.Context) (map[string][]record.Record, error)
	save     func() error
	close    func() error
}

// openWorkspace opens the store named by the configuration.
func (env *Environment) openWorkspace(logger *slog.Logger) (*workspace, error) {
	cfg := env.Config
	if err := cfg.EnsureStoreDirectory(); err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		store, err := sqlstore.Open(sqlstore.Config{Path: cfg.Store.Path, Logger: logger})
		if err != nil {
			return nil, err
		}
		logger.Debug("opened database", "path", cfg.Store.Path)
		return &workspace{
			store:    store,
			snapshot: store.Snapshot,
			save:     func() error { return nil },
			close:    store.Close,
		}, nil
	}

	identities, err := env.identities()
	if err != nil {
		return nil, err
	}
	options, err := env.archiveOptions()
	if err != nil {
		return nil, err
	}
	store, err := archive.LoadFile(cfg.Store.Path, identities)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded archive", "path", cfg.Store.Path)
	return &workspace{
		store: store,
		snapshot: func(context.Context) (map[string][]record.Record, error) {
			return store.Snapshot(), nil
		},
		save: func() error {
			if err := archive.SaveFile(cfg.Store.Path, store, options); err != nil {
				return err
			}
			logger.Debug("saved archive", "path", cfg.Store.Path, "compression", options.Compression.String(), "sealed", len(options.Recipients) > 0)
			return nil
		},
		close: func() error { return nil },
	}, nil
}

func (env *Environment) identities() ([]age.Identity, error) {
	if env.Config.Store.IdentityFile == "" {
		return nil, nil
	}
	return archive.LoadIdentities(env.Config.Store.IdentityFile)
}

func (env *Environment) archiveOptions() (archive.Options, error) {
	compression, err := archive.ParseCompression(env.Config.Store.Compression)
	if err != nil {
		return archive.Options{}, err
	}
	recipients, err := archive.ParseRecipients(env.Config.Store.Recipients)
	if err != nil {
		return archive.Options{}, err
	}
	return archive.Options{Compression: compression, Recipients: recipients}, nil
}

// editor is one open session with its form.
type editor struct {
	controller *session.Controller
	form       *form.Form
	table      catalog.Table
}

type sessionOptions struct {
	// dispatch runs debounced filter recomputations. Nil runs them on
	// the timer goroutine.
	dispatch     func(func())
	onListChange func([]filter.Row)
}

// openEditor opens a session on table with an event bus wired to the
// related-record editors.
func (env *Environment) openEditor(ctx context.Context, ws *workspace, tableName string, options sessionOptions, logger *slog.Logger) (*editor, error) {
	table, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	restrictionOff, err := session.ParseRestrictionOff(env.Config.Session.RestrictionOff)
	if err != nil {
		return nil, err
	}

	registry := catalog.Registry()
	bus := eventbus.New(logger)
	err = editors.Subscribe(bus, editors.Config{
		Store:    ws.store,
		Registry: registry,
		Clock:    env.clock(),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	hooks := form.New(table)
	controller, err := session.New(ctx, session.Config{
		Table:          table.Name,
		Store:          ws.store,
		Hooks:          hooks,
		Registry:       registry,
		Columns:        table.Columns,
		Clock:          env.clock(),
		Dispatch:       options.dispatch,
		FilterDelay:    env.Config.FilterDelay(),
		FuzzyFilter:    env.Config.Session.FuzzyFilter,
		RestrictionOff: restrictionOff,
		Bus:            bus,
		OnListChange:   options.onListChange,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &editor{controller: controller, form: hooks, table: table}, nil
}

// selectRecord selects id, mapping a missing record to ExitNotFound.
func (e *editor) selectRecord(ctx context.Context, id int64) error {
	err := e.controller.Select(ctx, id)
	if errors.Is(err, session.ErrMissingRecord) {
		return cli.WithCode(cli.ExitNotFound, fmt.Errorf("%s %d does not exist", e.table.Name, id))
	}
	return classify(err)
}

// classify maps validation failures and missing records to their exit
// codes.
func classify(err error) error {
	var validation *session.ValidationError
	var field *form.FieldError
	switch {
	case errors.As(err, &validation), errors.As(err, &field):
		return cli.WithCode(cli.ExitValidation, err)
	case errors.Is(err, tablestore.ErrNotFound):
		return cli.WithCode(cli.ExitNotFound, err)
	}
	return err
}

func lookupTable(name string) (catalog.Table, error) {
	table, ok := catalog.Lookup(name)
	if ok {
		return table, nil
	}
	if suggestion := cli.Closest(name, catalog.Names()); suggestion != "" {
		return catalog.Table{}, cli.WithCode(cli.ExitUsage, fmt.Errorf("unknown table %q (did you mean %q?)", name, suggestion))
	}
	return catalog.Table{}, cli.WithCode(cli.ExitUsage, fmt.Errorf("unknown table %q; run 'kinship tables' for the list", name))
}
