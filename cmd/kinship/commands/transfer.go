// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/archive"
	"github.com/bureau-foundation/kinship/lib/config"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/recordfile"
	"github.com/bureau-foundation/kinship/lib/sqlstore"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

func importCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "import",
		Summary: "Import records from a JSONC file",
		Description: `Import records into a table from a JSONC file: one object or an array
of objects, with comments and trailing commas allowed.

Each record goes through the editing session like a manual edit: it
is validated and stamped. A record with an id updates that record,
creating it if absent; a record without one gets the next id. The
first invalid record stops the import; with an archive store nothing
is saved.`,
		Usage: "kinship import TABLE FILE",
		Examples: []cli.Example{
			{Command: "kinship import place places.jsonc"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship import TABLE FILE", "TABLE", "FILE"); err != nil {
				return err
			}
			records, err := recordfile.ReadFile(args[1])
			if err != nil {
				return cli.WithCode(cli.ExitUsage, err)
			}
			imported := 0
			err = env.withEditor(ctx, logger, args[0], true, func(ws *workspace, ed *editor) error {
				for index, rec := range records {
					if err := importRecord(ctx, ws, ed, rec); err != nil {
						return fmt.Errorf("record %d: %w", index, err)
					}
					imported++
				}
				return nil
			})
			if err != nil {
				return err
			}
			logger.Info("import finished", "table", args[0], "records", imported, "file", args[1])
			fmt.Fprintf(env.stdout(), "%d %s records imported\n", imported, args[0])
			return nil
		},
	}
}

func importRecord(ctx context.Context, ws *workspace, ed *editor, rec record.Record) error {
	id, hasID := rec.ID()
	if hasID {
		_, err := ws.store.Get(ctx, ed.table.Name, id)
		switch {
		case errors.Is(err, tablestore.ErrNotFound):
			err = ed.controller.InsertRecord(ctx, id)
		case err == nil:
			err = ed.controller.Select(ctx, id)
		}
		if err != nil {
			return err
		}
	} else {
		if _, err := ed.controller.NewRecord(ctx); err != nil {
			return err
		}
	}

	for _, name := range rec.Fields() {
		if name == record.FieldID {
			continue
		}
		if err := ed.form.Set(name, rec[name]); err != nil {
			return cli.WithCode(cli.ExitValidation, err)
		}
	}
	return ed.controller.Commit(ctx)
}

func exportCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "export",
		Summary: "Copy the whole store to an archive or database",
		Description: `Copy every table to DEST. A DEST ending in .db or .sqlite is written as a
SQLite database (replacing its contents); anything else is written as
an archive file using the configured compression and recipients.`,
		Usage: "kinship export DEST",
		Examples: []cli.Example{
			{Description: "Back up a database to a sealed archive", Command: "kinship --store tree.db export backup.kinship"},
			{Description: "Move an archive into SQLite", Command: "kinship export tree.db"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) (err error) {
			if err := requireArgs(args, "kinship export DEST", "DEST"); err != nil {
				return err
			}
			destination := args[0]
			if same, _ := samePath(destination, env.Config.Store.Path); same {
				return cli.WithCode(cli.ExitUsage, fmt.Errorf("export destination is the open store"))
			}

			ws, err := env.openWorkspace(logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := ws.close(); closeErr != nil {
					err = errors.Join(err, closeErr)
				}
			}()
			tables, err := ws.snapshot(ctx)
			if err != nil {
				return err
			}

			count := 0
			for _, records := range tables {
				count += len(records)
			}
			if err := writeExport(ctx, env, destination, tables, logger); err != nil {
				return err
			}
			logger.Info("export finished", "destination", destination, "records", count)
			fmt.Fprintf(env.stdout(), "%d records exported to %s\n", count, destination)
			return nil
		},
	}
}

func writeExport(ctx context.Context, env *Environment, destination string, tables map[string][]record.Record, logger *slog.Logger) error {
	if config.IsSQLitePath(destination) {
		store, err := sqlstore.Open(sqlstore.Config{Path: destination, Logger: logger})
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Load(ctx, tables)
	}

	options, err := env.archiveOptions()
	if err != nil {
		return err
	}
	memory := tablestore.NewMemoryStore()
	if err := memory.Load(tables); err != nil {
		return err
	}
	return archive.SaveFile(destination, memory, options)
}

func samePath(a, b string) (bool, error) {
	absoluteA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absoluteB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absoluteA == absoluteB {
		return true, nil
	}
	infoA, errA := os.Stat(absoluteA)
	infoB, errB := os.Stat(absoluteB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}
