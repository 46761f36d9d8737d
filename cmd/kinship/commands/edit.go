// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
)

func newCommand(env *Environment) *cli.Command {
	var sets []string
	return &cli.Command{
		Name:    "new",
		Summary: "Create a record",
		Description: `Create a record with the table's next id and the given field values.

The record is validated before it is kept: if a required field is
missing or a value is malformed, nothing is stored.`,
		Usage: "kinship new TABLE --set FIELD=VALUE...",
		Examples: []cli.Example{
			{Description: "Record a calendar", Command: "kinship new calendar --set name=Julian"},
			{Command: "kinship new assertion --set citation_id=4 --set role=witness"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("new", pflag.ContinueOnError)
			flagSet.StringArrayVar(&sets, "set", nil, "set `field=value` (repeatable)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship new TABLE", "TABLE"); err != nil {
				return err
			}
			var created int64
			err := env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				id, err := ed.controller.NewRecord(ctx)
				if err != nil {
					return err
				}
				err = applyEdits(ed.form, sets, nil)
				if err == nil {
					err = ed.controller.Commit(ctx)
				}
				if err != nil {
					// Take the blank record back out; the archive is
					// not saved on error, but a database already has it.
					if deleteErr := ed.controller.Delete(ctx); deleteErr != nil {
						err = errors.Join(err, deleteErr)
					}
					return err
				}
				created = id
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout(), "%s %d created\n", args[0], created)
			return nil
		},
	}
}

func editCommand(env *Environment) *cli.Command {
	var sets, unsets []string
	return &cli.Command{
		Name:    "edit",
		Summary: "Change fields of a record",
		Usage:   "kinship edit TABLE ID [--set FIELD=VALUE...] [--unset FIELD...]",
		Examples: []cli.Example{
			{Command: "kinship edit assertion 2 --set role=principal --unset reason"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			flagSet.StringArrayVar(&sets, "set", nil, "set `field=value` (repeatable)")
			flagSet.StringArrayVar(&unsets, "unset", nil, "clear `field` (repeatable)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship edit TABLE ID", "TABLE", "ID"); err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if len(sets) == 0 && len(unsets) == 0 {
				return cli.WithCode(cli.ExitUsage, fmt.Errorf("nothing to change: give --set or --unset"))
			}
			changed := false
			err = env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				before := ed.controller.Snapshot()
				if err := applyEdits(ed.form, sets, unsets); err != nil {
					return err
				}
				if err := ed.controller.Commit(ctx); err != nil {
					return err
				}
				changed = ed.controller.Snapshot() != before
				return nil
			})
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(env.stdout(), "%s %d updated\n", args[0], id)
			} else {
				fmt.Fprintf(env.stdout(), "%s %d unchanged\n", args[0], id)
			}
			return nil
		},
	}
}

func deleteCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a record and its dependents",
		Description: `Delete a record together with its notes, media links, restriction,
modification stamp and other dependent records.`,
		Usage: "kinship delete TABLE ID",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship delete TABLE ID", "TABLE", "ID"); err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			err = env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				return ed.controller.Delete(ctx)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout(), "%s %d deleted\n", args[0], id)
			return nil
		},
	}
}
