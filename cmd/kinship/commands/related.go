// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
)

func noteCommand(env *Environment) *cli.Command {
	var text, locale string
	return &cli.Command{
		Name:    "note",
		Summary: "Attach a note to a record",
		Usage:   "kinship note TABLE ID --text TEXT [--locale LOCALE]",
		Examples: []cli.Example{
			{Command: `kinship note person 3 --text "emigrated to Ontario, 1872"`},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("note", pflag.ContinueOnError)
			flagSet.StringVarP(&text, "text", "t", "", "note `text`")
			flagSet.StringVar(&locale, "locale", "", "language of the note, e.g. `en-GB`")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship note TABLE ID --text TEXT", "TABLE", "ID"); err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			fields := record.Record{"text": text}
			if locale != "" {
				fields["locale"] = locale
			}
			err = env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				return ed.controller.OpenRelated(ctx, eventbus.Kind(catalog.Note), "", fields)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout(), "note attached to %s %d\n", args[0], id)
			return nil
		},
	}
}

func linkCommand(env *Environment) *cli.Command {
	var target, field string
	var existing int64
	var sets []string
	return &cli.Command{
		Name:    "link",
		Summary: "Fill a link field, creating the target record if needed",
		Description: `Fill a link field of a record. With --id the field points at an existing
record of the target table; otherwise a new target record is created
from the --set values and linked.`,
		Usage: "kinship link TABLE ID --to TARGET [--field FIELD] [--id N | --set FIELD=VALUE...]",
		Examples: []cli.Example{
			{Description: "Create a calendar and link a date to it", Command: "kinship link date 7 --to calendar --set name=Julian"},
			{Description: "Link an assertion to an existing citation", Command: "kinship link assertion 2 --to citation --id 4"},
			{Description: "Link a place to the place enclosing it", Command: "kinship link place 5 --to place --field enclosed_by_id --id 1"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("link", pflag.ContinueOnError)
			flagSet.StringVar(&target, "to", "", "target `table`")
			flagSet.StringVar(&field, "field", "", "link `field` to fill (default <target>_id)")
			flagSet.Int64Var(&existing, "id", 0, "link the existing target record `N`")
			flagSet.StringArrayVar(&sets, "set", nil, "field of the new target record, `field=value` (repeatable)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship link TABLE ID --to TARGET", "TABLE", "ID"); err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			targetTable, err := lookupTable(target)
			if err != nil {
				return err
			}
			if existing != 0 && len(sets) > 0 {
				return cli.WithCode(cli.ExitUsage, fmt.Errorf("--id and --set are exclusive"))
			}

			var linkField string
			err = env.withEditor(ctx, logger, args[0], true, func(_ *workspace, ed *editor) error {
				linkField = field
				if linkField == "" {
					linkField = targetTable.Name + "_id"
				}
				declared, ok := ed.table.Field(linkField)
				if !ok || declared.Kind != catalog.Link || declared.Target != targetTable.Name {
					return cli.WithCode(cli.ExitUsage, fmt.Errorf("%s has no link field %s into %s", ed.table.Name, linkField, targetTable.Name))
				}

				fields := record.Record{}
				if existing != 0 {
					fields[record.FieldID] = existing
				} else {
					parsed, err := typedFields(form.New(targetTable), sets)
					if err != nil {
						return err
					}
					fields = parsed
				}

				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				return ed.controller.OpenRelated(ctx, eventbus.Kind(targetTable.Name), linkField, fields)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout(), "%s %d %s set\n", args[0], id, linkField)
			return nil
		},
	}
}
