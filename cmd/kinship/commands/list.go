// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/record"
)

func listCommand(env *Environment) *cli.Command {
	var params struct {
		cli.JSONOutput
		Filter     string
		Sort       string
		Descending bool
	}
	return &cli.Command{
		Name:    "list",
		Summary: "List the records of a table",
		Description: `List the records of a table, optionally filtered and sorted.

The filter matches any listed column, case-insensitively. With
session.fuzzy_filter set it is a fuzzy match ranked by score.`,
		Usage: "kinship list TABLE [--filter TEXT] [--sort COLUMN] [--desc] [--json]",
		Examples: []cli.Example{
			{Description: "People whose listed columns mention Smith", Command: "kinship list person_name --filter smith"},
			{Description: "Places by latitude, north first", Command: "kinship list place --sort latitude --desc"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.StringVarP(&params.Filter, "filter", "f", "", "show only rows matching `text`")
			flagSet.StringVarP(&params.Sort, "sort", "s", "", "sort by `column`")
			flagSet.BoolVar(&params.Descending, "desc", false, "sort descending")
			params.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship list TABLE", "TABLE"); err != nil {
				return err
			}
			return env.withEditor(ctx, logger, args[0], false, func(_ *workspace, ed *editor) error {
				columns := ed.table.Columns
				if params.Sort != "" {
					if params.Sort != record.FieldID && !slices.Contains(columns, params.Sort) {
						return cli.WithCode(cli.ExitUsage, fmt.Errorf("cannot sort %s by %q; sortable columns: id, %v", ed.table.Name, params.Sort, columns))
					}
					ed.controller.SetSort(params.Sort, params.Descending)
				}
				if params.Filter != "" {
					ed.controller.SetFilterText(params.Filter)
					ed.controller.FlushFilter()
				}
				rows := ed.controller.Visible()

				params.Writer = env.stdout()
				if done, err := params.EmitJSON(rowObjects(columns, rows)); done {
					return err
				}
				writeRows(env.stdout(), columns, rows)
				return nil
			})
		},
	}
}
