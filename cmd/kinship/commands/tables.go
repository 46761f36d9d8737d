// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/catalog"
)

type tableSummary struct {
	Name      string   `json:"name"`
	Dependent bool     `json:"dependent"`
	Records   int      `json:"records"`
	Columns   []string `json:"columns"`
}

func tablesCommand(env *Environment) *cli.Command {
	var params struct {
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "tables",
		Summary: "List the tables and their record counts",
		Usage:   "kinship tables [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tables", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship tables"); err != nil {
				return err
			}
			ws, err := env.openWorkspace(logger)
			if err != nil {
				return err
			}
			defer ws.close()

			var summaries []tableSummary
			for _, table := range catalog.Tables() {
				records, err := ws.store.List(ctx, table.Name)
				if err != nil {
					return err
				}
				summaries = append(summaries, tableSummary{
					Name:      table.Name,
					Dependent: table.Dependent,
					Records:   len(records),
					Columns:   table.Columns,
				})
			}

			params.Writer = env.stdout()
			if done, err := params.EmitJSON(summaries); done {
				return err
			}
			tw := tabwriter.NewWriter(env.stdout(), 2, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tKIND\tRECORDS")
			for _, summary := range summaries {
				kind := "owner"
				if summary.Dependent {
					kind = "dependent"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", summary.Name, kind, summary.Records)
			}
			return tw.Flush()
		},
	}
}
