// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/filter"
	"github.com/bureau-foundation/kinship/lib/record"
)

type recordView struct {
	Table      string         `json:"table"`
	ID         int64          `json:"id"`
	Fields     map[string]any `json:"fields"`
	Restricted bool           `json:"restricted"`
	Created    string         `json:"created,omitempty"`
	Updated    string         `json:"updated,omitempty"`
	Notes      []string       `json:"notes,omitempty"`
}

func showCommand(env *Environment) *cli.Command {
	var params struct {
		cli.JSONOutput
	}
	return &cli.Command{
		Name:    "show",
		Summary: "Show one record with its stamps and notes",
		Usage:   "kinship show TABLE ID [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "kinship show TABLE ID", "TABLE", "ID"); err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return env.withEditor(ctx, logger, args[0], false, func(ws *workspace, ed *editor) error {
				if err := ed.selectRecord(ctx, id); err != nil {
					return err
				}
				view, err := viewSelected(ctx, ws, ed)
				if err != nil {
					return err
				}
				params.Writer = env.stdout()
				if done, err := params.EmitJSON(view); done {
					return err
				}
				writeView(env.stdout(), view)
				return nil
			})
		},
	}
}

// viewSelected gathers the selected record and what hangs off it.
func viewSelected(ctx context.Context, ws *workspace, ed *editor) (recordView, error) {
	selected, _ := ed.controller.Selected()
	id, _ := selected.ID()
	owner := record.Reference{Table: ed.table.Name, ID: id}

	view := recordView{Table: ed.table.Name, ID: id, Fields: map[string]any(selected)}
	delete(view.Fields, record.FieldID)

	restricted, err := ed.controller.Restricted(ctx)
	if err != nil {
		return view, err
	}
	view.Restricted = restricted

	stamps, err := ws.store.FindByReference(ctx, catalog.Modification, owner)
	if err != nil {
		return view, err
	}
	if len(stamps) > 0 {
		view.Created = stamps[0].String(record.FieldCreationDate)
		view.Updated = stamps[0].String(record.FieldUpdateDate)
	}

	notes, err := ws.store.FindByReference(ctx, catalog.Note, owner)
	if err != nil {
		return view, err
	}
	for _, note := range notes {
		view.Notes = append(view.Notes, note.String("text"))
	}
	return view, nil
}

func writeView(w io.Writer, view recordView) {
	fmt.Fprintf(w, "%s %d", view.Table, view.ID)
	if view.Restricted {
		fmt.Fprint(w, " (confidential)")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	for _, name := range record.Record(view.Fields).Fields() {
		fmt.Fprintf(tw, "  %s\t%s\n", name, filter.FormatValue(view.Fields[name]))
	}
	if view.Created != "" {
		fmt.Fprintf(tw, "  created\t%s\n", view.Created)
	}
	if view.Updated != "" {
		fmt.Fprintf(tw, "  updated\t%s\n", view.Updated)
	}
	tw.Flush()
	for _, note := range view.Notes {
		fmt.Fprintf(w, "  note: %s\n", note)
	}
}
