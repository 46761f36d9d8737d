// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/filter"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
)

// withEditor opens the store and a session on table, runs fn, and
// closes the session (committing the selection). When mutate is set
// the store is saved afterwards. A failing fn discards the session's
// uncommitted edits and nothing is saved.
func (env *Environment) withEditor(ctx context.Context, logger *slog.Logger, table string, mutate bool, fn func(*workspace, *editor) error) (err error) {
	ws, err := env.openWorkspace(logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	ed, err := env.openEditor(ctx, ws, table, sessionOptions{}, logger)
	if err != nil {
		return err
	}
	if err := fn(ws, ed); err != nil {
		ed.controller.Dispose()
		return classify(err)
	}
	if err := ed.controller.Close(ctx); err != nil {
		ed.controller.Dispose()
		return classify(err)
	}
	if mutate {
		return ws.save()
	}
	return nil
}

// requireArgs checks the positional argument count.
func requireArgs(args []string, usage string, names ...string) error {
	if len(args) != len(names) {
		return cli.WithCode(cli.ExitUsage, fmt.Errorf("usage: %s (expected %s)", usage, strings.Join(names, " ")))
	}
	return nil
}

func parseID(text string) (int64, error) {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.WithCode(cli.ExitUsage, fmt.Errorf("%q is not a record id", text))
	}
	return id, nil
}

// parseAssignments splits "field=value" arguments.
func parseAssignments(assignments []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(assignments))
	for _, assignment := range assignments {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok || name == "" {
			return nil, cli.WithCode(cli.ExitUsage, fmt.Errorf("%q is not field=value", assignment))
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs, nil
}

// applyEdits sets and unsets form fields from command-line text.
func applyEdits(hooks *form.Form, sets []string, unsets []string) error {
	pairs, err := parseAssignments(sets)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := hooks.SetText(pair[0], pair[1]); err != nil {
			return cli.WithCode(cli.ExitValidation, err)
		}
	}
	for _, name := range unsets {
		if err := hooks.Unset(name); err != nil {
			return cli.WithCode(cli.ExitValidation, err)
		}
	}
	return nil
}

// typedFields parses "field=value" arguments against table's schema
// into a record.
func typedFields(hooks *form.Form, assignments []string) (record.Record, error) {
	pairs, err := parseAssignments(assignments)
	if err != nil {
		return nil, err
	}
	fields := record.Record{}
	table := hooks.Table()
	for _, pair := range pairs {
		if pair[0] == record.FieldID {
			id, err := parseID(pair[1])
			if err != nil {
				return nil, err
			}
			fields[record.FieldID] = id
			continue
		}
		field, ok := table.Field(pair[0])
		if !ok {
			return nil, cli.WithCode(cli.ExitValidation, fmt.Errorf("%w: %s.%s", form.ErrUnknownField, table.Name, pair[0]))
		}
		value, err := form.ParseValue(field, pair[1])
		if err != nil {
			return nil, cli.WithCode(cli.ExitValidation, &form.FieldError{Table: table.Name, Field: field.Name, Reason: err.Error()})
		}
		fields[field.Name] = value
	}
	return fields, nil
}

// writeRows prints rows as an aligned table with an id column.
func writeRows(w io.Writer, columns []string, rows []filter.Row) {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	header := append([]string{"ID"}, columns...)
	for i := range header[1:] {
		header[i+1] = strings.ToUpper(header[i+1])
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, strconv.FormatInt(row.ID, 10))
		for _, column := range columns {
			cells = append(cells, row.Cell(column))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// rowObjects renders rows for JSON output.
func rowObjects(columns []string, rows []filter.Row) []map[string]any {
	objects := make([]map[string]any, len(rows))
	for i, row := range rows {
		object := map[string]any{record.FieldID: row.ID}
		for _, column := range columns {
			object[column] = row.Cell(column)
		}
		objects[i] = object
	}
	return objects
}
