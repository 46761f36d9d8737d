// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/kinship/cmd/kinship/cli"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/filter"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/session"
)

const shellHelp = `Commands:
  list                      show the visible rows
  filter [TEXT]             filter the rows (applied after a short pause)
  sort [COLUMN [desc]]      sort the rows; no column sorts by id
  select ID                 commit the current record and select ID
  new                       commit and create a record
  show                      show the selected record
  set FIELD VALUE           change a field of the selected record
  unset FIELD               clear a field
  save                      commit the selected record
  delete                    delete the selected record and its dependents
  restrict on|off           mark the selected record confidential or not
  note TEXT                 attach a note to the selected record
  link TARGET [FIELD] [id=N | FIELD=VALUE...]
                            fill a link field, creating the target if needed
  quit                      commit and leave
  discard                   leave without committing
`

func shellCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Summary: "Edit a table interactively",
		Description: `Open an interactive editing session on one table. Commands are read a
line at a time; type "help" for the list. The selected record is
committed whenever the selection moves, on save, and on quit.`,
		Usage: "kinship shell TABLE",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) (err error) {
			if err := requireArgs(args, "kinship shell TABLE", "TABLE"); err != nil {
				return err
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
			return runShell(ctx, env, ws, args[0], logger)
		},
	}
}

// shell is one interactive session. Every field is owned by the loop
// goroutine.
type shell struct {
	env    *Environment
	ws     *workspace
	editor *editor
	out    io.Writer
	logger *slog.Logger
	prompt bool

	// recomputing is set while a debounced filter recomputation runs,
	// so only its list change is printed.
	recomputing bool
	mutated     bool
	quit        bool
}

func runShell(ctx context.Context, env *Environment, ws *workspace, table string, logger *slog.Logger) error {
	loop := session.NewLoop()
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go loop.Run(loopCtx)
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()

	s := &shell{
		env:    env,
		ws:     ws,
		out:    env.stdout(),
		logger: logger,
		prompt: env.Stdin == nil && cli.IsTerminal(os.Stdin),
	}
	var openErr error
	err := loop.Do(ctx, func() {
		s.editor, openErr = env.openEditor(ctx, ws, table, sessionOptions{
			dispatch: func(task func()) {
				loop.Post(func() {
					s.recomputing = true
					defer func() { s.recomputing = false }()
					task()
				})
			},
			onListChange: s.listChanged,
		}, logger)
		if openErr == nil {
			s.printPrompt()
		}
	})
	if err != nil {
		return err
	}
	if openErr != nil {
		return openErr
	}

	scanner := bufio.NewScanner(env.stdin())
	for !s.quit && scanner.Scan() {
		line := scanner.Text()
		if err := loop.Do(ctx, func() { s.handle(ctx, line) }); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}

	// End of input without quit: commit what can be committed.
	var closeErr error
	if err := loop.Do(ctx, func() {
		if s.quit {
			return
		}
		if closeErr = s.editor.controller.Close(ctx); closeErr != nil {
			s.editor.controller.Dispose()
		}
	}); err != nil {
		return err
	}
	if closeErr != nil {
		return classify(fmt.Errorf("uncommitted edit discarded: %w", closeErr))
	}
	if s.mutated {
		return ws.save()
	}
	return nil
}

func (s *shell) listChanged(rows []filter.Row) {
	if s.recomputing {
		writeRows(s.out, s.editor.table.Columns, rows)
	}
}

func (s *shell) printPrompt() {
	if !s.prompt {
		return
	}
	if id, ok := s.editor.controller.SelectedID(); ok {
		fmt.Fprintf(s.out, "%s[%d]> ", s.editor.table.Name, id)
	} else {
		fmt.Fprintf(s.out, "%s> ", s.editor.table.Name)
	}
}

func (s *shell) handle(ctx context.Context, line string) {
	defer s.printPrompt()
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	if command == "" || strings.HasPrefix(command, "#") {
		return
	}
	if err := s.execute(ctx, command, rest); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		s.logger.Debug("shell command failed", "command", command, "error", err)
	}
}

func (s *shell) execute(ctx context.Context, command, rest string) error {
	controller := s.editor.controller
	switch command {
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
		return nil

	case "list":
		writeRows(s.out, s.editor.table.Columns, controller.Visible())
		return nil

	case "filter":
		controller.SetFilterText(rest)
		return nil

	case "sort":
		column, direction, _ := strings.Cut(rest, " ")
		controller.SetSort(column, strings.TrimSpace(direction) == "desc")
		writeRows(s.out, s.editor.table.Columns, controller.Visible())
		return nil

	case "select":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		s.mutated = true
		return s.editor.selectRecord(ctx, id)

	case "new":
		s.mutated = true
		id, err := controller.NewRecord(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s %d created\n", s.editor.table.Name, id)
		return nil

	case "show":
		if controller.State() != session.Selected {
			return session.ErrNoSelection
		}
		view, err := viewSelected(ctx, s.ws, s.editor)
		if err != nil {
			return err
		}
		// Show the edited values, committed or not.
		view.Fields = map[string]any(s.editedRecord())
		delete(view.Fields, record.FieldID)
		writeView(s.out, view)
		return nil

	case "set":
		name, value, _ := strings.Cut(rest, " ")
		if controller.State() != session.Selected {
			return session.ErrNoSelection
		}
		return s.editor.form.SetText(name, strings.TrimSpace(value))

	case "unset":
		if controller.State() != session.Selected {
			return session.ErrNoSelection
		}
		return s.editor.form.Unset(rest)

	case "save":
		s.mutated = true
		return controller.Save(ctx)

	case "delete":
		id, ok := controller.SelectedID()
		if !ok {
			return session.ErrNoSelection
		}
		s.mutated = true
		if err := controller.Delete(ctx); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s %d deleted\n", s.editor.table.Name, id)
		return nil

	case "restrict":
		if rest != "on" && rest != "off" {
			return fmt.Errorf("usage: restrict on|off")
		}
		s.mutated = true
		return controller.ToggleRestriction(ctx, rest == "on")

	case "note":
		s.mutated = true
		return controller.OpenRelated(ctx, eventbus.Kind(catalog.Note), "", record.Record{"text": rest})

	case "link":
		return s.link(ctx, rest)

	case "quit", "exit":
		if err := controller.Close(ctx); err != nil {
			return fmt.Errorf("%w (fix the field, or use discard)", err)
		}
		s.quit = true
		return nil

	case "discard":
		controller.Dispose()
		s.quit = true
		return nil

	default:
		commands := []string{"help", "list", "filter", "sort", "select", "new", "show", "set", "unset",
			"save", "delete", "restrict", "note", "link", "quit", "exit", "discard"}
		if suggestion := cli.Closest(command, commands); suggestion != "" {
			return fmt.Errorf("unknown command %q (did you mean %q?)", command, suggestion)
		}
		return fmt.Errorf("unknown command %q; type help", command)
	}
}

func (s *shell) link(ctx context.Context, rest string) error {
	words := strings.Fields(rest)
	if len(words) == 0 {
		return fmt.Errorf("usage: link TARGET [FIELD] [id=N | FIELD=VALUE...]")
	}
	target, err := lookupTable(words[0])
	if err != nil {
		return err
	}
	words = words[1:]
	field := ""
	if len(words) > 0 && !strings.Contains(words[0], "=") {
		field, words = words[0], words[1:]
	}
	if field == "" {
		field = target.Name + "_id"
	}
	declared, ok := s.editor.table.Field(field)
	if !ok || declared.Kind != catalog.Link || declared.Target != target.Name {
		return fmt.Errorf("%s has no link field %s into %s", s.editor.table.Name, field, target.Name)
	}
	fields, err := typedFields(form.New(target), words)
	if err != nil {
		return err
	}
	s.mutated = true
	if err := s.editor.controller.OpenRelated(ctx, eventbus.Kind(target.Name), field, fields); err != nil {
		return err
	}
	if value, ok := s.editor.form.Value(field); ok {
		fmt.Fprintf(s.out, "%s = %s\n", field, strconv.Quote(filter.FormatValue(value)))
	}
	return nil
}

// editedRecord is the selected record with the form's current values.
func (s *shell) editedRecord() record.Record {
	selected, _ := s.editor.controller.Selected()
	s.editor.form.WriteFields(selected)
	return selected
}
