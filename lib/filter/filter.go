// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter maintains the visible, sorted subset of a table's
// rows for an editing surface.
//
// Filter text changes are debounced: [Engine.SetFilterText] only
// records the text and restarts the quiet interval, and the visible
// set is recomputed once typing pauses. The recomputation runs through
// the Dispatch function from [Config] so that it executes on the
// goroutine that owns the engine. The engine never reads or writes a
// table store; callers feed it rows.
package filter

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/kinship/lib/clock"
	"github.com/bureau-foundation/kinship/lib/debounce"
	"github.com/bureau-foundation/kinship/lib/record"
)

// Row is one list entry: the record ID and the display text of each
// indexed column.
type Row struct {
	ID    int64
	Cells map[string]string
}

// Cell returns the text of column. The pseudo-column "id" is always
// available.
func (r Row) Cell(column string) string {
	if column == record.FieldID {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Cells[column]
}

// RowOf builds the row for rec, rendering each listed column.
func RowOf(rec record.Record, columns []string) Row {
	id, _ := rec.ID()
	cells := make(map[string]string, len(columns))
	for _, column := range columns {
		cells[column] = FormatValue(rec[column])
	}
	return Row{ID: id, Cells: cells}
}

// FormatValue renders a record value as list text. Nil is empty.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}

// Config configures an Engine.
type Config struct {
	// Columns are the indexed filter columns. Empty means every cell
	// of a row is tested.
	Columns []string

	// Clock and Delay drive the debounce interval.
	Clock clock.Clock
	Delay time.Duration

	// Dispatch runs the recomputation on the engine's owner. When nil,
	// a [clock.FakeClock] runs it inside Advance on the caller's
	// goroutine; with any other clock the recomputation is left
	// pending until the owner calls Flush.
	Dispatch func(func())

	// Fuzzy selects fzf-style fuzzy matching instead of substring
	// matching. Fuzzy results without an active sort are ordered by
	// match score.
	Fuzzy bool

	// OnChange, if set, receives the visible rows after every
	// recomputation or sort change.
	OnChange func(visible []Row)

	Logger *slog.Logger
}

// Engine holds all rows of a table and the visible subset. It is not
// safe for concurrent use: every method, and the dispatched
// recomputation, must run on the owning goroutine.
type Engine struct {
	columns  []string
	fuzzy    bool
	onChange func([]Row)
	logger   *slog.Logger

	debouncer *debounce.Debouncer
	slab      *util.Slab

	rows       []Row
	visible    []Row
	text       string
	sortColumn string
	descending bool
	closed     bool
}

// New returns an engine with no rows.
func New(config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := &Engine{
		columns:  slices.Clone(config.Columns),
		fuzzy:    config.Fuzzy,
		onChange: config.OnChange,
		logger:   logger,
	}
	if config.Fuzzy {
		initFuzzy()
		engine.slab = util.MakeSlab(slab16Size, slab32Size)
	}
	dispatch := config.Dispatch
	if dispatch == nil {
		if _, fake := config.Clock.(*clock.FakeClock); fake {
			dispatch = func(run func()) { run() }
		} else {
			// No owner to run on: Flush picks it up.
			dispatch = func(func()) {}
		}
	}
	engine.debouncer = debounce.New(debounce.Config{
		Clock:    config.Clock,
		Delay:    config.Delay,
		Dispatch: dispatch,
		Action:   engine.Recompute,
	})
	return engine
}

// SetRows replaces every row and recomputes the visible set at once.
func (e *Engine) SetRows(rows []Row) {
	e.rows = slices.Clone(rows)
	e.Recompute()
}

// AppendRow adds a row and makes it visible immediately, whatever the
// filter text, so a freshly created record can be selected.
func (e *Engine) AppendRow(row Row) {
	if e.closed {
		return
	}
	e.rows = append(e.rows, row)
	e.visible = append(e.visible, row)
	e.notify()
}

// UpdateRow replaces the cells of the row with row.ID. Visibility is
// not re-evaluated until the next recomputation.
func (e *Engine) UpdateRow(row Row) {
	if e.closed {
		return
	}
	replace := func(rows []Row) {
		for i := range rows {
			if rows[i].ID == row.ID {
				rows[i] = row
			}
		}
	}
	replace(e.rows)
	replace(e.visible)
	e.notify()
}

// RemoveRow drops the row with the given ID from both sets.
func (e *Engine) RemoveRow(id int64) {
	if e.closed {
		return
	}
	match := func(row Row) bool { return row.ID == id }
	e.rows = slices.DeleteFunc(e.rows, match)
	e.visible = slices.DeleteFunc(e.visible, match)
	e.notify()
}

// SetFilterText records text and restarts the debounce interval.
func (e *Engine) SetFilterText(text string) {
	if e.closed {
		return
	}
	e.text = text
	e.debouncer.Trigger()
}

// FilterText returns the current filter text, applied or not.
func (e *Engine) FilterText() string { return e.text }

// SetSort orders the visible rows by column, then by ID. An empty
// column sorts by ID alone. Applied immediately.
func (e *Engine) SetSort(column string, descending bool) {
	if e.closed {
		return
	}
	e.sortColumn = column
	e.descending = descending
	e.sortVisible(nil)
	e.notify()
}

// Visible returns a copy of the visible rows in display order.
func (e *Engine) Visible() []Row {
	return slices.Clone(e.visible)
}

// Pending reports whether a debounced recomputation is scheduled.
func (e *Engine) Pending() bool { return e.debouncer.Pending() }

// Flush runs a pending recomputation now. Returns false if none was
// pending.
func (e *Engine) Flush() bool { return e.debouncer.Flush() }

// Recompute re-filters every row against the current text and
// re-applies the sort. No-op once the engine is closed.
func (e *Engine) Recompute() {
	if e.closed {
		return
	}
	query := strings.ToLower(e.text)
	var scores map[int64]int
	visible := make([]Row, 0, len(e.rows))
	if e.fuzzy && query != "" {
		scores = make(map[int64]int, len(e.rows))
	}
	for _, row := range e.rows {
		if query == "" {
			visible = append(visible, row)
			continue
		}
		if scores != nil {
			if score, ok := e.fuzzyScore(row, query); ok {
				scores[row.ID] = score
				visible = append(visible, row)
			}
			continue
		}
		if e.substringMatch(row, query) {
			visible = append(visible, row)
		}
	}
	e.visible = visible
	e.sortVisible(scores)
	e.logger.Debug("filter recomputed",
		"text", e.text,
		"visible", len(e.visible),
		"total", len(e.rows),
	)
	e.notify()
}

// Close cancels any pending recomputation. A recomputation already
// dispatched to the owner becomes a no-op.
func (e *Engine) Close() {
	e.closed = true
	e.debouncer.Close()
}

func (e *Engine) substringMatch(row Row, query string) bool {
	for _, cell := range e.cells(row) {
		if strings.Contains(strings.ToLower(cell), query) {
			return true
		}
	}
	return false
}

// cells returns the texts tested against the filter.
func (e *Engine) cells(row Row) []string {
	if len(e.columns) == 0 {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell)
		}
		return cells
	}
	cells := make([]string, 0, len(e.columns))
	for _, column := range e.columns {
		cells = append(cells, row.Cell(column))
	}
	return cells
}

func (e *Engine) sortVisible(scores map[int64]int) {
	column := e.sortColumn
	compare := func(a, b Row) int {
		if column != "" {
			if order := compareCells(a.Cell(column), b.Cell(column)); order != 0 {
				return order
			}
		} else if scores != nil {
			// Higher score first.
			if order := cmp.Compare(scores[b.ID], scores[a.ID]); order != 0 {
				return order
			}
		}
		return cmp.Compare(a.ID, b.ID)
	}
	slices.SortStableFunc(e.visible, func(a, b Row) int {
		if e.descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// compareCells orders integers numerically, everything else as
// case-folded text. Integers sort before text.
func compareCells(a, b string) int {
	aNumber, aErr := strconv.ParseInt(a, 10, 64)
	bNumber, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(aNumber, bNumber)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange(e.Visible())
	}
}
