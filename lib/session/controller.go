// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session implements the record-edit session controller that
// every editing surface is built on.
//
// A [Controller] is bound to one table. It is either in the
// NoSelection state or has one selected record, of which it keeps a
// working copy and a structural fingerprint taken at selection time.
// Moving the selection, creating a record or closing the session first
// commits the working copy: the hooks validate and write their fields,
// and if the fingerprint changed the record is stored and its
// modification stamp is created or updated. A failed validation stops
// the operation and leaves the selection where it was.
//
// Deleting the selected record also removes its dependents (notes,
// restrictions, modification stamp and the like) as declared in the
// cascade registry.
//
// A Controller has exactly one owner goroutine and takes no locks.
// The one asynchronous piece, the debounced list filter, hands its
// recomputation back to the owner through Config.Dispatch; [Loop]
// provides such an owner for interactive use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/kinship/lib/cascade"
	"github.com/bureau-foundation/kinship/lib/clock"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/filter"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Default dependent table names.
const (
	DefaultModificationTable = "modification"
	DefaultRestrictionTable  = "restriction"
)

// State is the selection state of a Controller.
type State int

const (
	// NoSelection: no record is loaded into the hooks.
	NoSelection State = iota
	// Selected: one record is loaded and may be edited.
	Selected
)

func (s State) String() string {
	if s == Selected {
		return "selected"
	}
	return "no-selection"
}

// Config configures a Controller.
type Config struct {
	// Table is the table the session edits. Required.
	Table string

	// Store holds the tables. Required.
	Store tablestore.Store

	// Hooks binds the surface's fields. Required.
	Hooks Hooks

	// Registry lists the dependents removed on delete. Nil removes
	// no dependents.
	Registry *cascade.Registry

	// Columns are the list columns, also indexed by the filter.
	Columns []string

	// Clock stamps modification records and drives the filter
	// debounce. Nil means clock.Real().
	Clock clock.Clock

	// Dispatch runs debounced filter recomputations on the owner.
	// Nil leaves them pending for FlushFilter, except under a
	// clock.FakeClock, whose Advance runs them on the caller.
	Dispatch func(func())

	// FilterDelay is the filter's quiet interval. Zero uses the
	// debounce default.
	FilterDelay time.Duration

	// FuzzyFilter selects fuzzy instead of substring filtering.
	FuzzyFilter bool

	// RestrictionOff chooses how ToggleRestriction(false) clears a
	// restriction.
	RestrictionOff RestrictionOff

	// Bus receives OpenRelated requests. Optional.
	Bus *eventbus.Bus

	// ModificationTable and RestrictionTable name the dependent
	// tables for stamps and restrictions. Empty uses the defaults.
	ModificationTable string
	RestrictionTable  string

	// OnListChange, if set, receives the visible rows whenever they
	// change.
	OnListChange func(visible []filter.Row)

	Logger *slog.Logger
}

// Controller is a record-edit session over one table.
type Controller struct {
	table             string
	store             tablestore.Store
	hooks             Hooks
	registry          *cascade.Registry
	columns           []string
	clock             clock.Clock
	bus               *eventbus.Bus
	restrictionOff    RestrictionOff
	modificationTable string
	restrictionTable  string
	logger            *slog.Logger

	list *filter.Engine

	state    State
	working  record.Record
	snapshot record.Fingerprint
	closed   bool
}

// New creates a controller for config.Table and loads its rows into
// the list. The session starts with no selection.
func New(ctx context.Context, config Config) (*Controller, error) {
	if config.Table == "" {
		return nil, errors.New("session: Config.Table is required")
	}
	if config.Store == nil {
		return nil, errors.New("session: Config.Store is required")
	}
	if config.Hooks == nil {
		return nil, errors.New("session: Config.Hooks is required")
	}
	if config.Registry == nil {
		config.Registry = cascade.NewRegistry()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.ModificationTable == "" {
		config.ModificationTable = DefaultModificationTable
	}
	if config.RestrictionTable == "" {
		config.RestrictionTable = DefaultRestrictionTable
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("table", config.Table)

	controller := &Controller{
		table:             config.Table,
		store:             config.Store,
		hooks:             config.Hooks,
		registry:          config.Registry,
		columns:           config.Columns,
		clock:             config.Clock,
		bus:               config.Bus,
		restrictionOff:    config.RestrictionOff,
		modificationTable: config.ModificationTable,
		restrictionTable:  config.RestrictionTable,
		logger:            logger,
	}
	controller.list = filter.New(filter.Config{
		Columns:  config.Columns,
		Clock:    config.Clock,
		Delay:    config.FilterDelay,
		Dispatch: config.Dispatch,
		Fuzzy:    config.FuzzyFilter,
		OnChange: config.OnListChange,
		Logger:   logger,
	})
	if err := controller.Refresh(ctx); err != nil {
		return nil, err
	}
	return controller, nil
}

// Table returns the name of the table the session edits.
func (c *Controller) Table() string { return c.table }

// State returns the selection state.
func (c *Controller) State() State { return c.state }

// Selected returns a copy of the working record.
func (c *Controller) Selected() (record.Record, bool) {
	if c.state != Selected {
		return nil, false
	}
	return c.working.Clone(), true
}

// SelectedID returns the ID of the selected record.
func (c *Controller) SelectedID() (int64, bool) {
	if c.state != Selected {
		return 0, false
	}
	return c.working.ID()
}

// Snapshot returns the fingerprint of the selected record as of its
// selection or last commit.
func (c *Controller) Snapshot() record.Fingerprint { return c.snapshot }

// Refresh reloads every row of the table into the list and re-applies
// the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	records, err := c.store.List(ctx, c.table)
	if err != nil {
		return fmt.Errorf("session: listing %s: %w", c.table, err)
	}
	rows := make([]filter.Row, len(records))
	for i, rec := range records {
		rows[i] = filter.RowOf(rec, c.columns)
	}
	c.list.SetRows(rows)
	return nil
}

// Select commits the current selection and loads record id. A
// validation failure returns a *ValidationError and keeps the current
// selection. A missing record leaves no selection and returns an
// error wrapping ErrMissingRecord.
func (c *Controller) Select(ctx context.Context, id int64) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.Commit(ctx); err != nil {
		return err
	}

	rec, err := c.store.Get(ctx, c.table, id)
	if err != nil {
		if errors.Is(err, tablestore.ErrNotFound) {
			c.logger.Warn("selected record is missing", "id", id)
			c.clearSelection()
			return fmt.Errorf("%w: %s/%d: %w", ErrMissingRecord, c.table, id, err)
		}
		return fmt.Errorf("session: loading %s/%d: %w", c.table, id, err)
	}
	// The snapshot is taken from the record as the hooks write it back
	// untouched, so a value the hooks only re-type is no edit.
	c.hooks.FillFields(rec.Clone())
	baseline := rec.Clone()
	c.hooks.WriteFields(baseline)
	fingerprint, err := record.FingerprintOf(baseline)
	if err != nil {
		c.clearSelection()
		return err
	}

	c.working = rec
	c.snapshot = fingerprint
	c.state = Selected
	c.logger.Debug("record selected", "id", id, "snapshot", fingerprint.Short())
	return nil
}

// Commit writes the working record back if the hooks changed it. It
// is a no-op without a selection. A validation failure returns a
// *ValidationError and writes nothing. When the record changed it is
// stored and its modification stamp is created (first commit) or
// updated.
func (c *Controller) Commit(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != Selected {
		return nil
	}
	id, _ := c.working.ID()
	if err := c.hooks.Validate(); err != nil {
		c.logger.Info("commit rejected by validation", "id", id, "error", err)
		return &ValidationError{Table: c.table, ID: id, Err: err}
	}

	candidate := c.working.Clone()
	c.hooks.WriteFields(candidate)
	fingerprint, err := record.FingerprintOf(candidate)
	if err != nil {
		return err
	}
	if fingerprint == c.snapshot {
		return nil
	}

	if err := c.store.Put(ctx, c.table, candidate); err != nil {
		return fmt.Errorf("session: storing %s/%d: %w", c.table, id, err)
	}
	c.working = candidate
	c.list.UpdateRow(filter.RowOf(candidate, c.columns))
	if err := c.stamp(ctx, record.Reference{Table: c.table, ID: id}); err != nil {
		return err
	}
	c.logger.Debug("record committed",
		"id", id,
		"from", c.snapshot.Short(),
		"to", fingerprint.Short(),
	)
	c.snapshot = fingerprint
	return nil
}

// Save is Commit under the name the surfaces use for an explicit save.
func (c *Controller) Save(ctx context.Context) error {
	return c.Commit(ctx)
}

// NewRecord commits the current selection, inserts a bare record with
// the table's next ID, appends it to the list and selects it.
func (c *Controller) NewRecord(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if err := c.Commit(ctx); err != nil {
		return 0, err
	}
	id, err := c.store.NextID(ctx, c.table)
	if err != nil {
		return 0, fmt.Errorf("session: allocating %s id: %w", c.table, err)
	}
	return id, c.insert(ctx, id)
}

// InsertRecord is NewRecord with a caller-chosen ID, for records that
// arrive with one (imports). An ID already in the table is an error.
func (c *Controller) InsertRecord(ctx context.Context, id int64) error {
	if c.closed {
		return ErrClosed
	}
	if id <= 0 {
		return fmt.Errorf("session: %s id %d is not positive", c.table, id)
	}
	if err := c.Commit(ctx); err != nil {
		return err
	}
	_, err := c.store.Get(ctx, c.table, id)
	if err == nil {
		return fmt.Errorf("session: %s/%d already exists", c.table, id)
	}
	if !errors.Is(err, tablestore.ErrNotFound) {
		return fmt.Errorf("session: checking %s/%d: %w", c.table, id, err)
	}
	return c.insert(ctx, id)
}

func (c *Controller) insert(ctx context.Context, id int64) error {
	rec := record.New(id)
	if err := c.store.Put(ctx, c.table, rec); err != nil {
		return fmt.Errorf("session: inserting %s/%d: %w", c.table, id, err)
	}
	c.list.AppendRow(filter.RowOf(rec, c.columns))
	c.logger.Info("record created", "id", id)
	return c.Select(ctx, id)
}

// Delete removes the selected record and every dependent registered
// for the table, then clears the selection. Uncommitted edits are
// discarded. A failure while sweeping dependents returns the
// *cascade.Error; removals already made are kept.
func (c *Controller) Delete(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != Selected {
		return ErrNoSelection
	}
	id, _ := c.working.ID()
	c.clearSelection()
	c.list.RemoveRow(id)

	if err := c.store.Remove(ctx, c.table, id); err != nil {
		return fmt.Errorf("session: removing %s/%d: %w", c.table, id, err)
	}
	report, err := c.registry.Sweep(ctx, c.store, record.Reference{Table: c.table, ID: id})
	if err != nil {
		c.logger.Error("cascade stopped part way", "id", id, "removed", report.Count(), "error", err)
		return err
	}
	c.logger.Info("record deleted", "id", id, "dependents", report.Count())
	return nil
}

// OpenRelated publishes a request for the related editor of kind. A
// handler may call the request's Complete to set a field of the
// working record; the value is committed with the next commit.
func (c *Controller) OpenRelated(ctx context.Context, kind eventbus.Kind, field string, fields record.Record) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != Selected {
		return ErrNoSelection
	}
	if c.bus == nil {
		return ErrNoBus
	}
	id, _ := c.working.ID()
	return c.bus.Publish(ctx, eventbus.Request{
		Kind:      kind,
		Reference: record.Reference{Table: c.table, ID: id},
		Field:     field,
		Fields:    fields,
		Complete:  c.complete,
	})
}

// complete writes a related editor's result into the working record
// and reloads the hooks so the value shows and is written back.
func (c *Controller) complete(field string, value any) {
	if c.state != Selected {
		c.logger.Warn("related editor completed without a selection", "field", field)
		return
	}
	normalized, err := record.Normalize(value)
	if err != nil {
		c.logger.Warn("related editor returned an unusable value", "field", field, "error", err)
		return
	}
	c.hooks.WriteFields(c.working)
	c.working[field] = normalized
	c.hooks.FillFields(c.working.Clone())
}

// SetFilterText schedules a debounced recomputation of the list.
func (c *Controller) SetFilterText(text string) { c.list.SetFilterText(text) }

// FilterText returns the filter text.
func (c *Controller) FilterText() string { return c.list.FilterText() }

// SetSort orders the list by column.
func (c *Controller) SetSort(column string, descending bool) { c.list.SetSort(column, descending) }

// Visible returns the list rows in display order.
func (c *Controller) Visible() []filter.Row { return c.list.Visible() }

// FlushFilter applies pending filter text immediately.
func (c *Controller) FlushFilter() bool { return c.list.Flush() }

// Close commits the selection and shuts the session down. A
// validation failure returns a *ValidationError and leaves the
// session open so the user can correct or discard the edit.
func (c *Controller) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	if err := c.Commit(ctx); err != nil {
		return err
	}
	c.shutdown()
	c.logger.Debug("session closed")
	return nil
}

// Dispose shuts the session down discarding uncommitted edits.
func (c *Controller) Dispose() {
	if c.closed {
		return
	}
	c.shutdown()
	c.logger.Debug("session disposed")
}

func (c *Controller) shutdown() {
	c.list.Close()
	c.clearSelection()
	c.closed = true
}

func (c *Controller) clearSelection() {
	c.hooks.ClearFields()
	c.working = nil
	c.snapshot = record.Fingerprint{}
	c.state = NoSelection
}

// stamp creates the owner's modification record, or sets its
// update_date if one exists.
func (c *Controller) stamp(ctx context.Context, owner record.Reference) error {
	now := record.FormatTimestamp(c.clock.Now())
	existing, err := c.store.FindByReference(ctx, c.modificationTable, owner)
	if err != nil {
		return fmt.Errorf("session: finding modification of %s: %w", owner, err)
	}
	if len(existing) > 0 {
		if len(existing) > 1 {
			c.logger.Warn("owner has several modification records", "owner", owner.String(), "count", len(existing))
		}
		modification := existing[0]
		modification[record.FieldUpdateDate] = now
		if err := c.store.Put(ctx, c.modificationTable, modification); err != nil {
			return fmt.Errorf("session: updating modification of %s: %w", owner, err)
		}
		return nil
	}

	id, err := c.store.NextID(ctx, c.modificationTable)
	if err != nil {
		return fmt.Errorf("session: allocating modification id: %w", err)
	}
	modification := record.New(id)
	modification.SetReference(owner)
	modification[record.FieldCreationDate] = now
	if err := c.store.Put(ctx, c.modificationTable, modification); err != nil {
		return fmt.Errorf("session: creating modification of %s: %w", owner, err)
	}
	return nil
}
