// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package editors provides the related-record editors that answer a
// session's OpenRelated requests.
//
// Each editor runs its own nested session on the related table, so
// the records it creates get the same validation and modification
// stamps as records created interactively.
package editors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/kinship/lib/cascade"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/clock"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/session"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Config is shared by every editor.
type Config struct {
	Store    tablestore.Store
	Registry *cascade.Registry
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Subscribe registers a DependentEditor for every multi-record
// dependent table and a ReferenceEditor for every owner table. The
// request kind is the table name.
func Subscribe(bus *eventbus.Bus, config Config) error {
	for _, table := range catalog.Dependents() {
		if table.Single {
			// Restrictions and modification stamps belong to the
			// session itself.
			continue
		}
		editor, err := NewDependentEditor(table.Name, config)
		if err != nil {
			return err
		}
		bus.Subscribe(eventbus.Kind(table.Name), "dependent:"+table.Name, editor)
	}
	for _, table := range catalog.Owners() {
		editor, err := NewReferenceEditor(table.Name, config)
		if err != nil {
			return err
		}
		bus.Subscribe(eventbus.Kind(table.Name), "reference:"+table.Name, editor)
	}
	return nil
}

// DependentEditor creates a dependent record, such as a note, that
// references the requesting record. Request.Fields holds its values.
type DependentEditor struct {
	table  catalog.Table
	config Config
}

// NewDependentEditor returns an editor for a dependent catalog table.
func NewDependentEditor(table string, config Config) (*DependentEditor, error) {
	described, ok := catalog.Lookup(table)
	if !ok || !described.Dependent {
		return nil, fmt.Errorf("editors: %q is not a dependent table", table)
	}
	return &DependentEditor{table: described, config: withDefaults(config)}, nil
}

func (e *DependentEditor) HandleRequest(ctx context.Context, request eventbus.Request) error {
	values := request.Fields.Clone()
	if values == nil {
		values = record.Record{}
	}
	values.SetReference(request.Reference)
	id, err := create(ctx, e.table, values, e.config)
	if err != nil {
		return err
	}
	e.config.Logger.Info("dependent record attached",
		"table", e.table.Name,
		"id", id,
		"owner", request.Reference.String(),
	)
	return nil
}

// ReferenceEditor fills a link field of the requesting record. With
// an "id" in Request.Fields it links that existing record; otherwise
// it creates a record from Request.Fields. The new or existing ID is
// written back through Request.Complete into Request.Field, or
// "<table>_id" when Field is empty.
type ReferenceEditor struct {
	table  catalog.Table
	config Config
}

// NewReferenceEditor returns an editor for an owner catalog table.
func NewReferenceEditor(table string, config Config) (*ReferenceEditor, error) {
	described, ok := catalog.Lookup(table)
	if !ok || described.Dependent {
		return nil, fmt.Errorf("editors: %q is not an owner table", table)
	}
	return &ReferenceEditor{table: described, config: withDefaults(config)}, nil
}

func (e *ReferenceEditor) HandleRequest(ctx context.Context, request eventbus.Request) error {
	if request.Complete == nil {
		return errors.New("editors: reference request accepts no write-back")
	}
	field := request.Field
	if field == "" {
		field = e.table.Name + "_id"
	}

	values := request.Fields.Clone()
	var id int64
	if existing, ok := values.ID(); ok {
		if _, err := e.config.Store.Get(ctx, e.table.Name, existing); err != nil {
			return fmt.Errorf("editors: linking %s: %w", field, err)
		}
		id = existing
	} else {
		created, err := create(ctx, e.table, values, e.config)
		if err != nil {
			return err
		}
		id = created
	}

	request.Complete(field, id)
	e.config.Logger.Info("reference filled",
		"owner", request.Reference.String(),
		"field", field,
		"target", record.Reference{Table: e.table.Name, ID: id}.String(),
	)
	return nil
}

// create inserts a record into table through a nested session. The
// values are checked on a draft form first so a rejected request
// leaves nothing behind.
func create(ctx context.Context, table catalog.Table, values record.Record, config Config) (int64, error) {
	draft := form.New(table)
	for _, name := range values.Fields() {
		if err := draft.Set(name, values[name]); err != nil {
			return 0, err
		}
	}
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	hooks := form.New(table)
	controller, err := session.New(ctx, session.Config{
		Table:    table.Name,
		Store:    config.Store,
		Hooks:    hooks,
		Registry: config.Registry,
		Columns:  table.Columns,
		Clock:    config.Clock,
		Logger:   config.Logger,
	})
	if err != nil {
		return 0, err
	}
	id, err := controller.NewRecord(ctx)
	if err != nil {
		controller.Dispose()
		return 0, err
	}
	for name, value := range draft.Values() {
		if err := hooks.Set(name, value); err != nil {
			controller.Dispose()
			return 0, err
		}
	}
	if err := controller.Close(ctx); err != nil {
		if deleteErr := controller.Delete(ctx); deleteErr != nil {
			err = errors.Join(err, deleteErr)
		}
		controller.Dispose()
		return 0, err
	}
	return id, nil
}

func withDefaults(config Config) Config {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Registry == nil {
		config.Registry = catalog.Registry()
	}
	return config
}
