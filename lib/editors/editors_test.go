// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editors

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/session"
	"github.com/bureau-foundation/kinship/lib/tablestore"
	"github.com/bureau-foundation/kinship/lib/testutil"
)

func TestReferenceEditorCreatesAndLinks(t *testing.T) {
	ctx := context.Background()
	env := newEnvironment(t)
	env.put(catalog.Date, record.Record{"id": int64(1), "date": "30 March 1851"})
	dates := env.session(t, catalog.Date)
	if err := dates.controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}

	err := dates.controller.OpenRelated(ctx, catalog.Calendar, "calendar_id", record.Record{"name": "Gregorian"})
	if err != nil {
		t.Fatalf("OpenRelated: %v", err)
	}

	calendar, err := env.store.Get(ctx, catalog.Calendar, 1)
	if err != nil {
		t.Fatalf("calendar not created: %v", err)
	}
	if calendar["name"] != "Gregorian" {
		t.Errorf("calendar = %v", calendar)
	}
	stamps, _ := env.store.FindByReference(ctx, catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})
	if len(stamps) != 1 {
		t.Errorf("created calendar has %d modification records, want 1", len(stamps))
	}

	if value, _ := dates.form.Value("calendar_id"); value != int64(1) {
		t.Errorf("form calendar_id = %v, want 1", value)
	}
	if err := dates.controller.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	date, _ := env.store.Get(ctx, catalog.Date, 1)
	if date["calendar_id"] != int64(1) {
		t.Errorf("stored date = %v, want calendar_id 1", date)
	}
}

func TestReferenceEditorDefaultFieldAndExistingID(t *testing.T) {
	ctx := context.Background()
	env := newEnvironment(t)
	env.put(catalog.Date, record.Record{"id": int64(1), "date": "1851"})
	env.put(catalog.Calendar, record.Record{"id": int64(4), "name": "Julian"})
	dates := env.session(t, catalog.Date)
	if err := dates.controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}

	if err := dates.controller.OpenRelated(ctx, catalog.Calendar, "", record.Record{"id": int64(4)}); err != nil {
		t.Fatalf("OpenRelated: %v", err)
	}
	if value, _ := dates.form.Value("calendar_id"); value != int64(4) {
		t.Errorf("form calendar_id = %v, want 4", value)
	}
	if records, _ := env.store.List(ctx, catalog.Calendar); len(records) != 1 {
		t.Errorf("linking an existing calendar created records: %v", records)
	}

	err := dates.controller.OpenRelated(ctx, catalog.Calendar, "", record.Record{"id": int64(99)})
	if !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("linking a missing calendar = %v, want ErrNotFound", err)
	}
}

func TestReferenceEditorRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	env := newEnvironment(t)
	env.put(catalog.Date, record.Record{"id": int64(1), "date": "1851"})
	dates := env.session(t, catalog.Date)
	if err := dates.controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}

	// Calendar name is required.
	err := dates.controller.OpenRelated(ctx, catalog.Calendar, "calendar_id", record.Record{"description": "lunar"})
	var fieldError *form.FieldError
	if !errors.As(err, &fieldError) || fieldError.Field != "name" {
		t.Fatalf("OpenRelated = %v, want FieldError on name", err)
	}
	err = dates.controller.OpenRelated(ctx, catalog.Calendar, "calendar_id", record.Record{"colour": "red"})
	if !errors.Is(err, form.ErrUnknownField) {
		t.Errorf("OpenRelated with unknown field = %v", err)
	}

	if records, _ := env.store.List(ctx, catalog.Calendar); len(records) != 0 {
		t.Errorf("rejected requests left calendars behind: %v", records)
	}
	if _, present := dates.form.Value("calendar_id"); present {
		t.Error("rejected request wrote back a value")
	}
}

func TestDependentEditorAttachesNote(t *testing.T) {
	ctx := context.Background()
	env := newEnvironment(t)
	env.put(catalog.Person, record.Record{"id": int64(3)})
	people := env.session(t, catalog.Person)
	if err := people.controller.Select(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if err := people.controller.OpenRelated(ctx, catalog.Note, "", record.Record{"text": "emigrated 1872"}); err != nil {
		t.Fatalf("OpenRelated: %v", err)
	}
	owner := record.Reference{Table: catalog.Person, ID: 3}
	notes, err := env.store.FindByReference(ctx, catalog.Note, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0]["text"] != "emigrated 1872" {
		t.Fatalf("notes = %v", notes)
	}

	// The person itself is untouched by attaching a note.
	if stamps, _ := env.store.FindByReference(ctx, catalog.Modification, owner); len(stamps) != 0 {
		t.Errorf("attaching a note stamped the owner: %v", stamps)
	}

	// Deleting the person removes the note. The sweep is one level
	// deep, so the note's own stamp stays.
	noteID, _ := notes[0].ID()
	if err := people.controller.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if remaining, _ := env.store.FindByReference(ctx, catalog.Note, owner); len(remaining) != 0 {
		t.Errorf("notes survived their owner: %v", remaining)
	}
	noteStamps, _ := env.store.FindByReference(ctx, catalog.Modification, record.Reference{Table: catalog.Note, ID: noteID})
	if len(noteStamps) != 1 {
		t.Errorf("note stamps after owner delete = %v, want the one created with the note", noteStamps)
	}
}

func TestDependentEditorRequiresText(t *testing.T) {
	ctx := context.Background()
	env := newEnvironment(t)
	env.put(catalog.Place, record.Record{"id": int64(2), "name": "Whitby"})
	places := env.session(t, catalog.Place)
	if err := places.controller.Select(ctx, 2); err != nil {
		t.Fatal(err)
	}

	err := places.controller.OpenRelated(ctx, catalog.Note, "", nil)
	var fieldError *form.FieldError
	if !errors.As(err, &fieldError) || fieldError.Field != "text" {
		t.Fatalf("OpenRelated = %v, want FieldError on text", err)
	}
	if records, _ := env.store.List(ctx, catalog.Note); len(records) != 0 {
		t.Errorf("rejected note was stored: %v", records)
	}
}

func TestEditorConstructors(t *testing.T) {
	if _, err := NewDependentEditor(catalog.Person, Config{}); err == nil {
		t.Error("NewDependentEditor accepted an owner table")
	}
	if _, err := NewReferenceEditor(catalog.Note, Config{}); err == nil {
		t.Error("NewReferenceEditor accepted a dependent table")
	}
	if _, err := NewReferenceEditor("spaceship", Config{}); err == nil {
		t.Error("NewReferenceEditor accepted an unknown table")
	}
}

func TestSubscribeKinds(t *testing.T) {
	bus := eventbus.New(nil)
	if err := Subscribe(bus, Config{Store: tablestore.NewMemoryStore()}); err != nil {
		t.Fatal(err)
	}
	kinds := map[eventbus.Kind]bool{}
	for _, kind := range bus.Kinds() {
		kinds[kind] = true
	}
	for _, want := range []string{catalog.Note, catalog.MediaJunction, catalog.Calendar, catalog.Place} {
		if !kinds[eventbus.Kind(want)] {
			t.Errorf("no editor subscribed for %s", want)
		}
	}
	for _, unwanted := range []string{catalog.Restriction, catalog.Modification} {
		if kinds[eventbus.Kind(unwanted)] {
			t.Errorf("editor subscribed for session-owned table %s", unwanted)
		}
	}
}

// --- Helpers ---

type environment struct {
	t     *testing.T
	store *tablestore.MemoryStore
	bus   *eventbus.Bus
}

type editingSession struct {
	controller *session.Controller
	form       *form.Form
}

func newEnvironment(t *testing.T) *environment {
	t.Helper()
	env := &environment{
		t:     t,
		store: tablestore.NewMemoryStore(),
		bus:   eventbus.New(nil),
	}
	if err := Subscribe(env.bus, Config{Store: env.store, Clock: testutil.FakeClock()}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	return env
}

func (env *environment) put(table string, rec record.Record) {
	env.t.Helper()
	if err := env.store.Put(context.Background(), table, rec); err != nil {
		env.t.Fatalf("Put(%s): %v", table, err)
	}
}

func (env *environment) session(t *testing.T, table string) editingSession {
	t.Helper()
	hooks, err := form.ForTable(table)
	if err != nil {
		t.Fatal(err)
	}
	controller, err := session.New(context.Background(), session.Config{
		Table:    table,
		Store:    env.store,
		Hooks:    hooks,
		Registry: catalog.Registry(),
		Clock:    testutil.FakeClock(),
		Bus:      env.bus,
	})
	if err != nil {
		t.Fatalf("session.New(%s): %v", table, err)
	}
	t.Cleanup(controller.Dispose)
	return editingSession{controller: controller, form: hooks}
}
