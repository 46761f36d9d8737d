// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bureau-foundation/kinship/lib/cascade"
	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/clock"
	"github.com/bureau-foundation/kinship/lib/eventbus"
	"github.com/bureau-foundation/kinship/lib/form"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/tablestore"
	"github.com/bureau-foundation/kinship/lib/testutil"
)

// TestAssertionEditingScenario walks the life of an assertion through
// one session: create, fill, navigate away (creation stamp), edit
// (update stamp), delete (record, dependents and list row removed).
func TestAssertionEditingScenario(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Assertion)
	fixture.put(catalog.Assertion, record.Record{"id": int64(1), "citation_id": int64(9), "role": "principal"})
	controller := fixture.open(t)
	assertVisibleIDs(t, controller, 1)

	id, err := controller.NewRecord(ctx)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if id != 2 {
		t.Fatalf("NewRecord id = %d, want 2", id)
	}
	assertVisibleIDs(t, controller, 1, 2)
	if selected, _ := controller.SelectedID(); selected != 2 {
		t.Fatalf("selected = %d after NewRecord, want 2", selected)
	}

	mustSet(t, fixture.form, "citation_id", int64(5))

	// Navigating away commits the new record and stamps its creation.
	if err := controller.Select(ctx, 1); err != nil {
		t.Fatalf("Select(1): %v", err)
	}
	stored := fixture.get(catalog.Assertion, 2)
	if stored["citation_id"] != int64(5) {
		t.Fatalf("stored assertion = %v, want citation_id 5", stored)
	}
	modification := fixture.single(catalog.Modification, record.Reference{Table: catalog.Assertion, ID: 2})
	if modification.String(record.FieldCreationDate) != record.FormatTimestamp(testutil.Epoch) {
		t.Errorf("creation_date = %v, want %s", modification[record.FieldCreationDate], record.FormatTimestamp(testutil.Epoch))
	}
	if _, present := modification[record.FieldUpdateDate]; present {
		t.Error("first commit set update_date")
	}

	// Record 1 was loaded and left unchanged: no stamp.
	if err := controller.Select(ctx, 2); err != nil {
		t.Fatalf("Select(2): %v", err)
	}
	fixture.none(catalog.Modification, record.Reference{Table: catalog.Assertion, ID: 1})
	if fixture.form.Values()["citation_id"] != int64(5) {
		t.Errorf("form after reselect = %v", fixture.form.Values())
	}

	// An edit updates the existing stamp.
	fixture.clock.Advance(time.Minute)
	mustSet(t, fixture.form, "role", "witness")
	if err := controller.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	modification = fixture.single(catalog.Modification, record.Reference{Table: catalog.Assertion, ID: 2})
	if modification.String(record.FieldUpdateDate) != record.FormatTimestamp(testutil.Epoch.Add(time.Minute)) {
		t.Errorf("update_date = %v", modification[record.FieldUpdateDate])
	}
	if modification.String(record.FieldCreationDate) != record.FormatTimestamp(testutil.Epoch) {
		t.Errorf("update changed creation_date to %v", modification[record.FieldCreationDate])
	}
	if row := controller.Visible()[1]; row.Cell("role") != "witness" {
		t.Errorf("list row not refreshed after commit: %v", row)
	}

	// Dependents of record 2, plus one belonging to record 1.
	owner := record.Reference{Table: catalog.Assertion, ID: 2}
	fixture.putDependent(catalog.Note, 1, owner)
	fixture.putDependent(catalog.Note, 2, owner)
	fixture.putDependent(catalog.Note, 3, record.Reference{Table: catalog.Assertion, ID: 1})
	if err := controller.ToggleRestriction(ctx, true); err != nil {
		t.Fatalf("ToggleRestriction: %v", err)
	}

	if err := controller.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fixture.store.Get(ctx, catalog.Assertion, 2); !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("deleted assertion still stored: %v", err)
	}
	fixture.none(catalog.Modification, owner)
	fixture.none(catalog.Note, owner)
	fixture.none(catalog.Restriction, owner)
	fixture.single(catalog.Note, record.Reference{Table: catalog.Assertion, ID: 1})
	assertVisibleIDs(t, controller, 1)
	if controller.State() != NoSelection {
		t.Errorf("state after Delete = %v", controller.State())
	}
	if len(fixture.form.Values()) != 0 {
		t.Errorf("form not cleared after Delete: %v", fixture.form.Values())
	}
}

func TestCommitWithoutChangesDoesNotStamp(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	fixture.put(catalog.Calendar, record.Record{"id": int64(1), "name": "Gregorian"})
	controller := fixture.open(t)

	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := controller.Commit(ctx); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	fixture.none(catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})

	mustSet(t, fixture.form, "name", "Julian")
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	first := fixture.single(catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})

	fixture.clock.Advance(time.Hour)
	for range 2 {
		if err := controller.Commit(ctx); err != nil {
			t.Fatal(err)
		}
	}
	second := fixture.single(catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})
	if _, present := second[record.FieldUpdateDate]; present {
		t.Errorf("unchanged commits set update_date: %v (was %v)", second, first)
	}

	// Setting a field back to the value it already holds is no change.
	mustSet(t, fixture.form, "name", "Julian")
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if _, present := fixture.single(catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})[record.FieldUpdateDate]; present {
		t.Error("rewriting an identical value stamped update_date")
	}
}

// An integral latitude stored as an integer (as JSONC import yields it)
// and re-entered as the same number is not an edit.
func TestReenteredNumberDoesNotStamp(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Place)
	fixture.put(catalog.Place, record.Record{"id": int64(1), "name": "Sevilla", "latitude": int64(37)})
	controller := fixture.open(t)
	owner := record.Reference{Table: catalog.Place, ID: 1}

	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := fixture.form.SetText("latitude", "37"); err != nil {
		t.Fatal(err)
	}
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	fixture.none(catalog.Modification, owner)
	if stored := fixture.get(catalog.Place, 1)["latitude"]; stored != int64(37) {
		t.Errorf("unchanged commit rewrote latitude as %#v", stored)
	}

	if err := fixture.form.SetText("latitude", "37.39"); err != nil {
		t.Fatal(err)
	}
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	fixture.single(catalog.Modification, owner)
	if stored := fixture.get(catalog.Place, 1)["latitude"]; stored != 37.39 {
		t.Errorf("latitude = %#v, want 37.39", stored)
	}
}

func TestValidationGateKeepsSelection(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Assertion)
	fixture.put(catalog.Assertion, record.Record{"id": int64(1), "citation_id": int64(3), "role": "principal"})
	fixture.put(catalog.Assertion, record.Record{"id": int64(2), "citation_id": int64(4)})
	controller := fixture.open(t)

	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	mustUnset(t, fixture.form, "citation_id")
	mustSet(t, fixture.form, "role", "changed")

	err := controller.Select(ctx, 2)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Select(2) = %v, want *ValidationError", err)
	}
	var fieldErr *form.FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "citation_id" {
		t.Errorf("validation error does not name citation_id: %v", err)
	}
	if validationErr.ID != 1 {
		t.Errorf("ValidationError.ID = %d, want 1", validationErr.ID)
	}

	if id, _ := controller.SelectedID(); id != 1 {
		t.Errorf("selection moved to %d despite failed validation", id)
	}
	stored := fixture.get(catalog.Assertion, 1)
	if stored["role"] != "principal" || stored["citation_id"] != int64(3) {
		t.Errorf("failed validation modified the table: %v", stored)
	}
	if value, _ := fixture.form.Value("role"); value != "changed" {
		t.Errorf("edit lost after failed validation: role = %v", value)
	}

	// The same gate guards NewRecord and Close.
	if _, err := controller.NewRecord(ctx); !errors.As(err, &validationErr) {
		t.Errorf("NewRecord = %v, want *ValidationError", err)
	}
	if next, _ := fixture.store.NextID(ctx, catalog.Assertion); next != 3 {
		t.Errorf("NewRecord inserted a record despite failed validation")
	}
	if err := controller.Close(ctx); !errors.As(err, &validationErr) {
		t.Errorf("Close = %v, want *ValidationError", err)
	}
	if controller.State() != Selected {
		t.Fatal("failed Close dropped the selection")
	}

	// Correcting the field lets the navigation through.
	mustSet(t, fixture.form, "citation_id", int64(8))
	if err := controller.Select(ctx, 2); err != nil {
		t.Fatalf("Select(2) after correction: %v", err)
	}
	if fixture.get(catalog.Assertion, 1)["citation_id"] != int64(8) {
		t.Error("corrected record was not committed")
	}
}

func TestSelectMissingRecord(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	fixture.put(catalog.Calendar, record.Record{"id": int64(1), "name": "Gregorian"})
	controller := fixture.open(t)

	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	mustSet(t, fixture.form, "name", "Hebrew")

	err := controller.Select(ctx, 99)
	if !errors.Is(err, ErrMissingRecord) || !errors.Is(err, tablestore.ErrNotFound) {
		t.Fatalf("Select(99) = %v, want ErrMissingRecord wrapping ErrNotFound", err)
	}
	if controller.State() != NoSelection {
		t.Errorf("state = %v, want no-selection", controller.State())
	}
	if fixture.get(catalog.Calendar, 1)["name"] != "Hebrew" {
		t.Error("previous record was not committed before the failed load")
	}
	if fixture.logs.Find(t, slog.LevelWarn, "selected record is missing") == nil {
		t.Error("missing record was not logged as a warning")
	}

	// The caller falls back to a new record.
	id, err := controller.NewRecord(ctx)
	if err != nil || id != 2 {
		t.Fatalf("NewRecord = %d, %v", id, err)
	}
}

func TestNoSelectionOperations(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	controller := fixture.open(t)

	if err := controller.Commit(ctx); err != nil {
		t.Errorf("Commit without selection = %v, want nil", err)
	}
	if err := controller.Delete(ctx); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Delete = %v, want ErrNoSelection", err)
	}
	if err := controller.ToggleRestriction(ctx, true); !errors.Is(err, ErrNoSelection) {
		t.Errorf("ToggleRestriction = %v, want ErrNoSelection", err)
	}
	if err := controller.OpenRelated(ctx, "note", "", nil); !errors.Is(err, ErrNoSelection) {
		t.Errorf("OpenRelated = %v, want ErrNoSelection", err)
	}
	if _, ok := controller.Selected(); ok {
		t.Error("Selected() reported a record")
	}
}

func TestNewRecordOnEmptyTable(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	controller := fixture.open(t)

	id, err := controller.NewRecord(ctx)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	selected, ok := controller.Selected()
	if !ok || len(selected) != 1 {
		t.Errorf("new record = %v, want bare {id}", selected)
	}
	// A blank record is not stamped until it is changed.
	fixture.none(catalog.Modification, record.Reference{Table: catalog.Calendar, ID: 1})

	// Creating another commits the first, which is still blank and
	// would fail validation (name is required).
	if _, err := controller.NewRecord(ctx); err == nil {
		t.Error("NewRecord committed a blank calendar that lacks its required name")
	}
}

func TestInsertRecordKeepsListCurrent(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	fixture.put(catalog.Calendar, record.Record{"id": int64(1), "name": "Gregorian"})
	controller := fixture.open(t)

	if err := controller.InsertRecord(ctx, 5); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if id, _ := controller.SelectedID(); id != 5 {
		t.Errorf("selected %d, want 5", id)
	}
	assertVisibleIDs(t, controller, 1, 5)

	mustSet(t, fixture.form, "name", "Julian")
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if cell := controller.Visible()[1].Cell("name"); cell != "Julian" {
		t.Errorf("list row 5 name = %q after commit, want Julian", cell)
	}

	controller.SetFilterText("jul")
	controller.FlushFilter()
	assertVisibleIDs(t, controller, 5)

	if err := controller.InsertRecord(ctx, 1); err == nil {
		t.Error("InsertRecord accepted an id already in the table")
	}
	if err := controller.InsertRecord(ctx, 0); err == nil {
		t.Error("InsertRecord accepted id 0")
	}
	if id, _ := controller.SelectedID(); id != 5 {
		t.Errorf("failed inserts moved the selection to %d", id)
	}
}

func TestDeleteCascadeFailureIsReported(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Place)
	fixture.put(catalog.Place, record.Record{"id": int64(1), "name": "York"})
	owner := record.Reference{Table: catalog.Place, ID: 1}
	fixture.putDependent(catalog.Note, 1, owner)
	fixture.putDependent(catalog.MediaJunction, 1, owner)

	failure := errors.New("media index locked")
	store := &failingStore{Store: fixture.store, table: catalog.MediaJunction, err: failure}
	controller, err := New(ctx, Config{
		Table:    catalog.Place,
		Store:    store,
		Hooks:    fixture.form,
		Registry: catalog.Registry(),
		Clock:    fixture.clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}

	err = controller.Delete(ctx)
	var cascadeErr *cascade.Error
	if !errors.As(err, &cascadeErr) || !errors.Is(err, failure) {
		t.Fatalf("Delete = %v, want *cascade.Error wrapping the store failure", err)
	}
	if cascadeErr.Table != catalog.MediaJunction {
		t.Errorf("cascade error names %s", cascadeErr.Table)
	}
	// No rollback: the owner and the notes stay removed.
	if _, err := fixture.store.Get(ctx, catalog.Place, 1); !errors.Is(err, tablestore.ErrNotFound) {
		t.Error("owner survived a partial cascade")
	}
	fixture.none(catalog.Note, owner)
	fixture.single(catalog.MediaJunction, owner)
	if controller.State() != NoSelection {
		t.Error("selection kept after delete")
	}
}

func TestOpenRelatedWritesBackBeforeCommit(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Date)
	fixture.put(catalog.Date, record.Record{"id": int64(1), "date": "1850"})
	bus := eventbus.New(nil)
	bus.Subscribe("calendar", "test", eventbus.HandlerFunc(func(ctx context.Context, request eventbus.Request) error {
		if request.Reference != (record.Reference{Table: catalog.Date, ID: 1}) || request.Field != "calendar_id" {
			t.Errorf("request = %+v", request)
		}
		request.Complete(request.Field, 7)
		return nil
	}))
	controller, err := New(ctx, Config{
		Table: catalog.Date, Store: fixture.store, Hooks: fixture.form, Clock: fixture.clock, Bus: bus,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	mustSet(t, fixture.form, "qualification", "about")

	if err := controller.OpenRelated(ctx, "calendar", "calendar_id", nil); err != nil {
		t.Fatalf("OpenRelated: %v", err)
	}
	if value, _ := fixture.form.Value("calendar_id"); value != int64(7) {
		t.Errorf("form calendar_id = %#v, want 7", value)
	}
	if value, _ := fixture.form.Value("qualification"); value != "about" {
		t.Error("write-back discarded an uncommitted edit")
	}
	if _, present := fixture.get(catalog.Date, 1)["calendar_id"]; present {
		t.Error("write-back reached the table before a commit")
	}

	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	stored := fixture.get(catalog.Date, 1)
	if stored["calendar_id"] != int64(7) || stored["qualification"] != "about" {
		t.Errorf("stored date = %v", stored)
	}

	if err := controller.OpenRelated(ctx, "media", "", nil); !errors.Is(err, eventbus.ErrNoHandler) {
		t.Errorf("OpenRelated(media) = %v, want ErrNoHandler", err)
	}
}

func TestOpenRelatedWithoutBus(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	fixture.put(catalog.Calendar, record.Record{"id": int64(1), "name": "Julian"})
	controller := fixture.open(t)
	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := controller.OpenRelated(ctx, "note", "", nil); !errors.Is(err, ErrNoBus) {
		t.Errorf("OpenRelated = %v, want ErrNoBus", err)
	}
}

func TestFilterThroughController(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Place)
	for id, name := range map[int64]string{1: "York", 2: "New York", 3: "Leeds"} {
		fixture.put(catalog.Place, record.Record{"id": id, "name": name})
	}
	controller := fixture.open(t)

	controller.SetFilterText("york")
	assertVisibleIDs(t, controller, 1, 2, 3)
	fixture.clock.Advance(time.Second)
	assertVisibleIDs(t, controller, 1, 2)

	controller.SetSort("name", true)
	assertVisibleIDs(t, controller, 1, 2)
	controller.SetSort("name", false)
	assertVisibleIDs(t, controller, 2, 1)

	// The filter never touches the table.
	if records, _ := fixture.store.List(ctx, catalog.Place); len(records) != 3 {
		t.Errorf("table has %d places after filtering", len(records))
	}

	controller.SetFilterText("leeds")
	if err := controller.Close(ctx); err != nil {
		t.Fatal(err)
	}
	fixture.clock.Advance(time.Second)
	assertVisibleIDs(t, controller, 2, 1)
	if fixture.clock.PendingCount() != 0 {
		t.Error("Close left the filter timer armed")
	}
}

func TestCloseAndDispose(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Calendar)
	fixture.put(catalog.Calendar, record.Record{"id": int64(1), "name": "Julian"})

	controller := fixture.open(t)
	if err := controller.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	mustSet(t, fixture.form, "name", "Coptic")
	if err := controller.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fixture.get(catalog.Calendar, 1)["name"] != "Coptic" {
		t.Error("Close did not commit")
	}
	if controller.State() != NoSelection {
		t.Error("Close left a selection")
	}
	if err := controller.Select(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Select after Close = %v, want ErrClosed", err)
	}
	if err := controller.Close(ctx); err != nil {
		t.Errorf("second Close = %v", err)
	}

	disposed := fixture.open(t)
	if err := disposed.Select(ctx, 1); err != nil {
		t.Fatal(err)
	}
	mustSet(t, fixture.form, "name", "Discarded")
	disposed.Dispose()
	if fixture.get(catalog.Calendar, 1)["name"] != "Coptic" {
		t.Error("Dispose committed the edit")
	}
}

func TestStampUsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t, catalog.Repository)
	fixture.clock = clock.Fake(time.Date(1999, 12, 31, 23, 59, 59, 5, time.FixedZone("EST", -5*3600)))
	controller := fixture.open(t)

	if _, err := controller.NewRecord(ctx); err != nil {
		t.Fatal(err)
	}
	mustSet(t, fixture.form, "name", "County Archive")
	if err := controller.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	modification := fixture.single(catalog.Modification, record.Reference{Table: catalog.Repository, ID: 1})
	if got := modification.String(record.FieldCreationDate); got != "2000-01-01T04:59:59.000000005Z" {
		t.Errorf("creation_date = %q, want UTC nanosecond timestamp", got)
	}
}

// --- Fixture ---

type fixture struct {
	t     *testing.T
	table string
	store *tablestore.MemoryStore
	form  *form.Form
	clock *clock.FakeClock
	logs  *testutil.LogCapture
}

func newFixture(t *testing.T, table string) *fixture {
	t.Helper()
	hooks, err := form.ForTable(table)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		t:     t,
		table: table,
		store: tablestore.NewMemoryStore(),
		form:  hooks,
		clock: testutil.FakeClock(),
		logs:  testutil.CaptureLogger(),
	}
}

func (f *fixture) open(t *testing.T) *Controller {
	t.Helper()
	description, _ := catalog.Lookup(f.table)
	controller, err := New(context.Background(), Config{
		Table:       f.table,
		Store:       f.store,
		Hooks:       f.form,
		Registry:    catalog.Registry(),
		Columns:     description.Columns,
		Clock:       f.clock,
		FilterDelay: time.Second,
		Logger:      f.logs.Logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return controller
}

func (f *fixture) put(table string, rec record.Record) {
	f.t.Helper()
	if err := f.store.Put(context.Background(), table, rec); err != nil {
		f.t.Fatalf("Put(%s): %v", table, err)
	}
}

func (f *fixture) putDependent(table string, id int64, owner record.Reference) {
	f.t.Helper()
	rec := record.New(id)
	rec.SetReference(owner)
	f.put(table, rec)
}

func (f *fixture) get(table string, id int64) record.Record {
	f.t.Helper()
	rec, err := f.store.Get(context.Background(), table, id)
	if err != nil {
		f.t.Fatalf("Get(%s/%d): %v", table, id, err)
	}
	return rec
}

func (f *fixture) find(table string, owner record.Reference) []record.Record {
	f.t.Helper()
	found, err := f.store.FindByReference(context.Background(), table, owner)
	if err != nil {
		f.t.Fatalf("FindByReference(%s, %s): %v", table, owner, err)
	}
	return found
}

// single returns the one record of table referencing owner.
func (f *fixture) single(table string, owner record.Reference) record.Record {
	f.t.Helper()
	found := f.find(table, owner)
	if len(found) != 1 {
		f.t.Fatalf("%s has %d records for %s, want 1", table, len(found), owner)
	}
	return found[0]
}

func (f *fixture) none(table string, owner record.Reference) {
	f.t.Helper()
	if found := f.find(table, owner); len(found) != 0 {
		f.t.Fatalf("%s has %d records for %s, want none", table, len(found), owner)
	}
}

type failingStore struct {
	tablestore.Store
	table string
	err   error
}

func (s *failingStore) FindByReference(ctx context.Context, table string, owner record.Reference) ([]record.Record, error) {
	if table == s.table {
		return nil, s.err
	}
	return s.Store.FindByReference(ctx, table, owner)
}

func mustSet(t *testing.T, hooks *form.Form, field string, value any) {
	t.Helper()
	if err := hooks.Set(field, value); err != nil {
		t.Fatalf("Set(%s): %v", field, err)
	}
}

func mustUnset(t *testing.T, hooks *form.Form, field string) {
	t.Helper()
	if err := hooks.Unset(field); err != nil {
		t.Fatalf("Unset(%s): %v", field, err)
	}
}

func assertVisibleIDs(t *testing.T, controller *Controller, want ...int64) {
	t.Helper()
	visible := controller.Visible()
	ids := make([]int64, len(visible))
	for i, row := range visible {
		ids[i] = row.ID
	}
	if len(ids) != len(want) {
		t.Fatalf("visible = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("visible = %v, want %v", ids, want)
		}
	}
}
