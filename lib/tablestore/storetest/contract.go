// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storetest holds the behavioral tests every
// tablestore.Store implementation must pass. Backends call Run from
// their own _test.go files with a constructor for an empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Run exercises open against the Store contract. open must return a
// new, empty store on every call.
func Run(t *testing.T, open func(t *testing.T) tablestore.Store) {
	t.Run("NextIDEmpty", func(t *testing.T) { testNextIDEmpty(t, open(t)) })
	t.Run("NextIDMonotonic", func(t *testing.T) { testNextIDMonotonic(t, open(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("PutGetCopies", func(t *testing.T) { testPutGetCopies(t, open(t)) })
	t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, open(t)) })
	t.Run("PutRejectsInvalid", func(t *testing.T) { testPutRejectsInvalid(t, open(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testListOrdered(t, open(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, open(t)) })
	t.Run("FindByReference", func(t *testing.T) { testFindByReference(t, open(t)) })
	t.Run("Tables", func(t *testing.T) { testTables(t, open(t)) })
	t.Run("ValueTypes", func(t *testing.T) { testValueTypes(t, open(t)) })
}

// --- Contract cases ---

func testNextIDEmpty(t *testing.T, store tablestore.Store) {
	id, err := store.NextID(context.Background(), "assertion")
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != 1 {
		t.Errorf("NextID on empty table = %d, want 1", id)
	}
}

func testNextIDMonotonic(t *testing.T, store tablestore.Store) {
	ctx := context.Background()
	for _, id := range []int64{3, 7, 5} {
		mustPut(t, store, "event", record.New(id))
	}
	assertNextID(t, store, "event", 8)

	// Removing a lower ID never lowers the next ID.
	if err := store.Remove(ctx, "event", 5); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	assertNextID(t, store, "event", 8)

	// Removing the highest lets the ID be reused: next = max + 1.
	if err := store.Remove(ctx, "event", 7); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	assertNextID(t, store, "event", 4)

	// Other tables are independent.
	assertNextID(t, store, "person", 1)
}

func testGetMissing(t *testing.T, store tablestore.Store) {
	_, err := store.Get(context.Background(), "place", 42)
	if !errors.Is(err, tablestore.ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func testPutGetCopies(t *testing.T, store tablestore.Store) {
	ctx := context.Background()
	original := record.Record{"id": int64(1), "role": "witness"}
	mustPut(t, store, "assertion", original)

	original["role"] = "changed after put"
	got := mustGet(t, store, "assertion", 1)
	if got["role"] != "witness" {
		t.Fatalf("stored record aliases the caller's map: role = %v", got["role"])
	}

	got["role"] = "changed after get"
	again, err := store.Get(ctx, "assertion", 1)
	if err != nil {
		t.Fatal(err)
	}
	if again["role"] != "witness" {
		t.Fatalf("Get returned an alias of the stored record: role = %v", again["role"])
	}
}

func testPutReplaces(t *testing.T, store tablestore.Store) {
	mustPut(t, store, "citation", record.Record{"id": int64(2), "page": "12", "source_id": int64(1)})
	mustPut(t, store, "citation", record.Record{"id": int64(2), "page": "13"})

	got := mustGet(t, store, "citation", 2)
	if got["page"] != "13" {
		t.Errorf("page = %v, want 13", got["page"])
	}
	if _, present := got["source_id"]; present {
		t.Error("Put merged fields instead of replacing the record")
	}
}

func testPutRejectsInvalid(t *testing.T, store tablestore.Store) {
	ctx := context.Background()
	invalid := []record.Record{
		{"role": "no id"},
		{"id": int64(0)},
		{"id": int64(-4)},
		{"id": "7"},
		{"id": int64(1), "bad": []int{1}},
	}
	for _, rec := range invalid {
		if err := store.Put(ctx, "assertion", rec); !errors.Is(err, tablestore.ErrInvalidRecord) {
			t.Errorf("Put(%v) = %v, want ErrInvalidRecord", rec, err)
		}
	}
	if err := store.Put(ctx, "", record.New(1)); !errors.Is(err, tablestore.ErrInvalidRecord) {
		t.Errorf("Put with empty table = %v, want ErrInvalidRecord", err)
	}
}

func testListOrdered(t *testing.T, store tablestore.Store) {
	for _, id := range []int64{9, 2, 5} {
		mustPut(t, store, "person", record.New(id))
	}
	records, err := store.List(context.Background(), "person")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	assertIDs(t, records, 2, 5, 9)

	empty, err := store.List(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("List unknown table: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List unknown table returned %d records", len(empty))
	}
}

func testRemove(t *testing.T, store tablestore.Store) {
	ctx := context.Background()
	mustPut(t, store, "note", record.New(1))
	if err := store.Remove(ctx, "note", 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Get(ctx, "note", 1); !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("Get after Remove = %v, want ErrNotFound", err)
	}
	if err := store.Remove(ctx, "note", 1); !errors.Is(err, tablestore.ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func testFindByReference(t *testing.T, store tablestore.Store) {
	owner := record.Reference{Table: "assertion", ID: 4}
	for id, reference := range map[int64]record.Reference{
		1: owner,
		2: {Table: "assertion", ID: 5},
		3: {Table: "event", ID: 4},
		4: owner,
	} {
		note := record.New(id)
		note.SetReference(reference)
		note["text"] = "n"
		mustPut(t, store, "note", note)
	}
	mustPut(t, store, "note", record.Record{"id": int64(5), "text": "unattached"})

	found, err := store.FindByReference(context.Background(), "note", owner)
	if err != nil {
		t.Fatalf("FindByReference: %v", err)
	}
	assertIDs(t, found, 1, 4)
}

func testTables(t *testing.T, store tablestore.Store) {
	ctx := context.Background()
	mustPut(t, store, "source", record.New(1))
	mustPut(t, store, "calendar", record.New(1))
	mustPut(t, store, "note", record.New(1))
	if err := store.Remove(ctx, "note", 1); err != nil {
		t.Fatal(err)
	}

	tables, err := store.Tables(ctx)
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if len(tables) != 2 || tables[0] != "calendar" || tables[1] != "source" {
		t.Errorf("Tables = %v, want [calendar source]", tables)
	}
}

func testValueTypes(t *testing.T, store tablestore.Store) {
	mustPut(t, store, "date", record.Record{
		"id":        1,
		"year":      int32(1850),
		"certainty": 0.75,
		"text":      "about 1850",
		"estimated": true,
		"calendar":  nil,
	})
	got := mustGet(t, store, "date", 1)
	if id, ok := got.ID(); !ok || id != 1 {
		t.Errorf("id = %#v, want int64(1)", got["id"])
	}
	if got["year"] != int64(1850) {
		t.Errorf("year = %#v, want int64(1850)", got["year"])
	}
	if got["certainty"] != 0.75 || got["text"] != "about 1850" || got["estimated"] != true {
		t.Errorf("scalar fields did not survive: %v", got)
	}
	if value, present := got["calendar"]; !present || value != nil {
		t.Errorf("calendar = %#v (present %v), want explicit nil", value, present)
	}
}

// --- Helpers ---

func mustPut(t *testing.T, store tablestore.Store, table string, rec record.Record) {
	t.Helper()
	if err := store.Put(context.Background(), table, rec); err != nil {
		t.Fatalf("Put(%s, %v): %v", table, rec, err)
	}
}

func mustGet(t *testing.T, store tablestore.Store, table string, id int64) record.Record {
	t.Helper()
	rec, err := store.Get(context.Background(), table, id)
	if err != nil {
		t.Fatalf("Get(%s, %d): %v", table, id, err)
	}
	return rec
}

func assertNextID(t *testing.T, store tablestore.Store, table string, want int64) {
	t.Helper()
	got, err := store.NextID(context.Background(), table)
	if err != nil {
		t.Fatalf("NextID(%s): %v", table, err)
	}
	if got != want {
		t.Errorf("NextID(%s) = %d, want %d", table, got, want)
	}
}

func assertIDs(t *testing.T, records []record.Record, want ...int64) {
	t.Helper()
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d (%v)", len(records), len(want), want)
	}
	for i, rec := range records {
		id, _ := rec.ID()
		if id != want[i] {
			t.Errorf("record %d has id %d, want %d", i, id, want[i])
		}
	}
}
