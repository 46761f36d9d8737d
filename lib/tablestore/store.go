// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tablestore defines the storage contract consumed by the
// editing session: named tables of records keyed by a positive int64
// ID.
//
// A Store enforces no referential integrity. Dependent records point
// at their owner through the reference_table/reference_id pair, and
// keeping those pairs consistent (cascading deletes, one restriction
// per owner) is the session controller's job.
//
// Implementations hand out copies: mutating a record returned by Get
// or List never changes the stored record until it is passed to Put.
package tablestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/kinship/lib/record"
)

// ErrNotFound is returned by Get and Remove when no record has the
// requested ID.
var ErrNotFound = errors.New("tablestore: record not found")

// ErrInvalidRecord is returned by Put when the record has no positive
// integer id or holds a value outside the record value domain.
var ErrInvalidRecord = errors.New("tablestore: invalid record")

// Store is a collection of named tables.
type Store interface {
	// Tables returns the names of tables that hold at least one
	// record, sorted.
	Tables(ctx context.Context) ([]string, error)

	// List returns every record of table ordered by ascending ID. An
	// unknown table is empty.
	List(ctx context.Context, table string) ([]record.Record, error)

	// Get returns the record with the given ID, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, table string, id int64) (record.Record, error)

	// Put inserts or replaces the record keyed by its id field.
	Put(ctx context.Context, table string, rec record.Record) error

	// Remove deletes the record with the given ID, or returns an
	// error wrapping ErrNotFound.
	Remove(ctx context.Context, table string, id int64) error

	// NextID returns one more than the largest ID in table, or 1 if
	// the table is empty.
	NextID(ctx context.Context, table string) (int64, error)

	// FindByReference returns the records of table whose reference
	// pair equals owner, ordered by ascending ID.
	FindByReference(ctx context.Context, table string, owner record.Reference) ([]record.Record, error)
}

// CheckRecord validates rec for Put and returns a normalized copy
// along with its ID. Store implementations call it before writing.
func CheckRecord(table string, rec record.Record) (record.Record, int64, error) {
	if table == "" {
		return nil, 0, fmt.Errorf("%w: empty table name", ErrInvalidRecord)
	}
	normalized, err := record.NormalizeAll(rec)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, table, err)
	}
	id, ok := normalized.ID()
	if !ok || id <= 0 {
		return nil, 0, fmt.Errorf("%w: %s: id must be a positive integer, got %#v",
			ErrInvalidRecord, table, rec[record.FieldID])
	}
	return normalized, id, nil
}

// NotFound builds the error returned for a missing record.
func NotFound(table string, id int64) error {
	return fmt.Errorf("%w: %s/%d", ErrNotFound, table, id)
}
