// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/kinship/lib/record"
)

// Hooks binds an editing surface's fields to the working record. Each
// table supplies one implementation (lib/form provides a generic one
// driven by the catalog).
type Hooks interface {
	// FillFields loads rec into the surface after a selection.
	FillFields(rec record.Record)

	// WriteFields stores the surface's values into rec before a
	// commit.
	WriteFields(rec record.Record)

	// Validate reports whether the surface's values may be committed.
	// A non-nil error should name the offending field.
	Validate() error

	// ClearFields empties the surface.
	ClearFields()
}

// ErrNoSelection is returned by operations that act on the selected
// record when nothing is selected.
var ErrNoSelection = errors.New("session: no record selected")

// ErrMissingRecord is returned by Select when the requested record is
// not in its table. The session is left with no selection; callers
// typically fall back to NewRecord.
var ErrMissingRecord = errors.New("session: record missing")

// ErrClosed is returned by every operation after Close or Dispose.
var ErrClosed = errors.New("session: closed")

// ErrNoBus is returned by OpenRelated when the session has no event
// bus.
var ErrNoBus = errors.New("session: no event bus configured")

// ValidationError reports that the hooks rejected the working record.
// Nothing was written and the selection did not change.
type ValidationError struct {
	Table string
	ID    int64
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: %s/%d failed validation: %v", e.Table, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
