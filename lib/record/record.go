// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the unit of data every editing surface works
// on: an open mapping from field name to scalar value, plus the
// reference pair convention that ties dependent records (notes,
// restrictions, modification stamps) to their owner.
//
// Field values are restricted to nil, bool, int64, float64 and string.
// [Normalize] converts the other Go integer and float kinds into that
// domain so that two records holding the same logical values always
// produce the same [Fingerprint].
package record

import (
	"fmt"
	"maps"
	"sort"
)

// Well-known field names.
const (
	FieldID             = "id"
	FieldReferenceTable = "reference_table"
	FieldReferenceID    = "reference_id"
	FieldCreationDate   = "creation_date"
	FieldUpdateDate     = "update_date"
	FieldRestriction    = "restriction"
)

// Values of the restriction field.
const (
	Confidential = "confidential"
	Public       = "public"
)

// Record is one row of a table. The zero value (nil) is an empty
// record; use [New] to create one carrying an ID.
type Record map[string]any

// Reference identifies an owner record from a dependent record.
type Reference struct {
	Table string `json:"table"`
	ID    int64  `json:"id"`
}

// String returns "table/id".
func (r Reference) String() string {
	return fmt.Sprintf("%s/%d", r.Table, r.ID)
}

// New returns a bare record holding only its ID.
func New(id int64) Record {
	return Record{FieldID: id}
}

// ID returns the record's id field. The second result is false when
// the field is absent or not an integer.
func (r Record) ID() (int64, bool) {
	id, ok := r[FieldID].(int64)
	return id, ok
}

// Clone returns a shallow copy. Values are scalars, so the copy shares
// nothing mutable with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Reference returns the record's reference pair. The second result is
// false unless both reference_table and reference_id are set.
func (r Record) Reference() (Reference, bool) {
	table, tableOK := r[FieldReferenceTable].(string)
	id, idOK := r[FieldReferenceID].(int64)
	if !tableOK || !idOK || table == "" {
		return Reference{}, false
	}
	return Reference{Table: table, ID: id}, true
}

// References reports whether r is a dependent of owner.
func (r Record) References(owner Reference) bool {
	reference, ok := r.Reference()
	return ok && reference == owner
}

// SetReference points r at owner.
func (r Record) SetReference(owner Reference) {
	r[FieldReferenceTable] = owner.Table
	r[FieldReferenceID] = owner.ID
}

// String returns a string field, or "" when absent or not a string.
func (r Record) String(field string) string {
	value, _ := r[field].(string)
	return value
}

// Int returns an integer field. The second result is false when the
// field is absent or not an integer.
func (r Record) Int(field string) (int64, bool) {
	value, ok := r[field].(int64)
	return value, ok
}

// Fields returns the field names in sorted order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize converts value into the record value domain. Signed and
// unsigned integers become int64, float32 becomes float64. Any other
// type is an error.
func Normalize(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, int64, float64, string:
		return value, nil
	case int:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case uint8:
		return int64(typed), nil
	case uint16:
		return int64(typed), nil
	case uint32:
		return int64(typed), nil
	case uint:
		if uint64(typed) > 1<<63-1 {
			return nil, fmt.Errorf("record: unsigned value %d overflows int64", typed)
		}
		return int64(typed), nil
	case uint64:
		if typed > 1<<63-1 {
			return nil, fmt.Errorf("record: unsigned value %d overflows int64", typed)
		}
		return int64(typed), nil
	case float32:
		return float64(typed), nil
	default:
		return nil, fmt.Errorf("record: unsupported value type %T", value)
	}
}

// NormalizeAll returns a copy of fields with every value normalized.
// The error names the first offending field.
func NormalizeAll(fields map[string]any) (Record, error) {
	normalized := make(Record, len(fields))
	for name, value := range fields {
		converted, err := Normalize(value)
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", name, err)
		}
		normalized[name] = converted
	}
	return normalized, nil
}
