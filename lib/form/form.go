// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package form implements the field binding of an editing surface from
// a catalog table description: it holds the value of each field the
// way a dialog's widgets would, copies them from and to the working
// record, and validates them.
//
// A Form satisfies the session controller's Hooks interface, so every
// table gets a working editor without table-specific code.
package form

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/kinship/lib/catalog"
	"github.com/bureau-foundation/kinship/lib/record"
)

// ErrUnknownField is wrapped by Set and Unset for fields the table
// does not declare.
var ErrUnknownField = errors.New("form: unknown field")

// FieldError names the field that failed validation and why.
type FieldError struct {
	Table  string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("form: %s.%s: %s", e.Table, e.Field, e.Reason)
}

// Form holds the edited values of one record of one table.
type Form struct {
	table  catalog.Table
	values record.Record
}

// New returns an empty form for table.
func New(table catalog.Table) *Form {
	return &Form{table: table, values: record.Record{}}
}

// ForTable returns an empty form for the named catalog table.
func ForTable(name string) (*Form, error) {
	table, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("form: unknown table %q", name)
	}
	return New(table), nil
}

// Table returns the table description the form edits.
func (f *Form) Table() catalog.Table { return f.table }

// FillFields loads the declared fields of rec into the form. Fields
// absent from rec are left empty.
func (f *Form) FillFields(rec record.Record) {
	f.values = record.Record{}
	for _, field := range f.table.Fields {
		if value, ok := rec[field.Name]; ok {
			f.values[field.Name] = canonical(field, value)
		}
	}
}

// WriteFields stores the form's values into rec. A declared field the
// form holds no value for is removed from rec; undeclared fields of
// rec are kept.
func (f *Form) WriteFields(rec record.Record) {
	for _, field := range f.table.Fields {
		if value, ok := f.values[field.Name]; ok {
			rec[field.Name] = value
		} else {
			delete(rec, field.Name)
		}
	}
}

// ClearFields empties the form.
func (f *Form) ClearFields() {
	f.values = record.Record{}
}

// Validate checks every field in declaration order and returns a
// *FieldError for the first one that fails.
func (f *Form) Validate() error {
	for _, field := range f.table.Fields {
		value, present := f.values[field.Name]
		if !present || value == nil || value == "" {
			if field.Required {
				return f.fieldError(field, "is required")
			}
			continue
		}
		if reason := checkValue(field, value); reason != "" {
			return f.fieldError(field, reason)
		}
	}
	return nil
}

// Set stores value for field after normalizing it. Type and
// enumeration checks are left to Validate.
func (f *Form) Set(name string, value any) error {
	field, ok := f.table.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, f.table.Name, name)
	}
	normalized, err := record.Normalize(value)
	if err != nil {
		return fmt.Errorf("form: %s.%s: %w", f.table.Name, name, err)
	}
	f.values[name] = canonical(field, normalized)
	return nil
}

// SetText parses text according to the field's kind and stores it.
func (f *Form) SetText(name, text string) error {
	field, ok := f.table.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, f.table.Name, name)
	}
	value, err := ParseValue(field, text)
	if err != nil {
		return &FieldError{Table: f.table.Name, Field: name, Reason: err.Error()}
	}
	f.values[name] = value
	return nil
}

// Unset empties field.
func (f *Form) Unset(name string) error {
	if _, ok := f.table.Field(name); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, f.table.Name, name)
	}
	delete(f.values, name)
	return nil
}

// Value returns the value held for field.
func (f *Form) Value(name string) (any, bool) {
	value, ok := f.values[name]
	return value, ok
}

// Values returns a copy of every value the form holds.
func (f *Form) Values() record.Record {
	return f.values.Clone()
}

// canonical gives each kind one stored representation. Float fields
// hold float64 even when the value came in as an integer.
func canonical(field catalog.Field, value any) any {
	if field.Kind == catalog.Float {
		if integer, ok := value.(int64); ok {
			return float64(integer)
		}
	}
	return value
}

func (f *Form) fieldError(field catalog.Field, reason string) error {
	return &FieldError{Table: f.table.Name, Field: field.Name, Reason: reason}
}

// checkValue returns why value is not acceptable for field, or "".
func checkValue(field catalog.Field, value any) string {
	switch field.Kind {
	case catalog.Text:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("must be text, got %T", value)
		}
	case catalog.Integer:
		if _, ok := value.(int64); !ok {
			return fmt.Sprintf("must be an integer, got %T", value)
		}
	case catalog.Float:
		switch value.(type) {
		case float64, int64:
		default:
			return fmt.Sprintf("must be a number, got %T", value)
		}
	case catalog.Bool:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("must be true or false, got %T", value)
		}
	case catalog.Enum:
		text, ok := value.(string)
		if !ok || !slices.Contains(field.Values, text) {
			return fmt.Sprintf("must be one of %s", strings.Join(field.Values, ", "))
		}
	case catalog.Link:
		id, ok := value.(int64)
		if !ok || id <= 0 {
			return fmt.Sprintf("must be the positive id of a %s record", field.Target)
		}
	case catalog.TableName:
		name, ok := value.(string)
		if !ok {
			return "must be a table name"
		}
		if _, known := catalog.Lookup(name); !known {
			return fmt.Sprintf("names unknown table %q", name)
		}
	case catalog.Timestamp:
		text, ok := value.(string)
		if !ok {
			return "must be an RFC 3339 timestamp"
		}
		if _, err := record.ParseTimestamp(text); err != nil {
			return "must be an RFC 3339 timestamp"
		}
	}
	return ""
}

// ParseValue converts command-line text into a value of the field's
// kind. Empty text is nil for every kind except Text.
func ParseValue(field catalog.Field, text string) (any, error) {
	if text == "" && field.Kind != catalog.Text {
		return nil, nil
	}
	switch field.Kind {
	case catalog.Integer, catalog.Link:
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", text)
		}
		return value, nil
	case catalog.Float:
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", text)
		}
		return value, nil
	case catalog.Bool:
		value, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%q is not true or false", text)
		}
		return value, nil
	default:
		return text, nil
	}
}
