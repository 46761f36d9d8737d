// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordfile parses record import files.
//
// An import file is JSONC (JSON with // and /* */ comments and
// trailing commas): either one object or an array of objects, each
// object one record. Values must be scalars. Integral numbers become
// int64 and other numbers float64, matching the record value domain.
package recordfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/kinship/lib/record"
)

// ReadFile parses the import file at path.
func ReadFile(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recordfile: %w", err)
	}
	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return records, nil
}

// Parse parses JSONC import data.
func Parse(data []byte) ([]record.Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()
	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("recordfile: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("recordfile: trailing data after the first value")
	}

	var objects []any
	switch typed := document.(type) {
	case []any:
		objects = typed
	case map[string]any:
		objects = []any{typed}
	default:
		return nil, fmt.Errorf("recordfile: top level must be an object or an array of objects, got %s", describe(document))
	}

	records := make([]record.Record, 0, len(objects))
	for index, object := range objects {
		fields, ok := object.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("recordfile: element %d is %s, not an object", index, describe(object))
		}
		rec, err := convert(fields)
		if err != nil {
			return nil, fmt.Errorf("recordfile: element %d: %w", index, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func convert(fields map[string]any) (record.Record, error) {
	rec := make(record.Record, len(fields))
	for name, value := range fields {
		switch typed := value.(type) {
		case nil, bool, string:
			rec[name] = typed
		case json.Number:
			if integer, err := typed.Int64(); err == nil {
				rec[name] = integer
				continue
			}
			float, err := typed.Float64()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			rec[name] = float
		default:
			return nil, fmt.Errorf("field %q: %s values are not allowed in records", name, describe(value))
		}
	}
	return rec, nil
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
