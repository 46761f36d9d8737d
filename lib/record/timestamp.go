// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// FormatTimestamp renders t the way creation_date and update_date are
// stored: RFC 3339 with nanoseconds, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a stored creation_date or update_date.
func ParseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("record: parsing timestamp %q: %w", value, err)
	}
	return parsed, nil
}
