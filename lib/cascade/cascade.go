// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cascade removes the dependent records of a deleted owner.
//
// Which tables hold dependents of which owner is declared once, at
// startup, in a [Registry]. [Registry.Sweep] walks the dependents
// registered for an owner table in registration order and removes
// every record whose reference pair names the owner. The sweep is one
// level deep: dependents of dependents are not followed. A failure
// part way through stops the sweep and is reported as an [*Error];
// removals already made are kept.
package cascade

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Dependent describes one table whose records refer to an owner
// through reference_table/reference_id.
type Dependent struct {
	// Table is the dependent table name.
	Table string

	// Single marks tables that hold at most one record per owner
	// (modification, restriction).
	Single bool
}

// Registry maps owner tables to their dependent tables. Populate it
// before any session starts; it is read-only afterwards.
type Registry struct {
	dependents map[string][]Dependent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{dependents: make(map[string][]Dependent)}
}

// Register appends dependents to owner. Registering the same
// dependent table twice for one owner is ignored.
func (r *Registry) Register(owner string, dependents ...Dependent) {
	existing := r.dependents[owner]
	for _, dependent := range dependents {
		if slices.ContainsFunc(existing, func(d Dependent) bool { return d.Table == dependent.Table }) {
			continue
		}
		existing = append(existing, dependent)
	}
	r.dependents[owner] = existing
}

// Dependents returns the dependents registered for owner in
// registration order. The result must not be modified.
func (r *Registry) Dependents(owner string) []Dependent {
	return r.dependents[owner]
}

// Owners returns every owner table with at least one dependent,
// sorted.
func (r *Registry) Owners() []string {
	owners := make([]string, 0, len(r.dependents))
	for owner := range r.dependents {
		owners = append(owners, owner)
	}
	slices.Sort(owners)
	return owners
}

// Report lists the IDs removed from each dependent table.
type Report map[string][]int64

// Count returns the total number of removed records.
func (r Report) Count() int {
	total := 0
	for _, ids := range r {
		total += len(ids)
	}
	return total
}

// Sweep removes from store every dependent of owner. The report
// covers everything removed, including on error.
func (r *Registry) Sweep(ctx context.Context, store tablestore.Store, owner record.Reference) (Report, error) {
	report := make(Report)
	var completed []string
	for _, dependent := range r.dependents[owner.Table] {
		if err := ctx.Err(); err != nil {
			return report, &Error{Owner: owner, Table: dependent.Table, Completed: completed, Err: err}
		}
		matches, err := store.FindByReference(ctx, dependent.Table, owner)
		if err != nil {
			return report, &Error{Owner: owner, Table: dependent.Table, Completed: completed, Err: err}
		}
		for _, match := range matches {
			id, _ := match.ID()
			if err := store.Remove(ctx, dependent.Table, id); err != nil {
				return report, &Error{Owner: owner, Table: dependent.Table, Completed: completed, Err: err}
			}
			report[dependent.Table] = append(report[dependent.Table], id)
		}
		completed = append(completed, dependent.Table)
	}
	return report, nil
}

// Error reports a sweep that stopped part way. Tables listed in
// Completed were fully swept; Table may be partially swept.
type Error struct {
	Owner     record.Reference
	Table     string
	Completed []string
	Err       error
}

func (e *Error) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "cascade: sweeping %s dependents of %s: %v", e.Table, e.Owner, e.Err)
	if len(e.Completed) > 0 {
		fmt.Fprintf(&builder, " (already swept: %s)", strings.Join(e.Completed, ", "))
	}
	return builder.String()
}

func (e *Error) Unwrap() error { return e.Err }
