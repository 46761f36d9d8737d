// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog describes the genealogy tables: their fields, which
// columns a list shows and filters on, and which tables hold
// dependents of other tables.
//
// Owner tables carry the genealogical data (persons, events, sources).
// Dependent tables attach notes, media, localized text, cultural norms,
// restrictions and modification stamps to any owner through the
// reference_table/reference_id pair. [Registry] turns that relationship
// into the cascade registry a session uses on delete.
package catalog

import (
	"slices"

	"github.com/bureau-foundation/kinship/lib/cascade"
	"github.com/bureau-foundation/kinship/lib/record"
)

// Kind is the value type of a field.
type Kind int

const (
	// Text is a free string.
	Text Kind = iota
	// Integer is an int64.
	Integer
	// Float is a float64.
	Float
	// Bool is a boolean.
	Bool
	// Enum is a string drawn from Field.Values.
	Enum
	// Link is the positive int64 ID of a record in Field.Target.
	Link
	// TableName is the name of a catalog table.
	TableName
	// Timestamp is an RFC 3339 string.
	Timestamp
)

var kindNames = [...]string{"text", "integer", "float", "bool", "enum", "link", "table", "timestamp"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Field describes one field of a table.
type Field struct {
	Name     string
	Kind     Kind
	Required bool

	// Values lists the allowed values of an Enum field.
	Values []string

	// Target is the table a Link field points into.
	Target string
}

// Table describes one table.
type Table struct {
	Name string

	// Fields excludes id, which every table has.
	Fields []Field

	// Columns are shown in lists and indexed by the filter.
	Columns []string

	// Dependent tables reference an owner through
	// reference_table/reference_id.
	Dependent bool

	// Single dependent tables hold at most one record per owner.
	Single bool
}

// Field returns the named field.
func (t Table) Field(name string) (Field, bool) {
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Links returns the Link fields of the table.
func (t Table) Links() []Field {
	var links []Field
	for _, field := range t.Fields {
		if field.Kind == Link {
			links = append(links, field)
		}
	}
	return links
}

// Lookup returns the named table.
func Lookup(name string) (Table, bool) {
	index := slices.IndexFunc(tables, func(table Table) bool { return table.Name == name })
	if index < 0 {
		return Table{}, false
	}
	return tables[index], true
}

// Tables returns every table: owners sorted by name, then dependents.
func Tables() []Table {
	return slices.Clone(tables)
}

// Names returns every table name in the order of Tables.
func Names() []string {
	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.Name
	}
	return names
}

// Owners returns the owner tables.
func Owners() []Table {
	return filterTables(func(table Table) bool { return !table.Dependent })
}

// Dependents returns the dependent tables.
func Dependents() []Table {
	return filterTables(func(table Table) bool { return table.Dependent })
}

// Registry builds the cascade registry. Every owner table gets every
// dependent table; a note can itself carry a restriction and a
// modification stamp.
func Registry() *cascade.Registry {
	registry := cascade.NewRegistry()
	var all []cascade.Dependent
	for _, table := range Dependents() {
		all = append(all, cascade.Dependent{Table: table.Name, Single: table.Single})
	}
	for _, table := range Owners() {
		registry.Register(table.Name, all...)
	}
	registry.Register(Note,
		cascade.Dependent{Table: Restriction, Single: true},
		cascade.Dependent{Table: Modification, Single: true},
	)
	return registry
}

func filterTables(keep func(Table) bool) []Table {
	var result []Table
	for _, table := range tables {
		if keep(table) {
			result = append(result, table)
		}
	}
	return result
}

// referenceFields are the leading fields of every dependent table.
func referenceFields(extra ...Field) []Field {
	return append([]Field{
		{Name: record.FieldReferenceTable, Kind: TableName, Required: true},
		{Name: record.FieldReferenceID, Kind: Integer, Required: true},
	}, extra...)
}
