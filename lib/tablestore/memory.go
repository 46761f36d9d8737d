// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tablestore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/bureau-foundation/kinship/lib/record"
)

// MemoryStore is an in-memory Store. The zero value is not usable;
// call NewMemoryStore. MemoryStore is safe for concurrent use, though
// the session controller only ever touches it from one goroutine.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[int64]record.Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[int64]record.Record)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Tables(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name, rows := range s.tables {
		if len(rows) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) List(ctx context.Context, table string) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(table, nil), nil
}

func (s *MemoryStore) Get(ctx context.Context, table string, id int64) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, NotFound(table, id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, table string, rec record.Record) error {
	normalized, id, err := CheckRecord(table, rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		rows = make(map[int64]record.Record)
		s.tables[table] = rows
	}
	rows[id] = normalized
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, table string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	if _, ok := rows[id]; !ok {
		return NotFound(table, id)
	}
	delete(rows, id)
	return nil
}

func (s *MemoryStore) NextID(ctx context.Context, table string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var highest int64
	for id := range s.tables[table] {
		highest = max(highest, id)
	}
	return highest + 1, nil
}

func (s *MemoryStore) FindByReference(ctx context.Context, table string, owner record.Reference) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(table, func(rec record.Record) bool {
		return rec.References(owner)
	}), nil
}

// Snapshot returns a deep copy of every table, each ordered by ID.
// Archive files are written from a snapshot.
func (s *MemoryStore) Snapshot() map[string][]record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string][]record.Record, len(s.tables))
	for name, rows := range s.tables {
		if len(rows) > 0 {
			snapshot[name] = s.listLocked(name, nil)
		}
	}
	return snapshot
}

// Load replaces the store contents with tables. Every record is
// checked as if passed to Put; on error the store is left unchanged.
func (s *MemoryStore) Load(tables map[string][]record.Record) error {
	loaded := make(map[string]map[int64]record.Record, len(tables))
	for name, records := range tables {
		rows := make(map[int64]record.Record, len(records))
		for _, rec := range records {
			normalized, id, err := CheckRecord(name, rec)
			if err != nil {
				return err
			}
			rows[id] = normalized
		}
		loaded[name] = rows
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = loaded
	return nil
}

// listLocked returns clones of the matching records of table in ID
// order. A nil match keeps every record. Must be called with s.mu
// held.
func (s *MemoryStore) listLocked(table string, match func(record.Record) bool) []record.Record {
	rows := s.tables[table]
	ids := slices.Sorted(maps.Keys(rows))
	result := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		rec := rows[id]
		if match != nil && !match(rec) {
			continue
		}
		result = append(result, rec.Clone())
	}
	return result
}
