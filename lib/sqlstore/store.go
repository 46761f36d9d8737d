// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore is a tablestore.Store kept in a SQLite database.
//
// All tables share one SQL table. Each row holds the table name, the
// record ID, the record's reference pair (so FindByReference is an
// index lookup) and the whole record as deterministic CBOR. Foreign
// keys are off: reference pairs are a convention maintained by the
// session controller, not a constraint.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/kinship/lib/codec"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/sqlitepool"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	table_name      TEXT    NOT NULL,
	id              INTEGER NOT NULL,
	reference_table TEXT,
	reference_id    INTEGER,
	data            BLOB    NOT NULL,
	PRIMARY KEY (table_name, id)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS records_by_reference
	ON records (table_name, reference_table, reference_id);
`

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the database file, created if missing.
	Path string

	Logger *slog.Logger
}

// Store is a SQLite-backed tablestore.Store. Safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

var _ tablestore.Store = (*Store)(nil)

// Open opens or creates the database at config.Path.
func Open(config Config) (*Store, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Schema: schema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT DISTINCT table_name FROM records ORDER BY table_name`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					names = append(names, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing tables: %w", err)
	}
	return names, nil
}

func (s *Store) List(ctx context.Context, table string) ([]record.Record, error) {
	records, err := s.query(ctx,
		`SELECT data FROM records WHERE table_name = ? ORDER BY id`,
		table)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing %s: %w", table, err)
	}
	return records, nil
}

func (s *Store) Get(ctx context.Context, table string, id int64) (record.Record, error) {
	records, err := s.query(ctx,
		`SELECT data FROM records WHERE table_name = ? AND id = ?`,
		table, id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: reading %s/%d: %w", table, id, err)
	}
	if len(records) == 0 {
		return nil, tablestore.NotFound(table, id)
	}
	return records[0], nil
}

func (s *Store) Put(ctx context.Context, table string, rec record.Record) error {
	normalized, id, err := tablestore.CheckRecord(table, rec)
	if err != nil {
		return err
	}
	err = s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return putRecord(conn, table, id, normalized)
	})
	if err != nil {
		return fmt.Errorf("sqlstore: writing %s/%d: %w", table, id, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, table string, id int64) error {
	var removed int
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `DELETE FROM records WHERE table_name = ? AND id = ?`,
			&sqlitex.ExecOptions{Args: []any{table, id}})
		removed = conn.Changes()
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlstore: removing %s/%d: %w", table, id, err)
	}
	if removed == 0 {
		return tablestore.NotFound(table, id)
	}
	return nil
}

func (s *Store) NextID(ctx context.Context, table string) (int64, error) {
	var next int64
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT coalesce(max(id), 0) + 1 FROM records WHERE table_name = ?`,
			&sqlitex.ExecOptions{
				Args: []any{table},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					next = stmt.ColumnInt64(0)
					return nil
				},
			})
	})
	if err != nil {
		return 0, fmt.Errorf("sqlstore: next id of %s: %w", table, err)
	}
	return next, nil
}

func (s *Store) FindByReference(ctx context.Context, table string, owner record.Reference) ([]record.Record, error) {
	records, err := s.query(ctx,
		`SELECT data FROM records
		 WHERE table_name = ? AND reference_table = ? AND reference_id = ?
		 ORDER BY id`,
		table, owner.Table, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: finding %s records of %s: %w", table, owner, err)
	}
	return records, nil
}

// Snapshot returns every table, each ordered by ID.
func (s *Store) Snapshot(ctx context.Context) (map[string][]record.Record, error) {
	tables := make(map[string][]record.Record)
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT table_name, data FROM records ORDER BY table_name, id`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					rec, err := decodeColumn(stmt, 1)
					if err != nil {
						return err
					}
					name := stmt.ColumnText(0)
					tables[name] = append(tables[name], rec)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: snapshot: %w", err)
	}
	return tables, nil
}

// Load replaces the whole database with tables in one transaction.
func (s *Store) Load(ctx context.Context, tables map[string][]record.Record) error {
	type row struct {
		table string
		id    int64
		rec   record.Record
	}
	var rows []row
	for name, records := range tables {
		for _, rec := range records {
			normalized, id, err := tablestore.CheckRecord(name, rec)
			if err != nil {
				return err
			}
			rows = append(rows, row{table: name, id: id, rec: normalized})
		}
	}

	err := s.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		end, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer end(&err)
		if err := sqlitex.Execute(conn, `DELETE FROM records`, nil); err != nil {
			return err
		}
		for _, row := range rows {
			if err := putRecord(conn, row.table, row.id, row.rec); err != nil {
				return fmt.Errorf("%s/%d: %w", row.table, row.id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlstore: loading: %w", err)
	}
	s.logger.Info("database replaced", "path", s.pool.Path(), "records", len(rows))
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	var records []record.Record
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rec, err := decodeColumn(stmt, 0)
				if err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func putRecord(conn *sqlite.Conn, table string, id int64, rec record.Record) error {
	data, err := codec.Marshal(map[string]any(rec))
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	var referenceTable, referenceID any
	if reference, ok := rec.Reference(); ok {
		referenceTable = reference.Table
		referenceID = reference.ID
	}
	return sqlitex.Execute(conn,
		`INSERT INTO records (table_name, id, reference_table, reference_id, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (table_name, id) DO UPDATE SET
			reference_table = excluded.reference_table,
			reference_id    = excluded.reference_id,
			data            = excluded.data`,
		&sqlitex.ExecOptions{Args: []any{table, id, referenceTable, referenceID, data}})
}

func decodeColumn(stmt *sqlite.Stmt, column int) (record.Record, error) {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	var rec record.Record
	if err := codec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}
