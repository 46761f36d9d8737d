// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases for kinship with a fixed
// set of pragmas, on top of zombiezen.com/go/sqlite.
//
// Callers [Pool.Take] a connection, do their work and [Pool.Put] it
// back, or let [Pool.With] do both. Connections are not safe for
// concurrent use.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: transactions survive process crashes, not
//     power loss. Archive exports are the durable copy.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=OFF: the session controller maintains reference
//     pairs and cascades itself.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY.
//
// # Schema
//
// Config.Schema is executed once, on the first connection, inside a
// transaction. Use CREATE ... IF NOT EXISTS statements so reopening an
// existing database is harmless.
package sqlitepool
