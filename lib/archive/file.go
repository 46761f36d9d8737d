// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filippo.io/age"

	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// LoadFile reads the archive at path. A missing file yields an empty
// store, so the first save creates it.
func LoadFile(path string, identities []age.Identity) (*tablestore.MemoryStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return tablestore.NewMemoryStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	store, err := Read(bytes.NewReader(data), identities)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return store, nil
}

// SaveFile writes store to path atomically: the archive goes to a
// temporary file in the same directory, is synced, and is renamed over
// path. Readers see either the old archive or the new one.
func SaveFile(path string, store *tablestore.MemoryStore, options Options) error {
	data, err := Encode(store.Snapshot(), options)
	if err != nil {
		return err
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("archive: creating temporary file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("archive: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("archive: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("archive: closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("archive: renaming into place: %w", err)
	}

	// Make the rename durable.
	if directory, err := os.Open(filepath.Dir(path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}
