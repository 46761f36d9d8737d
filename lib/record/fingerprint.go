// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/kinship/lib/codec"
)

// Fingerprint is the 32-byte structural hash of a record. Two records
// with the same fields and values have the same fingerprint regardless
// of insertion order. Fingerprints are compared in memory only and
// never persisted.
type Fingerprint [32]byte

// snapshotDomainKey is the BLAKE3 key for record fingerprints: the
// ASCII domain name zero-padded to 32 bytes.
var snapshotDomainKey = [32]byte{
	'k', 'i', 'n', 's', 'h', 'i', 'p', '.', 'r', 'e', 'c', 'o', 'r', 'd', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// FingerprintOf hashes the deterministic CBOR encoding of r. It fails
// only when r holds a value the codec cannot encode.
func FingerprintOf(r Record) (Fingerprint, error) {
	data, err := codec.Marshal(map[string]any(r))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("record: encoding fingerprint input: %w", err)
	}
	hasher, err := blake3.NewKeyed(snapshotDomainKey[:])
	if err != nil {
		panic("record: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint, nil
}

// String returns the lowercase hex encoding.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters, for log lines.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// IsZero reports whether f is the zero value (no snapshot taken).
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
