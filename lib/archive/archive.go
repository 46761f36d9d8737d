// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive reads and writes whole-store snapshot files.
//
// An archive is a fixed header followed by a payload:
//
//	offset  size  field
//	0       7     magic "KINSHIP"
//	7       1     format version (1)
//	8       1     compression (see Compression)
//	9       1     flags (bit 0: payload is age-encrypted)
//	10      8     uncompressed payload size, big endian
//	18      ...   payload
//
// The payload is the deterministic CBOR encoding of {version, tables},
// compressed, then optionally encrypted to one or more age recipients.
// Encrypting after compression keeps the ciphertext small; the header
// stays in the clear so a reader can tell a sealed archive from a
// corrupt one before it has a key.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/bureau-foundation/kinship/lib/codec"
	"github.com/bureau-foundation/kinship/lib/record"
	"github.com/bureau-foundation/kinship/lib/tablestore"
)

// Magic opens every archive file.
const Magic = "KINSHIP"

// FormatVersion is the header and payload version written by this
// package.
const FormatVersion = 1

const (
	headerSize = len(Magic) + 3 + 8
	flagSealed = 1 << 0
)

var (
	// ErrBadMagic means the data does not start with Magic.
	ErrBadMagic = errors.New("archive: not a kinship archive")

	// ErrUnsupportedVersion means the archive was written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("archive: unsupported format version")

	// ErrSealed means the archive is encrypted and no identity was
	// given.
	ErrSealed = errors.New("archive: archive is sealed and no identity was provided")
)

// Options control how an archive is written.
type Options struct {
	Compression Compression

	// Recipients, when non-empty, seal the payload with age.
	Recipients []age.Recipient
}

// Header is the decoded fixed header of an archive.
type Header struct {
	Version     uint8
	Compression Compression
	Sealed      bool
	Size        uint64
}

type payload struct {
	Version int                        `cbor:"version"`
	Tables  map[string][]record.Record `cbor:"tables"`
}

// Encode builds an archive from tables. When the requested compression
// does not shrink the payload, the archive is written uncompressed.
func Encode(tables map[string][]record.Record, options Options) ([]byte, error) {
	if tables == nil {
		tables = map[string][]record.Record{}
	}
	plain, err := codec.Marshal(payload{Version: FormatVersion, Tables: tables})
	if err != nil {
		return nil, fmt.Errorf("archive: encoding tables: %w", err)
	}

	compression := options.Compression
	body, err := compress(plain, compression)
	if errors.Is(err, errIncompressible) {
		compression, body = CompressionNone, plain
	} else if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	header := Header{
		Version:     FormatVersion,
		Compression: compression,
		Sealed:      len(options.Recipients) > 0,
		Size:        uint64(len(plain)),
	}
	if header.Sealed {
		body, err = seal(body, options.Recipients)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
	}

	out := make([]byte, 0, headerSize+len(body))
	out = header.append(out)
	return append(out, body...), nil
}

// Decode parses an archive. identities are needed only for a sealed
// archive.
func Decode(data []byte, identities []age.Identity) (map[string][]record.Record, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[headerSize:]
	if header.Sealed {
		if len(identities) == 0 {
			return nil, ErrSealed
		}
		body, err = unseal(body, identities)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
	}
	plain, err := decompress(body, header.Compression, int(header.Size))
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	var decoded payload
	if err := codec.Unmarshal(plain, &decoded); err != nil {
		return nil, fmt.Errorf("archive: decoding tables: %w", err)
	}
	if decoded.Version != FormatVersion {
		return nil, fmt.Errorf("%w: payload version %d", ErrUnsupportedVersion, decoded.Version)
	}
	if decoded.Tables == nil {
		decoded.Tables = map[string][]record.Record{}
	}
	return decoded.Tables, nil
}

// ParseHeader decodes and checks the fixed header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return Header{}, ErrBadMagic
	}
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("archive: header truncated at %d bytes", len(data))
	}
	header := Header{
		Version:     data[len(Magic)],
		Compression: Compression(data[len(Magic)+1]),
		Sealed:      data[len(Magic)+2]&flagSealed != 0,
		Size:        binary.BigEndian.Uint64(data[len(Magic)+3:]),
	}
	if header.Version != FormatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	return header, nil
}

func (h Header) append(out []byte) []byte {
	var flags byte
	if h.Sealed {
		flags |= flagSealed
	}
	out = append(out, Magic...)
	out = append(out, h.Version, byte(h.Compression), flags)
	return binary.BigEndian.AppendUint64(out, h.Size)
}

// Write encodes a snapshot of store to w.
func Write(w io.Writer, store *tablestore.MemoryStore, options Options) error {
	data, err := Encode(store.Snapshot(), options)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("archive: writing: %w", err)
	}
	return nil
}

// Read decodes an archive from r into a new MemoryStore.
func Read(r io.Reader, identities []age.Identity) (*tablestore.MemoryStore, error) {
	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("archive: reading: %w", err)
	}
	tables, err := Decode(buffer.Bytes(), identities)
	if err != nil {
		return nil, err
	}
	store := tablestore.NewMemoryStore()
	if err := store.Load(tables); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return store, nil
}
