// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used for records.
//
// Encoding follows Core Deterministic Encoding (RFC 8949 §4.2): map
// keys are sorted and integers and floats use their smallest form, so
// the same logical record always produces identical bytes. The record
// fingerprint, the SQLite row blobs and the archive payload all rely
// on that property.
//
// Decoding into any-typed targets yields map[string]any for maps and
// int64 for every integer, which is the value domain of a record.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Records never use non-string keys. The CBOR default for
		// any-typed targets is map[interface{}]interface{}.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Positive and negative integers both decode to int64 so a
		// decoded record compares equal to the one that was encoded.
		IntDec: cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. The CLI uses it to show the exact bytes a record hashes over.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
