// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for kinship packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern for the few tests that cross a real goroutine boundary (the
// owner loop, the real clock). Everything else drives time through
// [clock.FakeClock], which [FakeClock] builds at the shared [Epoch].
//
// [CaptureLogger] returns a logger whose JSON output can be inspected
// for the warnings the session packages emit.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
