// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time operations the editing session
// depends on: reading the current time (modification stamps) and
// scheduling a deferred callback (filter debounce).
//
// Production code injects [Real]; tests inject [Fake] and move time
// forward explicitly with [FakeClock.Advance], so that stamps and
// debounce windows are deterministic.
package clock

import "time"

// Clock is the time source consumed by the session packages.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once duration d has elapsed and returns a
	// Timer that can cancel the pending call. With the real clock f
	// runs on its own goroutine; with the fake clock f runs
	// synchronously inside Advance.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the Timer from firing. Returns true if the call stops
// the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset reschedules the timer to fire after d. Returns true if the
// timer was still pending.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
