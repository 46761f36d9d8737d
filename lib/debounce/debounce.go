// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package debounce defers an action until its trigger has been quiet
// for a fixed interval. Every Trigger restarts the interval.
//
// The interval runs on a [clock.Clock] timer, whose callback fires on
// a goroutine the owner does not control. The callback therefore does
// not run the action itself: it hands a closure to the configured
// Dispatch function (typically a post onto the owner's event loop),
// and the closure runs the action only if nothing has superseded it.
// A trigger or cancel issued after the timer fired but before the
// dispatched closure ran makes that closure a no-op; each arming
// carries a generation number and stale generations are dropped.
package debounce

import (
	"sync"
	"time"

	"github.com/bureau-foundation/kinship/lib/clock"
)

// DefaultDelay is the quiet interval used when Config.Delay is zero.
const DefaultDelay = 300 * time.Millisecond

// Config configures a Debouncer.
type Config struct {
	// Clock schedules the quiet interval. Nil means clock.Real().
	Clock clock.Clock

	// Delay is the quiet interval. Zero means DefaultDelay.
	Delay time.Duration

	// Dispatch runs the given function on the owner of the action.
	// Nil runs it directly on the timer's goroutine, which is only
	// appropriate when the action is safe to call from there (tests
	// with a fake clock, where the timer fires inside Advance).
	Dispatch func(func())

	// Action is the deferred work. Required.
	Action func()
}

// Debouncer coalesces bursts of triggers into one action.
// Its methods are safe for concurrent use.
type Debouncer struct {
	clock    clock.Clock
	delay    time.Duration
	dispatch func(func())
	action   func()

	mu         sync.Mutex
	timer      *clock.Timer
	generation uint64
	pending    bool
	closed     bool
}

// New returns an idle Debouncer.
func New(config Config) *Debouncer {
	if config.Action == nil {
		panic("debounce: Config.Action is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	if config.Dispatch == nil {
		config.Dispatch = func(run func()) { run() }
	}
	return &Debouncer{
		clock:    config.Clock,
		delay:    config.Delay,
		dispatch: config.Dispatch,
		action:   config.Action,
	}
}

// Trigger (re)starts the quiet interval. The action runs once the
// interval elapses with no further Trigger. No-op after Close.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.generation++
	d.pending = true
	generation := d.generation
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.dispatch(func() { d.fire(generation) })
	})
}

// Cancel drops the pending action, if any. A later Trigger arms the
// debouncer again.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.generation++
	d.pending = false
}

// Close cancels the pending action and disables the debouncer. Any
// dispatched closure still queued on the owner becomes a no-op.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.generation++
	d.pending = false
	d.closed = true
}

// Flush runs the pending action immediately on the calling goroutine
// instead of waiting for the interval. Returns false if nothing was
// pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.closed {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.generation++
	d.pending = false
	d.mu.Unlock()

	d.action()
	return true
}

// Pending reports whether an action is scheduled and not yet run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) fire(generation uint64) {
	d.mu.Lock()
	if d.closed || !d.pending || generation != d.generation {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.action()
}

// stopLocked stops the armed timer. Must be called with d.mu held.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
