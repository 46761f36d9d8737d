// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock stopped at initial. Time moves only when
// Advance is called.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests. AfterFunc callbacks
// fire synchronously during Advance, in deadline order, on the
// goroutine that called Advance. Calling Advance from inside a
// callback deadlocks.
//
// FakeClock is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	callback func()
	active   bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock has advanced by d. If
// d <= 0, f runs before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stopFunc:  func() bool { return false },
			resetFunc: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	timer := &fakeTimer{deadline: c.current.Add(d), callback: f, active: true}
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
	c.mu.Unlock()

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := timer.active
			timer.active = false
			c.changed.Broadcast()
			return wasActive
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasActive := timer.active
			timer.deadline = c.current.Add(d)
			if !wasActive {
				timer.active = true
				c.pending = append(c.pending, timer)
			}
			c.changed.Broadcast()
			return wasActive
		},
	}
}

// Advance moves the clock forward by d and fires every active timer
// whose deadline is at or before the new time. Callbacks run with the
// clock already showing each timer's deadline.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	for {
		next := c.nextDueLocked(target)
		if next == nil {
			break
		}
		next.active = false
		if next.deadline.After(c.current) {
			c.current = next.deadline
		}
		c.changed.Broadcast()
		c.mu.Unlock()
		next.callback()
		c.mu.Lock()
	}
	c.current = target
	c.compactLocked()
	c.mu.Unlock()
}

// nextDueLocked returns the earliest active timer due by target, or
// nil. Must be called with c.mu held.
func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	sort.SliceStable(c.pending, func(i, j int) bool {
		return c.pending[i].deadline.Before(c.pending[j].deadline)
	})
	for _, timer := range c.pending {
		if timer.active && !timer.deadline.After(target) {
			return timer
		}
	}
	return nil
}

// compactLocked drops stopped and fired timers. Must be called with
// c.mu held.
func (c *FakeClock) compactLocked() {
	kept := c.pending[:0]
	for _, timer := range c.pending {
		if timer.active {
			kept = append(kept, timer)
		}
	}
	c.pending = kept
}

// WaitForTimers blocks until at least n timers are pending. Use it
// before Advance when the timer is registered by another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingCountLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of timers that have neither fired
// nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingCountLocked()
}

func (c *FakeClock) pendingCountLocked() int {
	count := 0
	for _, timer := range c.pending {
		if timer.active {
			count++
		}
	}
	return count
}
