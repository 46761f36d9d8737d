// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/kinship/lib/testutil"
)

func TestTriggerRunsAfterQuietInterval(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	debouncer := New(Config{Clock: fake, Delay: 300 * time.Millisecond, Action: func() { runs++ }})

	debouncer.Trigger()
	if !debouncer.Pending() {
		t.Fatal("Pending() = false right after Trigger")
	}
	fake.Advance(299 * time.Millisecond)
	if runs != 0 {
		t.Fatal("action ran before the interval elapsed")
	}
	fake.Advance(time.Millisecond)
	if runs != 1 {
		t.Fatalf("runs = %d after the interval, want 1", runs)
	}
	if debouncer.Pending() {
		t.Error("Pending() = true after the action ran")
	}
}

func TestTriggerRestartsInterval(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	debouncer := New(Config{Clock: fake, Delay: 300 * time.Millisecond, Action: func() { runs++ }})

	// Keystrokes 200ms apart never let the interval elapse.
	for range 5 {
		debouncer.Trigger()
		fake.Advance(200 * time.Millisecond)
	}
	if runs != 0 {
		t.Fatalf("runs = %d during a burst, want 0", runs)
	}
	fake.Advance(100 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("runs = %d after the burst settled, want exactly 1", runs)
	}
	if count := fake.PendingCount(); count != 0 {
		t.Errorf("%d timers left pending", count)
	}
}

func TestCancelDropsPendingAction(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	debouncer := New(Config{Clock: fake, Delay: time.Second, Action: func() { runs++ }})

	debouncer.Trigger()
	debouncer.Cancel()
	fake.Advance(2 * time.Second)
	if runs != 0 {
		t.Fatal("cancelled action ran")
	}

	debouncer.Trigger()
	fake.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("runs = %d after re-trigger, want 1", runs)
	}
}

func TestCloseDisablesDebouncer(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	debouncer := New(Config{Clock: fake, Delay: time.Second, Action: func() { runs++ }})

	debouncer.Trigger()
	debouncer.Close()
	debouncer.Trigger()
	fake.Advance(5 * time.Second)
	if runs != 0 {
		t.Fatalf("runs = %d after Close, want 0", runs)
	}
	if debouncer.Flush() {
		t.Error("Flush after Close reported a pending action")
	}
}

func TestStaleDispatchIsDropped(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	var queued []func()
	debouncer := New(Config{
		Clock:    fake,
		Delay:    time.Second,
		Dispatch: func(run func()) { queued = append(queued, run) },
		Action:   func() { runs++ },
	})

	// The timer fires and posts to the owner, but the owner handles a
	// new keystroke before draining its queue.
	debouncer.Trigger()
	fake.Advance(time.Second)
	if len(queued) != 1 {
		t.Fatalf("queued = %d, want 1", len(queued))
	}
	debouncer.Trigger()
	queued[0]()
	if runs != 0 {
		t.Fatal("superseded dispatch ran the action")
	}

	fake.Advance(time.Second)
	queued[1]()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}

	// Close while a fire is queued: the closure is a no-op.
	debouncer.Trigger()
	fake.Advance(time.Second)
	debouncer.Close()
	queued[2]()
	if runs != 1 {
		t.Fatalf("dispatch queued before Close ran the action: runs = %d", runs)
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	fake := testutil.FakeClock()
	runs := 0
	debouncer := New(Config{Clock: fake, Delay: time.Second, Action: func() { runs++ }})

	if debouncer.Flush() {
		t.Fatal("Flush with nothing pending returned true")
	}
	debouncer.Trigger()
	if !debouncer.Flush() {
		t.Fatal("Flush with a pending action returned false")
	}
	if runs != 1 {
		t.Fatalf("runs = %d after Flush, want 1", runs)
	}
	fake.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("timer still fired after Flush: runs = %d", runs)
	}
}

func TestRealClockDispatch(t *testing.T) {
	done := make(chan struct{}, 1)
	var runs atomic.Int32
	debouncer := New(Config{
		Delay: 200 * time.Millisecond,
		Action: func() {
			runs.Add(1)
			done <- struct{}{}
		},
	})
	debouncer.Trigger()
	debouncer.Trigger()
	testutil.RequireReceive(t, done, 5*time.Second, "debounced action on the real clock")
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}
