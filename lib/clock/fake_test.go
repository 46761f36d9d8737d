// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFuncFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	fired := 0
	clock.AfterFunc(300*time.Millisecond, func() { fired++ })

	clock.Advance(299 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("callback fired %d times before deadline", fired)
	}
	clock.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("callback fired %d times at deadline, want 1", fired)
	}
	clock.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("callback fired again after deadline: %d", fired)
	}
}

func TestFakeClockAfterFuncZeroDuration(t *testing.T) {
	clock := Fake(epoch)
	fired := false
	clock.AfterFunc(0, func() { fired = true })
	if !fired {
		t.Fatal("AfterFunc(0) should run the callback immediately")
	}
}

func TestFakeClockStop(t *testing.T) {
	clock := Fake(epoch)
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop on a pending timer returned false")
	}
	if timer.Stop() {
		t.Fatal("second Stop returned true")
	}
	clock.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if count := clock.PendingCount(); count != 0 {
		t.Fatalf("PendingCount = %d, want 0", count)
	}
}

func TestFakeClockReset(t *testing.T) {
	clock := Fake(epoch)
	fired := 0
	timer := clock.AfterFunc(time.Second, func() { fired++ })

	clock.Advance(800 * time.Millisecond)
	if !timer.Reset(time.Second) {
		t.Fatal("Reset on a pending timer returned false")
	}
	clock.Advance(800 * time.Millisecond)
	if fired != 0 {
		t.Fatal("timer fired at its original deadline after Reset")
	}
	clock.Advance(200 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d after reset deadline, want 1", fired)
	}

	if timer.Reset(time.Second) {
		t.Fatal("Reset on a fired timer returned true")
	}
	clock.Advance(time.Second)
	if fired != 2 {
		t.Fatalf("fired = %d after re-arming, want 2", fired)
	}
}

func TestFakeClockCallbackSeesDeadline(t *testing.T) {
	clock := Fake(epoch)
	var seen []time.Time
	clock.AfterFunc(2*time.Second, func() { seen = append(seen, clock.Now()) })
	clock.AfterFunc(time.Second, func() { seen = append(seen, clock.Now()) })

	clock.Advance(5 * time.Second)
	if len(seen) != 2 {
		t.Fatalf("got %d callbacks, want 2", len(seen))
	}
	if !seen[0].Equal(epoch.Add(time.Second)) || !seen[1].Equal(epoch.Add(2*time.Second)) {
		t.Errorf("callbacks saw %v, want deadline order at each deadline", seen)
	}
	if got := clock.Now(); !got.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Now() = %v after Advance, want %v", got, epoch.Add(5*time.Second))
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		clock.AfterFunc(time.Second, func() { close(done) })
	}()

	clock.WaitForTimers(1)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback registered from another goroutine did not fire")
	}
}
