// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Do once the loop has stopped.
var ErrLoopStopped = errors.New("session: owner loop stopped")

// Loop runs posted tasks one at a time on the goroutine that calls
// Run. It is the owner of a Controller in interactive use: the input
// reader posts user commands, and the filter's debounce timer posts
// its recomputation, so the controller is only ever touched from Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewLoop returns a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Post queues task and returns immediately. Safe to call from any
// goroutine, including from a task. Returns false if the loop has
// stopped; the task is dropped.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Dispatch is Post with the signature of a dispatch function.
func (l *Loop) Dispatch(task func()) { l.Post(task) }

// Do posts task and waits for it to finish. Calling Do from a task
// deadlocks.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		task()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have run just before the loop exited.
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Run executes tasks until Stop is called or ctx is done. Tasks still
// queued at that point are dropped. Run returns nil after Stop and
// ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-l.wake:
		}

		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, task := range tasks {
			select {
			case <-l.stop:
				return nil
			default:
			}
			task()
		}
	}
}

// Stop asks Run to return after the current task.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }
