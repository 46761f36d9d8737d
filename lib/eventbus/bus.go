// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventbus carries "open related editor" requests from an
// editing session to whichever sub-editor handles that kind of record.
//
// Delivery is synchronous: Publish calls every subscriber for the
// request's kind on the caller's goroutine, in subscription order, and
// returns when they are done. The session publishes from its owner
// goroutine, so a subscriber may call Request.Complete to write a
// value back into the originating working record without any locking.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/kinship/lib/record"
)

// ErrNoHandler is returned by Publish when nothing subscribes to the
// request's kind.
var ErrNoHandler = errors.New("eventbus: no handler for request kind")

// Kind names a category of related editor, such as "note" or
// "calendar".
type Kind string

// Request asks a sub-editor to open records related to Reference.
type Request struct {
	Kind Kind

	// Reference is the record the request originates from.
	Reference record.Reference

	// Field names the field of the originating record that awaits a
	// value, such as "calendar_id". Empty for requests that only
	// attach dependents.
	Field string

	// Complete writes field=value into the originating working
	// record. Nil when the requester accepts no write-back.
	Complete func(field string, value any)

	// Fields carries initial values for a record the sub-editor
	// creates, such as the text of a new note.
	Fields record.Record
}

// Handler processes a request.
type Handler interface {
	HandleRequest(ctx context.Context, request Request) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, request Request) error

func (f HandlerFunc) HandleRequest(ctx context.Context, request Request) error {
	return f(ctx, request)
}

type namedHandler struct {
	name    string
	handler Handler
}

// Bus routes requests by kind.
type Bus struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[Kind][]namedHandler
}

// New returns a bus with no subscribers. A nil logger discards.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{logger: logger, subscribers: make(map[Kind][]namedHandler)}
}

// Subscribe registers a named handler for kind.
func (b *Bus) Subscribe(kind Kind, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], namedHandler{name: name, handler: handler})
}

// Kinds returns every kind with at least one subscriber, sorted.
func (b *Bus) Kinds() []Kind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	kinds := make([]Kind, 0, len(b.subscribers))
	for kind := range b.subscribers {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Publish delivers request to every subscriber of its kind. Handler
// errors are logged and returned joined; one failing handler does not
// stop the others.
func (b *Bus) Publish(ctx context.Context, request Request) error {
	b.mu.RLock()
	subscribers := slices.Clone(b.subscribers[request.Kind])
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		return fmt.Errorf("%w: %q", ErrNoHandler, request.Kind)
	}

	var errs []error
	for _, subscriber := range subscribers {
		if err := subscriber.handler.HandleRequest(ctx, request); err != nil {
			b.logger.Error("related editor failed",
				"handler", subscriber.name,
				"kind", request.Kind,
				"reference", request.Reference.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("eventbus: %s: %w", subscriber.name, err))
		}
	}
	return errors.Join(errs...)
}
