// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/kinship/lib/record"
)

// RestrictionOff selects what ToggleRestriction(false) does with an
// existing restriction record.
type RestrictionOff int

const (
	// RestrictionDelete removes the restriction record.
	RestrictionDelete RestrictionOff = iota
	// RestrictionPublic keeps the record and sets it to "public".
	RestrictionPublic
)

func (r RestrictionOff) String() string {
	if r == RestrictionPublic {
		return "public"
	}
	return "delete"
}

// ParseRestrictionOff parses "delete" or "public". Empty is delete.
func ParseRestrictionOff(text string) (RestrictionOff, error) {
	switch text {
	case "", "delete":
		return RestrictionDelete, nil
	case "public":
		return RestrictionPublic, nil
	default:
		return RestrictionDelete, fmt.Errorf("session: unknown restriction-off mode %q (want delete or public)", text)
	}
}

// ToggleRestriction marks the selected record confidential (on) or
// not. It is idempotent and leaves at most one restriction record for
// the owner. Restrictions take effect immediately; they are not part
// of the working record and need no commit.
func (c *Controller) ToggleRestriction(ctx context.Context, on bool) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != Selected {
		return ErrNoSelection
	}
	id, _ := c.working.ID()
	owner := record.Reference{Table: c.table, ID: id}

	existing, err := c.store.FindByReference(ctx, c.restrictionTable, owner)
	if err != nil {
		return fmt.Errorf("session: finding restriction of %s: %w", owner, err)
	}
	// Extra records can only come from outside the session; fold
	// them away so the owner has one.
	for _, duplicate := range existing[min(1, len(existing)):] {
		duplicateID, _ := duplicate.ID()
		if err := c.store.Remove(ctx, c.restrictionTable, duplicateID); err != nil {
			return fmt.Errorf("session: removing duplicate restriction of %s: %w", owner, err)
		}
		c.logger.Warn("removed duplicate restriction", "owner", owner.String(), "restriction_id", duplicateID)
	}

	var current record.Record
	if len(existing) > 0 {
		current = existing[0]
	}

	switch {
	case on && current == nil:
		restrictionID, err := c.store.NextID(ctx, c.restrictionTable)
		if err != nil {
			return fmt.Errorf("session: allocating restriction id: %w", err)
		}
		current = record.New(restrictionID)
		current.SetReference(owner)
		current[record.FieldRestriction] = record.Confidential
		return c.putRestriction(ctx, owner, current)

	case on:
		if current.String(record.FieldRestriction) == record.Confidential {
			return nil
		}
		current[record.FieldRestriction] = record.Confidential
		return c.putRestriction(ctx, owner, current)

	case current == nil:
		// Absence already means public.
		return nil

	case c.restrictionOff == RestrictionPublic:
		if current.String(record.FieldRestriction) == record.Public {
			return nil
		}
		current[record.FieldRestriction] = record.Public
		return c.putRestriction(ctx, owner, current)

	default:
		restrictionID, _ := current.ID()
		if err := c.store.Remove(ctx, c.restrictionTable, restrictionID); err != nil {
			return fmt.Errorf("session: removing restriction of %s: %w", owner, err)
		}
		c.logger.Info("restriction removed", "id", id)
		return nil
	}
}

// Restricted reports whether the selected record is confidential.
func (c *Controller) Restricted(ctx context.Context) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if c.state != Selected {
		return false, ErrNoSelection
	}
	id, _ := c.working.ID()
	existing, err := c.store.FindByReference(ctx, c.restrictionTable, record.Reference{Table: c.table, ID: id})
	if err != nil {
		return false, fmt.Errorf("session: finding restriction of %s/%d: %w", c.table, id, err)
	}
	for _, restriction := range existing {
		if restriction.String(record.FieldRestriction) == record.Confidential {
			return true, nil
		}
	}
	return false, nil
}

func (c *Controller) putRestriction(ctx context.Context, owner record.Reference, restriction record.Record) error {
	if err := c.store.Put(ctx, c.restrictionTable, restriction); err != nil {
		return fmt.Errorf("session: storing restriction of %s: %w", owner, err)
	}
	c.logger.Info("restriction set",
		"id", owner.ID,
		"restriction", restriction.String(record.FieldRestriction),
	)
	return nil
}
