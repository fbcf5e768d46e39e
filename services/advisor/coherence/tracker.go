// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coherence maintains the per-session conversation-quality snapshot
// and the detached background pass that recomputes it.
//
// The foreground scoring path only ever reads the latest completed snapshot;
// publication is a whole-value copy-on-write swap, so there are no partial
// states and no locks on the read side.
package coherence

import (
	"sync/atomic"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// Tracker holds one session's snapshot and the scheduling state of its
// background pass. Created at session start, discarded at session end.
//
// Thread Safety: all methods are safe for concurrent use.
type Tracker struct {
	snapshot atomic.Pointer[datatypes.CoherenceSnapshot]
	inFlight atomic.Bool
	lastRun  atomic.Int64 // turn number of the last scheduled run
}

// NewTracker starts a session at the neutral generation-zero snapshot.
func NewTracker() *Tracker {
	t := &Tracker{}
	neutral := datatypes.NewNeutralSnapshot()
	t.snapshot.Store(&neutral)
	return t
}

// Snapshot returns the latest completed snapshot by value.
func (t *Tracker) Snapshot() datatypes.CoherenceSnapshot {
	return *t.snapshot.Load()
}

// publish swaps in a new snapshot with the next generation number.
// The value is copied; callers cannot retain a mutable reference.
func (t *Tracker) publish(s datatypes.CoherenceSnapshot) {
	s.Generation = t.snapshot.Load().Generation + 1
	t.snapshot.Store(&s)
}

// tryBegin claims the in-flight slot if the session has advanced at least
// interval turns since the last run. Returns false when a run is already
// in flight or not yet due.
func (t *Tracker) tryBegin(turn, interval int) bool {
	last := t.lastRun.Load()
	if int64(turn)-last < int64(interval) {
		return false
	}
	if !t.inFlight.CompareAndSwap(false, true) {
		return false
	}
	t.lastRun.Store(int64(turn))
	return true
}

// end releases the in-flight slot.
func (t *Tracker) end() {
	t.inFlight.Store(false)
}
