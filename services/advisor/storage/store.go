// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage persists PhaseState across turns and methodology switches.
//
// The engine is agnostic to the backing store; the Store interface is the
// whole contract. The production implementation is embedded BadgerDB
// (low-latency local KV); MemoryStore backs unit tests.
//
// Keys are (sessionID, pipelineID): the pipeline identity, never the
// methodology currently on screen. Switching to an unrelated methodology
// and back must restore phase state unchanged.
package storage

import (
	"context"
	"errors"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// ErrNotFound is returned when no PhaseState exists for the key.
var ErrNotFound = errors.New("phase state not found")

// Store is the abstract key-value persistence contract for phase state.
//
// Implementations must be safe for concurrent use across sessions. There is
// no multi-writer contention within one (session, pipeline): transitions are
// serialized by the owning session's request path.
type Store interface {
	// GetPhaseState loads the state for (sessionID, pipelineID).
	// Returns ErrNotFound when the session has not engaged this pipeline.
	GetPhaseState(ctx context.Context, sessionID, pipelineID string) (*datatypes.PhaseState, error)

	// PutPhaseState writes the state for (sessionID, pipelineID).
	PutPhaseState(ctx context.Context, sessionID, pipelineID string, state *datatypes.PhaseState) error

	// DeletePhaseState removes the state, used by explicit reset and
	// session cleanup. Deleting a missing key is not an error.
	DeletePhaseState(ctx context.Context, sessionID, pipelineID string) error

	// Close releases underlying resources.
	Close() error
}

// phaseKey builds the composite store key. Identifiers are validated at the
// API boundary (pkg/validation) so they cannot contain the separator.
func phaseKey(sessionID, pipelineID string) []byte {
	return []byte("phase/" + sessionID + "/" + pipelineID)
}
