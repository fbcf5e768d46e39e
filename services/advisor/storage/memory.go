// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"sync"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// MemoryStore is a map-backed Store for unit tests and ephemeral runs.
// Values are cloned on both read and write so callers can never alias the
// stored state.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*datatypes.PhaseState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*datatypes.PhaseState)}
}

// GetPhaseState implements Store.
func (s *MemoryStore) GetPhaseState(ctx context.Context, sessionID, pipelineID string) (*datatypes.PhaseState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[string(phaseKey(sessionID, pipelineID))]
	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

// PutPhaseState implements Store.
func (s *MemoryStore) PutPhaseState(ctx context.Context, sessionID, pipelineID string, state *datatypes.PhaseState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[string(phaseKey(sessionID, pipelineID))] = state.Clone()
	return nil
}

// DeletePhaseState implements Store.
func (s *MemoryStore) DeletePhaseState(ctx context.Context, sessionID, pipelineID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, string(phaseKey(sessionID, pipelineID)))
	return nil
}

// Close implements Store. No resources to release.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
