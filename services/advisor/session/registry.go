// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session holds the in-memory per-session conversation state: the
// bounded message window, the turn counter, the coherence tracker, and the
// last background graph result.
//
// Sessions are never shared across session IDs; everything cross-session
// goes through the lookup cache or the phase store.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/coherence"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/graph"
)

// maxWindow bounds the retained message history per session. The validator
// and coherence pass read far fewer; anything older has no consumer.
const maxWindow = 48

// Session is one conversation's in-memory state.
//
// Thread Safety: all methods are safe for concurrent use, though the
// request path for one session is effectively serial.
type Session struct {
	ID      string
	Tracker *coherence.Tracker

	mu       sync.Mutex
	messages []datatypes.Message
	turn     int

	// graphHits is the latest background graph result, published the same
	// copy-on-write way as the coherence snapshot.
	graphHits atomic.Pointer[graph.Related]
}

func newSession(id string) *Session {
	s := &Session{
		ID:      id,
		Tracker: coherence.NewTracker(),
	}
	s.graphHits.Store(&graph.Related{})
	return s
}

// Append records one message and returns it with its turn number filled.
// The turn counter advances on user messages only.
func (s *Session) Append(role, content string) datatypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == "user" {
		s.turn++
	}
	msg := datatypes.Message{
		Role:      role,
		Content:   content,
		Turn:      s.turn,
		Timestamp: time.Now().UnixMilli(),
	}
	s.messages = append(s.messages, msg)
	if len(s.messages) > maxWindow {
		s.messages = s.messages[len(s.messages)-maxWindow:]
	}
	return msg
}

// Window returns a copy of the retained messages, oldest first.
func (s *Session) Window() []datatypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]datatypes.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Turn returns the current user-turn count.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// GraphHits returns the latest published graph result by value.
func (s *Session) GraphHits() graph.Related {
	return *s.graphHits.Load()
}

// PublishGraphHits swaps in a new graph result for subsequent turns.
func (s *Session) PublishGraphHits(r graph.Related) {
	s.graphHits.Store(&r)
}

// Registry owns all live sessions.
//
// Thread Safety: safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it on first sight.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	r.sessions[id] = s
	return s
}

// Get returns the session for id if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session. In-flight background units for it may still
// complete, which is harmless; their results are simply unread.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
