// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// PhaseStatus is the lifecycle status of a phase-bearing workshop.
type PhaseStatus string

const (
	PhaseActive   PhaseStatus = "active"
	PhaseComplete PhaseStatus = "complete"
)

// TransitionStatus is the outcome of a single advance request.
type TransitionStatus string

const (
	TransitionIncomplete TransitionStatus = "incomplete"
	TransitionAdvanced   TransitionStatus = "advanced"
	TransitionComplete   TransitionStatus = "complete"
)

// PhaseTransition is one audit record in the transition history.
type PhaseTransition struct {
	FromPhase int   `json:"from_phase"`
	ToPhase   int   `json:"to_phase"`
	Timestamp int64 `json:"timestamp_ms"`
	// Forced records that the user advanced past an incomplete phase.
	// The override is always honored and always recorded.
	Forced bool `json:"forced"`
}

// PhaseState is the durable per-(session, pipeline) workshop state.
// It is keyed by the pipeline identity, never by the methodology currently
// on screen, so switching methodologies and back restores it unchanged.
// Only the phase orchestrator mutates it.
type PhaseState struct {
	SessionID  string `json:"session_id"`
	PipelineID string `json:"pipeline_id"`

	PhaseIndex int         `json:"phase_index"`
	Status     PhaseStatus `json:"status"`

	// Deliverables maps deliverable name to the captured value.
	Deliverables map[string]string `json:"deliverables"`

	LastCompletionScore float64           `json:"last_completion_score"`
	History             []PhaseTransition `json:"history"`
}

// NewPhaseState returns the initial state for a session entering a pipeline.
func NewPhaseState(sessionID, pipelineID string) *PhaseState {
	return &PhaseState{
		SessionID:    sessionID,
		PipelineID:   pipelineID,
		PhaseIndex:   0,
		Status:       PhaseActive,
		Deliverables: make(map[string]string),
	}
}

// Clone returns a deep copy. The orchestrator mutates a clone and swaps it
// in after the store write succeeds, so readers never see partial updates.
func (p *PhaseState) Clone() *PhaseState {
	clone := *p
	clone.Deliverables = make(map[string]string, len(p.Deliverables))
	for k, v := range p.Deliverables {
		clone.Deliverables[k] = v
	}
	clone.History = make([]PhaseTransition, len(p.History))
	copy(clone.History, p.History)
	return &clone
}

// EnrichmentSection is one provider's contribution to a transition message.
// Providers that are unavailable simply contribute no section.
type EnrichmentSection struct {
	Source string   `json:"source"` // "graph" or a tool category
	Lines  []string `json:"lines"`
}

// TransitionResult is the outcome of an advance request, handed to the
// presentation layer.
type TransitionResult struct {
	Status          TransitionStatus    `json:"status"`
	Message         string              `json:"message"`
	CompletionScore float64             `json:"completion_score"`
	Missing         []string            `json:"missing,omitempty"`
	Enrichment      []EnrichmentSection `json:"enrichment,omitempty"`
}
