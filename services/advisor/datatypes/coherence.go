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

// CoherenceSnapshot is the periodically recomputed deeper quality assessment
// of a session. All dimensions are in [0,10]. Snapshots are immutable once
// published; the coherence updater replaces the whole value, never fields.
type CoherenceSnapshot struct {
	// DataGrounding: how much of the conversation rests on actual data.
	DataGrounding float64 `json:"data_grounding"`

	// AssumptionAwareness: how explicitly assumptions are acknowledged.
	AssumptionAwareness float64 `json:"assumption_awareness"`

	// EvidenceQuality: how strong the cited evidence is.
	EvidenceQuality float64 `json:"evidence_quality"`

	// Generation increases monotonically with each completed background
	// pass. The foreground path only ever sees completed generations.
	Generation uint64 `json:"generation"`
}

// NewNeutralSnapshot is the generation-zero snapshot every session starts
// with: mid-scale scores that neither trigger nor suppress suggestions.
func NewNeutralSnapshot() CoherenceSnapshot {
	return CoherenceSnapshot{
		DataGrounding:       5,
		AssumptionAwareness: 5,
		EvidenceQuality:     5,
		Generation:          0,
	}
}
