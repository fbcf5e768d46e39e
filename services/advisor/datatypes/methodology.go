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

import "fmt"

// MethodologyID identifies one of the coaching methodologies the platform
// hosts. The set is closed: an identifier outside this enum is rejected at
// init or request time, never silently ignored.
type MethodologyID string

const (
	// MethodologySocraticInquiry probes the user's framing with questions.
	MethodologySocraticInquiry MethodologyID = "socratic-inquiry"

	// MethodologyValidateEvidence pushes for external evidence behind claims.
	MethodologyValidateEvidence MethodologyID = "validate-with-evidence"

	// MethodologyChallengeAssumptions surfaces and stress-tests assumptions.
	MethodologyChallengeAssumptions MethodologyID = "challenge-assumptions"

	// MethodologyTrendExtrapolation projects current signals forward.
	MethodologyTrendExtrapolation MethodologyID = "trend-extrapolation"

	// MethodologySystemsMapping maps actors, loops, and leverage points.
	MethodologySystemsMapping MethodologyID = "systems-mapping"

	// MethodologyPremortem imagines the plan has failed and works backwards.
	MethodologyPremortem MethodologyID = "premortem"
)

// AllMethodologies lists every methodology in stable order. Lookup tables
// keyed by MethodologyID are checked against this list at init.
func AllMethodologies() []MethodologyID {
	return []MethodologyID{
		MethodologySocraticInquiry,
		MethodologyValidateEvidence,
		MethodologyChallengeAssumptions,
		MethodologyTrendExtrapolation,
		MethodologySystemsMapping,
		MethodologyPremortem,
	}
}

// Valid reports whether the identifier is a member of the closed set.
func (m MethodologyID) Valid() bool {
	for _, known := range AllMethodologies() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMethodologyID validates a raw identifier from a request or config file.
func ParseMethodologyID(raw string) (MethodologyID, error) {
	id := MethodologyID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("unknown methodology %q", raw)
	}
	return id, nil
}
