// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package phases

import (
	"strings"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// WindowSize bounds how many recent messages the validator reads.
const WindowSize = 12

// Validation is the result of scoring a window against one phase.
type Validation struct {
	// CompletionScore is capturedCount / totalDeliverables, in [0,1].
	CompletionScore float64

	// Extracted maps captured deliverable names to their values.
	Extracted map[string]string

	// Missing lists uncaptured deliverable names in definition order.
	Missing []string
}

// Validate scores the recent conversation window against a phase's
// deliverables.
//
// # Description
//
// The most recent WindowSize messages are concatenated into one searchable
// text; each deliverable's strategies run against it in order and the first
// capture wins. Pure and side-effect-free: PhaseState is never touched here.
//
// # Inputs
//
//   - phase: the phase definition to score against.
//   - window: the conversation messages, oldest first. Only the most
//     recent WindowSize entries are read.
//
// # Outputs
//
//   - Validation with the completion score, captured values, and the
//     missing deliverable names in definition order.
func Validate(phase PhaseDefinition, window []datatypes.Message) Validation {
	text := windowText(window)

	result := Validation{Extracted: make(map[string]string, len(phase.Deliverables))}
	for _, deliverable := range phase.Deliverables {
		value, ok := deliverable.Extract(text)
		if ok {
			result.Extracted[deliverable.Name] = value
			continue
		}
		result.Missing = append(result.Missing, deliverable.Name)
	}

	if len(phase.Deliverables) > 0 {
		result.CompletionScore = float64(len(result.Extracted)) / float64(len(phase.Deliverables))
	}
	return result
}

// windowText concatenates the bounded recent window into one string.
func windowText(window []datatypes.Message) string {
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}
	var b strings.Builder
	for _, msg := range window {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
