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

// ContentType classifies the dominant framing of a single message.
type ContentType string

const (
	ContentProblemFocused  ContentType = "problem_focused"
	ContentSolutionFocused ContentType = "solution_focused"
	ContentGeneral         ContentType = "general"
)

// SignalSet holds the cheap per-message signals the extractor produces.
// Built fresh for every message and never mutated afterwards.
type SignalSet struct {
	// AssumptionCount is the number of assumption markers found
	// ("assuming", "let's say", "suppose", ...).
	AssumptionCount int `json:"assumption_count"`

	// CertaintyCount is the number of strong-certainty markers found
	// ("definitely", "obviously", "everyone knows", ...).
	CertaintyCount int `json:"certainty_count"`

	// ForwardLookingCount is the number of future-oriented markers found
	// ("will grow", "by 2030", "next year", ...).
	ForwardLookingCount int `json:"forward_looking_count"`

	// HasQuantitativeData reports whether the message carries numbers,
	// percentages, or cited figures.
	HasQuantitativeData bool `json:"has_quantitative_data"`

	// ProblemMentions and SolutionMentions count problem- and
	// solution-oriented phrasing; ContentType is derived from them.
	ProblemMentions  int `json:"problem_mentions"`
	SolutionMentions int `json:"solution_mentions"`

	ContentType ContentType `json:"content_type"`
}

// ForwardLooking reports whether any future-oriented marker was found.
func (s SignalSet) ForwardLooking() bool {
	return s.ForwardLookingCount > 0
}
