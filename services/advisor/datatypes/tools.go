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

// ToolCategory identifies one of the fixed external research tool slots.
type ToolCategory string

const (
	ToolEvidence ToolCategory = "evidence"  // academic / evidence search
	ToolPriorArt ToolCategory = "prior_art" // patents and prior work
	ToolTrend    ToolCategory = "trend"     // trend and adoption curves
	ToolGovData  ToolCategory = "gov_data"  // government statistics
	ToolDataset  ToolCategory = "dataset"   // open dataset search
	ToolNews     ToolCategory = "news"      // current news
)

// ToolCategoryOrder is the fixed presentation order. It is a predictability
// choice, not a relevance ranking: the UI always renders slots in this order
// no matter how many reasons each accumulated.
func ToolCategoryOrder() []ToolCategory {
	return []ToolCategory{
		ToolEvidence,
		ToolPriorArt,
		ToolTrend,
		ToolGovData,
		ToolDataset,
		ToolNews,
	}
}

// ValidToolCategory reports membership in the fixed category set.
func ValidToolCategory(c ToolCategory) bool {
	for _, known := range ToolCategoryOrder() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseToolCategory validates a raw category from a request or config file.
func ParseToolCategory(raw string) (ToolCategory, error) {
	c := ToolCategory(raw)
	if !ValidToolCategory(c) {
		return "", fmt.Errorf("unknown tool category %q", raw)
	}
	return c, nil
}

// ToolCandidate is one tool slot in a SuggestionSet.
type ToolCandidate struct {
	Category ToolCategory `json:"category"`
	Shown    bool         `json:"shown"`
	// Reasons are human-readable justifications in accumulation order
	// (graph first, then signals, then context, then fallback).
	Reasons []string `json:"reasons,omitempty"`
	// Layers names the sources that contributed ("graph", "signals",
	// "context", "fallback").
	Layers []string `json:"layers,omitempty"`
}

// AgentSuggestion is one recommended peer methodology.
type AgentSuggestion struct {
	Methodology MethodologyID `json:"methodology"`
	Score       float64       `json:"score"`
	// Reason is the justification behind the largest score contribution.
	Reason string `json:"reason"`
}

// SuggestionSet is the per-turn output handed to the presentation layer.
type SuggestionSet struct {
	Tools  []ToolCandidate   `json:"tools"`
	Agents []AgentSuggestion `json:"agents"`
}
