// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package suggest implements the scoring and fusion engine.
//
// The engine is a pure function from one turn's inputs (signals, the
// latest coherence snapshot, optional graph hits, the active methodology)
// to a SuggestionSet. It performs no I/O: graph results arrive already
// fetched, and the fallback table is loaded once at construction.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/graph"
)

// ============================================================================
// Tuning constants
// ============================================================================

const (
	// AgentDisplayThreshold is the minimum score a methodology needs to be
	// suggested at all.
	AgentDisplayThreshold = 0.3

	// MaxAgentSuggestions caps the returned methodology list.
	MaxAgentSuggestions = 2

	// Signal-derived boosts. Applied exactly once each when their
	// condition holds.
	boostValidateEvidence     = 0.4 // solution framing with zero problem mentions
	boostChallengeAssumptions = 0.4 // two or more assumption markers
	boostTrendExtrapolation   = 0.3 // any forward-looking marker

	// Keyword-overlap base: each fallback-table keyword found in the
	// message contributes keywordWeight, capped at keywordCap.
	keywordWeight = 0.1
	keywordCap    = 0.3

	// graphFrameworkWeight is the relatedness contribution when the graph
	// names a methodology as a framework for the current topic.
	graphFrameworkWeight = 0.2

	// lowCoherence is the snapshot dimension value below which a
	// dimension counts as degraded and triggers tool reasons.
	lowCoherence = 4.0
)

// Reason source layers, in accumulation order.
const (
	layerGraph    = "graph"
	layerSignals  = "signals"
	layerContext  = "context"
	layerFallback = "fallback"
)

// Input carries everything one scoring pass reads. The zero value of
// Graph means "no graph contribution"; the engine never distinguishes an
// unavailable graph from an empty result.
type Input struct {
	Message  string
	Signals  datatypes.SignalSet
	Snapshot datatypes.CoherenceSnapshot
	Graph    graph.Related
	Active   datatypes.MethodologyID
}

// Engine fuses the signal sources into ranked suggestions.
// Immutable after construction and safe for concurrent use.
type Engine struct {
	table *FallbackTable
}

// NewEngine creates an engine over a loaded fallback table.
func NewEngine(table *FallbackTable) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("suggest: fallback table is required")
	}
	return &Engine{table: table}, nil
}

// Score produces the suggestion set for one turn.
//
// # Description
//
// Tool candidates accumulate reasons from four ordered sources: graph
// hits, signal rules, conversation context, and (only for categories
// still empty) the active methodology's static fallback row. A category
// is shown iff it collected at least one reason; presentation order is
// always the fixed category order regardless of reason counts.
//
// Methodology suggestions combine a keyword-overlap base, graph
// relatedness, and the signal boosts, then return the top two above the
// display threshold. The active methodology is never suggested back.
//
// # Thread Safety
//
// Safe for concurrent use; the engine holds no mutable state.
//
// Identical inputs produce identical ordered output: the sort is stable
// and ties break on the methodology identifier.
func (e *Engine) Score(in Input) datatypes.SuggestionSet {
	return datatypes.SuggestionSet{
		Tools:  e.scoreTools(in),
		Agents: e.scoreAgents(in),
	}
}

// ============================================================================
// Tool selection
// ============================================================================

type toolReason struct {
	layer string
	text  string
}

func (e *Engine) scoreTools(in Input) []datatypes.ToolCandidate {
	reasons := make(map[datatypes.ToolCategory][]toolReason)
	add := func(category datatypes.ToolCategory, layer, text string) {
		reasons[category] = append(reasons[category], toolReason{layer: layer, text: text})
	}

	// Layer 1: graph hits, the most specific source.
	seen := make(map[datatypes.ToolCategory]bool)
	for _, category := range in.Graph.Tools {
		if !datatypes.ValidToolCategory(category) || seen[category] {
			continue
		}
		seen[category] = true
		add(category, layerGraph, fmt.Sprintf("Knowledge graph links the current topic to %s resources", category))
	}

	// Layer 2: signal rules.
	s := in.Signals
	if s.CertaintyCount > 0 && !s.HasQuantitativeData {
		add(datatypes.ToolEvidence, layerSignals,
			fmt.Sprintf("%d strong claims made without supporting data", s.CertaintyCount))
	}
	if s.ForwardLooking() && !s.HasQuantitativeData {
		add(datatypes.ToolTrend, layerSignals,
			"Forward-looking claims have no quantitative baseline")
	}
	if s.AssumptionCount >= 2 {
		add(datatypes.ToolEvidence, layerSignals,
			fmt.Sprintf("%d assumptions detected that could be checked against evidence", s.AssumptionCount))
	}
	if in.Snapshot.DataGrounding < lowCoherence {
		add(datatypes.ToolDataset, layerSignals,
			"Conversation grounding is low; raw data would anchor it")
		add(datatypes.ToolGovData, layerSignals,
			"Official statistics would raise the data grounding")
	}
	if in.Snapshot.EvidenceQuality < lowCoherence {
		add(datatypes.ToolEvidence, layerSignals,
			"Evidence quality is low; published findings would strengthen it")
	}

	// Layer 3: conversation context.
	if s.ContentType == datatypes.ContentProblemFocused {
		add(datatypes.ToolPriorArt, layerContext,
			"Others have likely hit this problem; prior work may exist")
		add(datatypes.ToolNews, layerContext,
			"Recent coverage may report the same problem")
	}

	// Layer 4: the static fallback row, only where nothing else landed.
	for _, hint := range e.table.Hints(in.Active).Tools {
		if len(reasons[hint.Category]) > 0 {
			continue
		}
		add(hint.Category, layerFallback, hint.Reason)
	}

	candidates := make([]datatypes.ToolCandidate, 0, len(datatypes.ToolCategoryOrder()))
	for _, category := range datatypes.ToolCategoryOrder() {
		candidate := datatypes.ToolCandidate{Category: category}
		for _, r := range reasons[category] {
			candidate.Reasons = append(candidate.Reasons, r.text)
			if len(candidate.Layers) == 0 || candidate.Layers[len(candidate.Layers)-1] != r.layer {
				candidate.Layers = append(candidate.Layers, r.layer)
			}
		}
		candidate.Shown = len(candidate.Reasons) > 0
		candidates = append(candidates, candidate)
	}
	return candidates
}

// ============================================================================
// Agent (methodology) selection
// ============================================================================

type contribution struct {
	amount float64
	reason string
}

func (e *Engine) scoreAgents(in Input) []datatypes.AgentSuggestion {
	message := strings.ToLower(in.Message)

	graphFrameworks := make(map[datatypes.MethodologyID]bool)
	for _, raw := range in.Graph.Frameworks {
		if id, err := datatypes.ParseMethodologyID(raw); err == nil {
			graphFrameworks[id] = true
		}
	}

	var ranked []datatypes.AgentSuggestion
	for _, id := range datatypes.AllMethodologies() {
		if id == in.Active {
			continue
		}

		var contributions []contribution

		// Keyword-overlap base score.
		matched := 0
		for _, kw := range e.table.Hints(id).Keywords {
			if strings.Contains(message, strings.ToLower(kw)) {
				matched++
			}
		}
		if matched > 0 {
			base := float64(matched) * keywordWeight
			if base > keywordCap {
				base = keywordCap
			}
			contributions = append(contributions, contribution{
				amount: base,
				reason: fmt.Sprintf("Message touches %d %s themes", matched, id),
			})
		}

		// Graph relatedness.
		if graphFrameworks[id] {
			contributions = append(contributions, contribution{
				amount: graphFrameworkWeight,
				reason: fmt.Sprintf("Knowledge graph relates this topic to %s", id),
			})
		}

		// Signal boosts.
		s := in.Signals
		switch id {
		case datatypes.MethodologyValidateEvidence:
			if s.ContentType == datatypes.ContentSolutionFocused && s.ProblemMentions == 0 {
				contributions = append(contributions, contribution{
					amount: boostValidateEvidence,
					reason: "Solution framing with no problem statement yet",
				})
			}
		case datatypes.MethodologyChallengeAssumptions:
			if s.AssumptionCount >= 2 {
				contributions = append(contributions, contribution{
					amount: boostChallengeAssumptions,
					reason: fmt.Sprintf("%d assumptions detected", s.AssumptionCount),
				})
			}
		case datatypes.MethodologyTrendExtrapolation:
			if s.ForwardLooking() {
				contributions = append(contributions, contribution{
					amount: boostTrendExtrapolation,
					reason: "Forward-looking claims present",
				})
			}
		}

		if len(contributions) == 0 {
			continue
		}

		var total float64
		top := contributions[0]
		for _, c := range contributions {
			total += c.amount
			if c.amount > top.amount {
				top = c
			}
		}
		ranked = append(ranked, datatypes.AgentSuggestion{
			Methodology: id,
			Score:       total,
			Reason:      top.reason,
		})
	}

	// Stable sort descending; ties break on the identifier so identical
	// inputs always produce identical ordered output.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Methodology < ranked[j].Methodology
	})

	out := make([]datatypes.AgentSuggestion, 0, MaxAgentSuggestions)
	for _, suggestion := range ranked {
		if suggestion.Score < AgentDisplayThreshold {
			break
		}
		out = append(out, suggestion)
		if len(out) == MaxAgentSuggestions {
			break
		}
	}
	return out
}
