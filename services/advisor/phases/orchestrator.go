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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/cache"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/graph"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/search"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/storage"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wayfinder.advisor.phases")

// DefaultEnrichTimeout bounds the enrichment fetches of one transition.
const DefaultEnrichTimeout = 5 * time.Second

// maxEnrichmentCategories caps how many search categories one transition
// queries.
const maxEnrichmentCategories = 2

// maxEnrichmentLines caps the lines one enrichment section carries.
const maxEnrichmentLines = 3

// OrchestratorConfig wires the orchestrator's collaborators. Pipelines and
// Store are required; the rest degrade to "no contribution" when absent.
type OrchestratorConfig struct {
	Pipelines *PipelineSet
	Store     storage.Store

	// Graph provides transition enrichment; nil skips the graph section.
	Graph graph.Adapter

	// Cache and Search together provide cached search enrichment; either
	// being nil skips those sections.
	Cache  *cache.LookupCache
	Search *search.Registry

	// Now is the clock source; nil means time.Now.
	Now func() time.Time

	// EnrichTimeout bounds enrichment fetches; zero means the default.
	EnrichTimeout time.Duration
}

// Orchestrator is the state machine governing phase advancement.
//
// Transitions happen only on explicit advance requests, never from message
// content. Within one (session, pipeline) requests arrive serially from the
// owning session's request path; across sessions the orchestrator is safe
// for concurrent use because all mutable state lives in the store.
type Orchestrator struct {
	pipelines     *PipelineSet
	store         storage.Store
	graph         graph.Adapter
	cache         *cache.LookupCache
	search        *search.Registry
	now           func() time.Time
	enrichTimeout time.Duration
}

// NewOrchestrator validates the config and builds an orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Pipelines == nil {
		return nil, fmt.Errorf("phases: pipeline set is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("phases: store is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = DefaultEnrichTimeout
	}
	return &Orchestrator{
		pipelines:     cfg.Pipelines,
		store:         cfg.Store,
		graph:         cfg.Graph,
		cache:         cfg.Cache,
		search:        cfg.Search,
		now:           cfg.Now,
		enrichTimeout: cfg.EnrichTimeout,
	}, nil
}

// Status returns the current PhaseState for (sessionID, pipelineID).
// A session that has not engaged the pipeline reads as the initial state;
// nothing is persisted by a status read.
func (o *Orchestrator) Status(ctx context.Context, sessionID, pipelineID string) (*datatypes.PhaseState, error) {
	if _, err := o.pipelines.Pipeline(pipelineID); err != nil {
		return nil, err
	}
	state, err := o.store.GetPhaseState(ctx, sessionID, pipelineID)
	if errors.Is(err, storage.ErrNotFound) {
		return datatypes.NewPhaseState(sessionID, pipelineID), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Reset deletes the persisted state, returning the pipeline to phase zero.
// This is the only way the phase index ever decreases.
func (o *Orchestrator) Reset(ctx context.Context, sessionID, pipelineID string) error {
	if _, err := o.pipelines.Pipeline(pipelineID); err != nil {
		return err
	}
	slog.Info("Phase state reset", "session_id", sessionID, "pipeline_id", pipelineID)
	return o.store.DeletePhaseState(ctx, sessionID, pipelineID)
}

// Advance handles one explicit advance request.
//
// # Description
//
// Validates the current phase against the window. Below threshold and
// unforced, the request returns an incomplete result with guidance and the
// state is untouched. Otherwise the phase index moves forward (or the
// pipeline completes at the last phase), the transition is recorded in
// history with its forced flag, enrichment is gathered from whichever
// collaborators are available, and the updated state is persisted.
//
// The read-validate-write cycle is idempotent per logical action: a second
// request issued after a successful advance validates against the new
// current phase, so a repeated request never double-advances.
func (o *Orchestrator) Advance(ctx context.Context, sessionID, pipelineID string, window []datatypes.Message, force bool) (*datatypes.TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Advance")
	defer span.End()

	pipeline, err := o.pipelines.Pipeline(pipelineID)
	if err != nil {
		return nil, err
	}

	state, err := o.store.GetPhaseState(ctx, sessionID, pipelineID)
	if errors.Is(err, storage.ErrNotFound) {
		state = datatypes.NewPhaseState(sessionID, pipelineID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load phase state: %w", err)
	}

	if state.Status == datatypes.PhaseComplete {
		return &datatypes.TransitionResult{
			Status:          datatypes.TransitionComplete,
			Message:         fmt.Sprintf("The %s pipeline is already complete. Reset it to start over.", pipeline.Name),
			CompletionScore: 1,
		}, nil
	}

	phase := pipeline.Phases[state.PhaseIndex]
	validation := Validate(phase, window)
	merged := mergeCaptured(phase, state.Deliverables, validation)

	if merged.CompletionScore < phase.Threshold && !force {
		return &datatypes.TransitionResult{
			Status:          datatypes.TransitionIncomplete,
			Message:         guidanceMessage(phase, merged),
			CompletionScore: merged.CompletionScore,
			Missing:         merged.Missing,
		}, nil
	}

	next := state.Clone()
	for name, value := range merged.Extracted {
		next.Deliverables[name] = value
	}
	next.LastCompletionScore = merged.CompletionScore

	transition := datatypes.PhaseTransition{
		FromPhase: state.PhaseIndex,
		Timestamp: o.now().UnixMilli(),
		Forced:    force && merged.CompletionScore < phase.Threshold,
	}

	result := &datatypes.TransitionResult{CompletionScore: merged.CompletionScore}
	if state.PhaseIndex == len(pipeline.Phases)-1 {
		next.Status = datatypes.PhaseComplete
		transition.ToPhase = state.PhaseIndex
		result.Status = datatypes.TransitionComplete
		result.Message = completionMessage(pipeline, phase, merged)
	} else {
		next.PhaseIndex = state.PhaseIndex + 1
		transition.ToPhase = next.PhaseIndex
		entering := pipeline.Phases[next.PhaseIndex]
		result.Status = datatypes.TransitionAdvanced
		result.Enrichment = o.enrich(ctx, entering, next.Deliverables)
		result.Message = advanceMessage(phase, entering, merged, result.Enrichment)
	}
	next.History = append(next.History, transition)

	if err := o.store.PutPhaseState(ctx, sessionID, pipelineID, next); err != nil {
		return nil, fmt.Errorf("failed to persist phase state: %w", err)
	}

	slog.Info("Phase transition",
		"session_id", sessionID,
		"pipeline_id", pipelineID,
		"from_phase", transition.FromPhase,
		"to_phase", transition.ToPhase,
		"forced", transition.Forced,
		"completion_score", merged.CompletionScore)
	return result, nil
}

// mergeCaptured folds previously captured deliverables into a fresh
// validation. A deliverable captured in an earlier turn stays captured even
// when the bounded window has since scrolled past its mention, so the
// completion score never regresses while the conversation grows.
func mergeCaptured(phase PhaseDefinition, prior map[string]string, v Validation) Validation {
	merged := Validation{Extracted: make(map[string]string, len(phase.Deliverables))}
	for _, deliverable := range phase.Deliverables {
		if value, ok := v.Extracted[deliverable.Name]; ok {
			merged.Extracted[deliverable.Name] = value
			continue
		}
		if value, ok := prior[deliverable.Name]; ok {
			merged.Extracted[deliverable.Name] = value
			continue
		}
		merged.Missing = append(merged.Missing, deliverable.Name)
	}
	if len(phase.Deliverables) > 0 {
		merged.CompletionScore = float64(len(merged.Extracted)) / float64(len(phase.Deliverables))
	}
	return merged
}

// ============================================================================
// Enrichment
// ============================================================================

// enrich gathers optional context for the entering phase, keyed on the
// captured deliverables. Every provider is independently optional: an
// unavailable or failing one contributes no section and nothing else.
func (o *Orchestrator) enrich(ctx context.Context, entering PhaseDefinition, captured map[string]string) []datatypes.EnrichmentSection {
	anchor := anchorText(captured)
	if anchor == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.enrichTimeout)
	defer cancel()

	var sections []datatypes.EnrichmentSection
	var related graph.Related

	if o.graph != nil {
		r, err := o.graph.QueryRelated(ctx, anchor)
		if err == nil {
			related = r
			if section, ok := graphSection(r); ok {
				sections = append(sections, section)
			}
		} else if !errors.Is(err, graph.ErrUnavailable) {
			slog.Warn("Graph enrichment failed", "error", err)
		}
	}

	if o.cache == nil || o.search == nil {
		return sections
	}

	categories := related.Tools
	if len(categories) == 0 {
		categories = []datatypes.ToolCategory{datatypes.ToolEvidence}
	}
	queried := 0
	for _, category := range categories {
		if queried == maxEnrichmentCategories {
			break
		}
		provider, err := o.search.Provider(category)
		if err != nil {
			continue
		}
		queried++

		value, err := o.cache.GetOrFetch(ctx, category, anchor, func(ctx context.Context) (any, error) {
			return provider.Search(ctx, anchor)
		})
		if err != nil {
			slog.Warn("Search enrichment failed", "category", category, "error", err)
			continue
		}
		items, ok := value.([]search.Item)
		if !ok || len(items) == 0 {
			continue
		}
		sections = append(sections, searchSection(category, items))
	}
	return sections
}

// anchorText joins the captured deliverable values into one query string,
// in sorted key order so identical captures always build the same anchor.
func anchorText(captured map[string]string) string {
	keys := make([]string, 0, len(captured))
	for k := range captured {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if v := strings.TrimSpace(captured[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func graphSection(r graph.Related) (datatypes.EnrichmentSection, bool) {
	section := datatypes.EnrichmentSection{Source: "graph"}
	for _, technique := range r.Techniques {
		section.Lines = append(section.Lines, "Related technique: "+technique)
	}
	for _, framework := range r.Frameworks {
		section.Lines = append(section.Lines, "Related framework: "+framework)
	}
	if len(section.Lines) > maxEnrichmentLines {
		section.Lines = section.Lines[:maxEnrichmentLines]
	}
	return section, len(section.Lines) > 0
}

func searchSection(category datatypes.ToolCategory, items []search.Item) datatypes.EnrichmentSection {
	section := datatypes.EnrichmentSection{Source: string(category)}
	for _, item := range items {
		if len(section.Lines) == maxEnrichmentLines {
			break
		}
		section.Lines = append(section.Lines, item.Title+" ("+item.Link+")")
	}
	return section
}

// ============================================================================
// Transition messages
// ============================================================================

func guidanceMessage(phase PhaseDefinition, v Validation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The %s phase is %d%% complete. Still needed: %s.",
		phase.Name, int(v.CompletionScore*100), strings.Join(v.Missing, ", "))
	if phase.Instructions != "" {
		b.WriteString(" ")
		b.WriteString(phase.Instructions)
	}
	return b.String()
}

func advanceMessage(from, entering PhaseDefinition, v Validation, enrichment []datatypes.EnrichmentSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Captured in %s: %s.", from.Name, capturedSummary(from, v))
	fmt.Fprintf(&b, " Now entering %s.", entering.Name)
	if entering.Instructions != "" {
		b.WriteString(" ")
		b.WriteString(entering.Instructions)
	}
	for _, section := range enrichment {
		fmt.Fprintf(&b, "\n[%s] %s", section.Source, strings.Join(section.Lines, "; "))
	}
	return b.String()
}

func completionMessage(pipeline *Pipeline, last PhaseDefinition, v Validation) string {
	return fmt.Sprintf("Captured in %s: %s. The %s pipeline is complete.",
		last.Name, capturedSummary(last, v), pipeline.Name)
}

// capturedSummary lists captured deliverable names in definition order.
func capturedSummary(phase PhaseDefinition, v Validation) string {
	var names []string
	for _, deliverable := range phase.Deliverables {
		if _, ok := v.Extracted[deliverable.Name]; ok {
			names = append(names, deliverable.Name)
		}
	}
	if len(names) == 0 {
		return "nothing yet"
	}
	return strings.Join(names, ", ")
}
