// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coherence

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/signals"
	"github.com/WayfinderAI/WayfinderCoach/services/llm"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wayfinder.advisor.coherence")

// DefaultInterval is how many turns pass between background runs.
const DefaultInterval = 5

// DefaultTimeout bounds one background scoring call.
const DefaultTimeout = 30 * time.Second

// Updater schedules and runs the detached coherence pass.
//
// When an LLM client is configured the pass asks it to rate the recent
// window; otherwise the pass derives the dimensions from aggregate signal
// counts. Either way a failed run leaves the previous snapshot untouched
// and is never surfaced to the user.
type Updater struct {
	client    llm.Client // nil means heuristics only
	extractor *signals.Extractor
	interval  int
	timeout   time.Duration

	// wg tracks in-flight runs so tests and shutdown can wait for them.
	wg sync.WaitGroup
}

// NewUpdater creates an Updater. client may be nil.
func NewUpdater(client llm.Client, extractor *signals.Extractor) *Updater {
	return &Updater{
		client:    client,
		extractor: extractor,
		interval:  DefaultInterval,
		timeout:   DefaultTimeout,
	}
}

// MaybeSchedule kicks off a background pass for the session if one is due
// and none is in flight. Returns true when a run was scheduled.
//
// The run is detached: it owns its own context and may outlive the request
// (and even the session) that triggered it, which is harmless; the result
// is simply unread.
func (u *Updater) MaybeSchedule(sessionID string, tracker *Tracker, turn int, window []datatypes.Message) bool {
	if !tracker.tryBegin(turn, u.interval) {
		return false
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer tracker.end()

		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		defer cancel()
		u.run(ctx, sessionID, tracker, window)
	}()
	return true
}

// Wait blocks until every in-flight run has finished. For shutdown/tests.
func (u *Updater) Wait() {
	u.wg.Wait()
}

func (u *Updater) run(ctx context.Context, sessionID string, tracker *Tracker, window []datatypes.Message) {
	ctx, span := tracer.Start(ctx, "Updater.run")
	defer span.End()

	// Detached runs get their own correlation ID since they outlive the
	// request span that triggered them.
	runID := uuid.NewString()

	snapshot, err := u.score(ctx, window)
	if err != nil {
		// Never surfaced to the user; the previous snapshot stays visible.
		slog.Warn("Coherence pass failed, keeping previous snapshot",
			"session_id", sessionID, "run_id", runID, "error", err)
		return
	}

	tracker.publish(snapshot)
	slog.Debug("Published coherence snapshot",
		"session_id", sessionID,
		"run_id", runID,
		"generation", tracker.Snapshot().Generation,
		"data_grounding", snapshot.DataGrounding,
		"assumption_awareness", snapshot.AssumptionAwareness,
		"evidence_quality", snapshot.EvidenceQuality)
}

func (u *Updater) score(ctx context.Context, window []datatypes.Message) (datatypes.CoherenceSnapshot, error) {
	if u.client == nil {
		return u.heuristicScore(window), nil
	}

	prompt := buildScoringPrompt(window)
	raw, err := u.client.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return datatypes.CoherenceSnapshot{}, fmt.Errorf("coherence scoring call failed: %w", err)
	}
	snapshot, err := parseScores(raw)
	if err != nil {
		return datatypes.CoherenceSnapshot{}, fmt.Errorf("coherence scoring output unparseable: %w", err)
	}
	return snapshot, nil
}

// heuristicScore derives the dimensions from aggregate signals so the
// engine keeps functioning with no LLM configured.
func (u *Updater) heuristicScore(window []datatypes.Message) datatypes.CoherenceSnapshot {
	if len(window) == 0 {
		return datatypes.NewNeutralSnapshot()
	}

	var userTurns, quantitative, assumptions, certainty int
	for _, msg := range window {
		if msg.Role != "user" {
			continue
		}
		userTurns++
		set := u.extractor.Extract(msg.Content)
		if set.HasQuantitativeData {
			quantitative++
		}
		assumptions += set.AssumptionCount
		certainty += set.CertaintyCount
	}
	if userTurns == 0 {
		return datatypes.NewNeutralSnapshot()
	}

	// Grounding and evidence follow the share of data-bearing turns.
	grounded := float64(quantitative) / float64(userTurns) * 10

	// Awareness: naming assumptions is good, piling up unexamined
	// certainty is not.
	awareness := 5.0 + float64(assumptions)*0.5 - float64(certainty)*0.5

	return datatypes.CoherenceSnapshot{
		DataGrounding:       clamp(grounded),
		AssumptionAwareness: clamp(awareness),
		EvidenceQuality:     clamp(grounded*0.8 + 1),
	}
}

func buildScoringPrompt(window []datatypes.Message) string {
	var b strings.Builder
	b.WriteString("Rate the following coaching conversation on three dimensions, each 0-10.\n")
	b.WriteString("Reply with exactly three lines:\n")
	b.WriteString("data_grounding: <score>\nassumption_awareness: <score>\nevidence_quality: <score>\n\n")
	b.WriteString("Conversation:\n")
	for _, msg := range window {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

var scoreLine = regexp.MustCompile(`(?im)^\s*(data_grounding|assumption_awareness|evidence_quality)\s*:\s*([0-9]+(?:\.[0-9]+)?)`)

// parseScores extracts the three dimension scores from model output.
// All three must be present; extra prose around them is tolerated.
func parseScores(raw string) (datatypes.CoherenceSnapshot, error) {
	matches := scoreLine.FindAllStringSubmatch(raw, -1)
	found := make(map[string]float64, 3)
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		found[strings.ToLower(m[1])] = clamp(value)
	}

	for _, key := range []string{"data_grounding", "assumption_awareness", "evidence_quality"} {
		if _, ok := found[key]; !ok {
			return datatypes.CoherenceSnapshot{}, fmt.Errorf("missing %s in scoring output", key)
		}
	}

	return datatypes.CoherenceSnapshot{
		DataGrounding:       found["data_grounding"],
		AssumptionAwareness: found["assumption_awareness"],
		EvidenceQuality:     found["evidence_quality"],
	}, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
