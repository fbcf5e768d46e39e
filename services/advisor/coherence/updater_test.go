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
	"errors"
	"sync/atomic"
	"testing"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/signals"
	"github.com/WayfinderAI/WayfinderCoach/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM returns canned output or an error.
type stubLLM struct {
	output string
	err    error
	calls  atomic.Int64
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	s.calls.Add(1)
	return s.output, s.err
}

func newTestUpdater(t *testing.T, client llm.Client) *Updater {
	t.Helper()
	extractor, err := signals.NewExtractor()
	require.NoError(t, err)
	return NewUpdater(client, extractor)
}

func window(contents ...string) []datatypes.Message {
	msgs := make([]datatypes.Message, 0, len(contents))
	for i, c := range contents {
		msgs = append(msgs, datatypes.Message{Role: "user", Content: c, Turn: i + 1})
	}
	return msgs
}

func TestTrackerStartsNeutral(t *testing.T) {
	tracker := NewTracker()
	snap := tracker.Snapshot()
	assert.EqualValues(t, 0, snap.Generation)
	assert.Equal(t, datatypes.NewNeutralSnapshot(), snap)
}

func TestPublishIncrementsGeneration(t *testing.T) {
	tracker := NewTracker()
	tracker.publish(datatypes.CoherenceSnapshot{DataGrounding: 8})
	assert.EqualValues(t, 1, tracker.Snapshot().Generation)
	tracker.publish(datatypes.CoherenceSnapshot{DataGrounding: 9})
	assert.EqualValues(t, 2, tracker.Snapshot().Generation)
}

func TestMaybeScheduleRespectsInterval(t *testing.T) {
	client := &stubLLM{output: "data_grounding: 7\nassumption_awareness: 6\nevidence_quality: 5"}
	u := newTestUpdater(t, client)
	tracker := NewTracker()

	// Turns 1-4 are below the interval.
	for turn := 1; turn <= 4; turn++ {
		assert.False(t, u.MaybeSchedule("sess-1", tracker, turn, window("hello")))
	}

	// Turn 5 triggers the first run.
	assert.True(t, u.MaybeSchedule("sess-1", tracker, 5, window("hello")))
	u.Wait()

	// Turn 6 is too soon after the turn-5 run.
	assert.False(t, u.MaybeSchedule("sess-1", tracker, 6, window("hello")))

	// Turn 10 is due again.
	assert.True(t, u.MaybeSchedule("sess-1", tracker, 10, window("hello")))
	u.Wait()

	assert.EqualValues(t, 2, client.calls.Load())
	assert.EqualValues(t, 2, tracker.Snapshot().Generation)
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	u := newTestUpdater(t, nil)
	tracker := NewTracker()

	// Claim the in-flight slot by hand to simulate a slow run.
	require.True(t, tracker.tryBegin(5, DefaultInterval))
	assert.False(t, u.MaybeSchedule("sess-1", tracker, 10, window("hi")),
		"an in-flight run must suppress new ones")
	tracker.end()

	assert.True(t, u.MaybeSchedule("sess-1", tracker, 15, window("hi")))
	u.Wait()
}

func TestFailedRunKeepsPreviousSnapshot(t *testing.T) {
	client := &stubLLM{err: errors.New("model offline")}
	u := newTestUpdater(t, client)
	tracker := NewTracker()

	before := tracker.Snapshot()
	require.True(t, u.MaybeSchedule("sess-1", tracker, 5, window("hello")))
	u.Wait()

	assert.Equal(t, before, tracker.Snapshot(), "failure must leave the snapshot untouched")

	// The next due turn retries.
	client.err = nil
	client.output = "data_grounding: 9\nassumption_awareness: 9\nevidence_quality: 9"
	require.True(t, u.MaybeSchedule("sess-1", tracker, 10, window("hello")))
	u.Wait()
	assert.EqualValues(t, 1, tracker.Snapshot().Generation)
	assert.Equal(t, 9.0, tracker.Snapshot().DataGrounding)
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "clean output",
			raw:  "data_grounding: 7\nassumption_awareness: 5.5\nevidence_quality: 6",
		},
		{
			name: "prose around scores",
			raw:  "Here is my rating.\ndata_grounding: 3\nassumption_awareness: 4\nevidence_quality: 2\nHope that helps!",
		},
		{
			name:    "missing dimension",
			raw:     "data_grounding: 7\nevidence_quality: 6",
			wantErr: true,
		},
		{
			name:    "no scores at all",
			raw:     "I cannot rate this conversation.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := parseScores(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, snap.DataGrounding, 0.0)
			assert.LessOrEqual(t, snap.DataGrounding, 10.0)
		})
	}
}

func TestParseScoresClampsRange(t *testing.T) {
	snap, err := parseScores("data_grounding: 99\nassumption_awareness: 5\nevidence_quality: 0")
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.DataGrounding)
	assert.Equal(t, 0.0, snap.EvidenceQuality)
}

func TestHeuristicScoreWithoutLLM(t *testing.T) {
	u := newTestUpdater(t, nil)

	grounded := u.heuristicScore(window(
		"According to the census, 40% of households are affected",
		"The data shows 1,200 incidents per year",
	))
	ungrounded := u.heuristicScore(window(
		"Everyone knows this will definitely work",
		"Obviously the market wants it",
	))

	assert.Greater(t, grounded.DataGrounding, ungrounded.DataGrounding)
	assert.Greater(t, grounded.AssumptionAwareness, ungrounded.AssumptionAwareness)
}

func TestHeuristicScoreEmptyWindow(t *testing.T) {
	u := newTestUpdater(t, nil)
	assert.Equal(t, datatypes.NewNeutralSnapshot(), u.heuristicScore(nil))
}
