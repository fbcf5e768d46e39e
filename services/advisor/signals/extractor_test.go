// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signals

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor()
	require.NoError(t, err, "embedded pattern file must compile")
	return e
}

func TestExtractAssumptionMarkers(t *testing.T) {
	e := newTestExtractor(t)

	// The canonical two-assumption message.
	set := e.Extract("Assuming the market grows 20% annually, and if we suppose millennials prefer mobile-first")
	assert.Equal(t, 2, set.AssumptionCount)
	assert.True(t, set.HasQuantitativeData, "20% is quantitative data")
}

func TestExtractCertaintyAndForwardLooking(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name    string
		message string
		check   func(t *testing.T, set datatypes.SignalSet)
	}{
		{
			name:    "certainty without data",
			message: "This will definitely work, everyone knows mobile is the future",
			check: func(t *testing.T, set datatypes.SignalSet) {
				assert.GreaterOrEqual(t, set.CertaintyCount, 2)
				assert.False(t, set.HasQuantitativeData)
				assert.True(t, set.ForwardLooking(), "'the future' is forward looking")
			},
		},
		{
			name:    "forward looking by year",
			message: "By 2030 the market will reach saturation",
			check: func(t *testing.T, set datatypes.SignalSet) {
				assert.True(t, set.ForwardLooking())
			},
		},
		{
			name:    "grounded claim",
			message: "According to the 2023 census, 1,200,000 households were affected",
			check: func(t *testing.T, set datatypes.SignalSet) {
				assert.True(t, set.HasQuantitativeData)
				assert.Zero(t, set.CertaintyCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, e.Extract(tt.message))
		})
	}
}

func TestExtractContentType(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name    string
		message string
		want    datatypes.ContentType
	}{
		{"problem focused", "Small retailers struggle with inventory, it is a real pain point and a growing problem", datatypes.ContentProblemFocused},
		{"solution focused", "My idea is a solution: we should build the app with a rewards feature", datatypes.ContentSolutionFocused},
		{"general", "Tell me about scenario planning", datatypes.ContentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.message).ContentType)
		})
	}
}

func TestExtractEmptyMessage(t *testing.T) {
	e := newTestExtractor(t)

	set := e.Extract("")
	assert.Zero(t, set.AssumptionCount)
	assert.Zero(t, set.CertaintyCount)
	assert.Zero(t, set.ForwardLookingCount)
	assert.Zero(t, set.ProblemMentions)
	assert.Zero(t, set.SolutionMentions)
	assert.False(t, set.HasQuantitativeData)
	assert.Equal(t, datatypes.ContentGeneral, set.ContentType)
}

func TestExtractNeverBlowsUpOnHostileInput(t *testing.T) {
	e := newTestExtractor(t)

	inputs := []string{
		strings.Repeat("assuming ", 10_000),
		strings.Repeat("a", 1_000_000),
		"\x00\xff\xfe garbage bytes \x01",
		"((((((((((",
		"%%%%%$$$$$",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() { e.Extract(input) })
	}
}

func TestExtractBoundedTime(t *testing.T) {
	e := newTestExtractor(t)
	message := strings.Repeat("the market will grow 20% and everyone knows it, assuming trends hold. ", 100)

	start := time.Now()
	for i := 0; i < 50; i++ {
		e.Extract(message)
	}
	elapsed := time.Since(start)
	// 50 extractions over a ~7KB message; generous bound for CI machines.
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSafeCountAbsorbsPanic(t *testing.T) {
	// A nil regexp panics on use; safeCount must convert that to zero
	// matches instead of taking down the turn path.
	g := &matcherGroup{name: "broken", patterns: []*regexp.Regexp{nil}}
	assert.NotPanics(t, func() {
		assert.Zero(t, g.count("anything"))
	})
}

func TestExtractDeterminism(t *testing.T) {
	e := newTestExtractor(t)
	msg := "Assuming growth, the solution will definitely launch by 2030 despite the problem"

	first := e.Extract(msg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(msg))
	}
}
