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

import (
	"testing"
)

func TestParseMethodologyID(t *testing.T) {
	for _, known := range AllMethodologies() {
		got, err := ParseMethodologyID(string(known))
		if err != nil {
			t.Errorf("known methodology %q rejected: %v", known, err)
		}
		if got != known {
			t.Errorf("ParseMethodologyID(%q) = %q", known, got)
		}
	}

	if _, err := ParseMethodologyID("speed-reading"); err == nil {
		t.Error("unknown methodology should be rejected")
	}
	if _, err := ParseMethodologyID(""); err == nil {
		t.Error("empty methodology should be rejected")
	}
}

func TestToolCategoryOrderIsFixed(t *testing.T) {
	want := []ToolCategory{ToolEvidence, ToolPriorArt, ToolTrend, ToolGovData, ToolDataset, ToolNews}
	got := ToolCategoryOrder()
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPhaseStateClone(t *testing.T) {
	state := NewPhaseState("sess-1", "scenario-planning")
	state.Deliverables["domain"] = "urban mobility"
	state.History = append(state.History, PhaseTransition{FromPhase: 0, ToPhase: 1})

	clone := state.Clone()
	clone.Deliverables["domain"] = "changed"
	clone.History[0].Forced = true
	clone.PhaseIndex = 3

	if state.Deliverables["domain"] != "urban mobility" {
		t.Error("clone mutation leaked into original deliverables")
	}
	if state.History[0].Forced {
		t.Error("clone mutation leaked into original history")
	}
	if state.PhaseIndex != 0 {
		t.Error("clone mutation leaked into original index")
	}
}

func TestRecentWindow(t *testing.T) {
	msgs := []Message{{Turn: 1}, {Turn: 2}, {Turn: 3}, {Turn: 4}}

	got := RecentWindow(msgs, 2)
	if len(got) != 2 || got[0].Turn != 3 || got[1].Turn != 4 {
		t.Errorf("RecentWindow(4 msgs, 2) = %v", got)
	}
	if len(RecentWindow(msgs, 10)) != 4 {
		t.Error("window larger than history should return everything")
	}
	if len(RecentWindow(msgs, 0)) != 4 {
		t.Error("non-positive n should return everything")
	}
}

func TestNeutralSnapshot(t *testing.T) {
	snap := NewNeutralSnapshot()
	if snap.Generation != 0 {
		t.Error("neutral snapshot must be generation zero")
	}
	for name, v := range map[string]float64{
		"data_grounding":       snap.DataGrounding,
		"assumption_awareness": snap.AssumptionAwareness,
		"evidence_quality":     snap.EvidenceQuality,
	} {
		if v < 0 || v > 10 {
			t.Errorf("%s out of range: %v", name, v)
		}
	}
}
