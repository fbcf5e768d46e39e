// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"testing"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/stretchr/testify/assert"
)

func TestNoopAdapterIsUnavailable(t *testing.T) {
	related, err := NoopAdapter{}.QueryRelated(context.Background(), "market sizing")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, related.Empty())
}

func TestMergeConceptsDeduplicates(t *testing.T) {
	concepts := []datatypes.ConceptResult{
		{
			Name:       "market sizing",
			Tools:      []string{"evidence", "gov_data"},
			Techniques: []string{"TAM/SAM/SOM"},
			Frameworks: []string{"validate-with-evidence"},
		},
		{
			Name:       "market research",
			Tools:      []string{"evidence", "dataset"},
			Techniques: []string{"TAM/SAM/SOM", "cohort analysis"},
			Frameworks: []string{"validate-with-evidence", "trend-extrapolation"},
		},
	}

	related := mergeConcepts(concepts)
	assert.Equal(t, []datatypes.ToolCategory{
		datatypes.ToolEvidence, datatypes.ToolGovData, datatypes.ToolDataset,
	}, related.Tools)
	assert.Equal(t, []string{"TAM/SAM/SOM", "cohort analysis"}, related.Techniques)
	assert.Equal(t, []string{"validate-with-evidence", "trend-extrapolation"}, related.Frameworks)
}

func TestMergeConceptsSkipsUnknownCategories(t *testing.T) {
	concepts := []datatypes.ConceptResult{
		{Tools: []string{"crystal_ball", "news"}},
	}

	related := mergeConcepts(concepts)
	assert.Equal(t, []datatypes.ToolCategory{datatypes.ToolNews}, related.Tools)
}

func TestRelatedEmpty(t *testing.T) {
	assert.True(t, Related{}.Empty())
	assert.False(t, Related{Techniques: []string{"x"}}.Empty())
}
