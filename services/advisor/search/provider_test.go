// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "electric scooters", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(httpResponse{Items: []Item{
			{Title: "Scooter adoption study", Link: "https://example.org/1", Snippet: "..."},
			{Title: "", Link: "https://example.org/untitled"}, // dropped
			{Title: "No link"},                                // dropped
			{Title: "Another", Link: "https://example.org/2"},
		}})
	}))
	defer server.Close()

	p := NewHTTPProvider(datatypes.ToolEvidence, server.URL)
	items, err := p.Search(context.Background(), "electric scooters")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Scooter adoption study", items[0].Title)
}

func TestHTTPProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider(datatypes.ToolNews, server.URL)
	_, err := p.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(map[datatypes.ToolCategory]Provider{
		datatypes.ToolNews: NewHTTPProvider(datatypes.ToolNews, "http://localhost:0"),
	})

	_, err := reg.Provider(datatypes.ToolNews)
	assert.NoError(t, err)

	_, err = reg.Provider(datatypes.ToolPriorArt)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.Equal(t, []datatypes.ToolCategory{datatypes.ToolNews}, reg.Configured())
}

func TestRegistryFromEnv(t *testing.T) {
	t.Setenv("WAYFINDER_SEARCH_NEWS_URL", "http://news-proxy:8080/search")
	t.Setenv("WAYFINDER_SEARCH_GOV_DATA_URL", "http://data-proxy:8080/search")

	reg := NewRegistryFromEnv()
	configured := reg.Configured()
	assert.Contains(t, configured, datatypes.ToolNews)
	assert.Contains(t, configured, datatypes.ToolGovData)
	assert.NotContains(t, configured, datatypes.ToolEvidence)
}
