// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search holds the external research tool adapters.
//
// One provider exists per tool category. Providers are only ever invoked
// through the lookup cache and with bounded timeouts; a failing provider
// degrades to "no contribution" unless the user explicitly invoked that
// one tool, in which case its error becomes a plain descriptive message.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// ErrNotConfigured is returned when a tool category has no provider wired.
// Surfaced to the user only on explicit invocation of that category.
var ErrNotConfigured = errors.New("search provider not configured")

// Item is one search result. Providers return provider-specific payloads
// but must fill at least Title and Link.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Provider is the contract one tool category's backend fulfills.
type Provider interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpResponse is the generic JSON shape the HTTP provider expects.
type httpResponse struct {
	Items []Item `json:"items"`
}

// HTTPProvider queries a JSON search endpoint (a thin proxy in front of the
// real academic/patent/news/... APIs). The query is passed as ?q=.
type HTTPProvider struct {
	Client   HTTPClient
	Endpoint string
	Category datatypes.ToolCategory
}

// NewHTTPProvider creates a provider for one category's endpoint.
func NewHTTPProvider(category datatypes.ToolCategory, endpoint string) *HTTPProvider {
	return &HTTPProvider{
		Client:   &http.Client{Timeout: 10 * time.Second},
		Endpoint: strings.TrimSuffix(endpoint, "/"),
		Category: category,
	}
}

// Search implements Provider.
func (p *HTTPProvider) Search(ctx context.Context, query string) ([]Item, error) {
	endpoint := p.Endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build the search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search call for %s failed: %w", p.Category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read the search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint for %s returned status %d", p.Category, resp.StatusCode)
	}

	var parsed httpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the search response: %w", err)
	}

	items := parsed.Items[:0:0]
	for _, item := range parsed.Items {
		// Items without a title and link are useless to the UI; drop them.
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Registry maps tool categories to their providers.
// Immutable after construction; safe for concurrent reads.
type Registry struct {
	providers map[datatypes.ToolCategory]Provider
}

// NewRegistry creates a registry over an explicit provider map.
func NewRegistry(providers map[datatypes.ToolCategory]Provider) *Registry {
	if providers == nil {
		providers = make(map[datatypes.ToolCategory]Provider)
	}
	return &Registry{providers: providers}
}

// NewRegistryFromEnv wires one HTTP provider per category from
// WAYFINDER_SEARCH_<CATEGORY>_URL environment variables. Unset categories
// stay unconfigured; that is a per-category condition, never an error.
func NewRegistryFromEnv() *Registry {
	providers := make(map[datatypes.ToolCategory]Provider)
	for _, category := range datatypes.ToolCategoryOrder() {
		envKey := "WAYFINDER_SEARCH_" + strings.ToUpper(string(category)) + "_URL"
		endpoint := os.Getenv(envKey)
		if endpoint == "" {
			continue
		}
		providers[category] = NewHTTPProvider(category, endpoint)
		slog.Info("Search provider configured", "category", category, "endpoint", endpoint)
	}
	return NewRegistry(providers)
}

// Provider returns the provider for a category, or ErrNotConfigured.
func (r *Registry) Provider(category datatypes.ToolCategory) (Provider, error) {
	p, ok := r.providers[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, category)
	}
	return p, nil
}

// Configured lists the categories that have a provider, in fixed order.
func (r *Registry) Configured() []datatypes.ToolCategory {
	var out []datatypes.ToolCategory
	for _, category := range datatypes.ToolCategoryOrder() {
		if _, ok := r.providers[category]; ok {
			out = append(out, category)
		}
	}
	return out
}
