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
	"fmt"
	"log/slog"
	"strings"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wayfinder.advisor.graph")

// conceptClass is the Weaviate class holding the curated concept graph.
// Each object carries the concept name plus its related tools, techniques,
// and frameworks as text arrays.
const conceptClass = "Concept"

// WeaviateAdapter implements Adapter against a Weaviate instance.
//
// Thread Safety: safe for concurrent use; the underlying client pools
// connections.
type WeaviateAdapter struct {
	client *weaviate.Client
	limit  int
}

// NewWeaviateAdapter creates an adapter over an already-connected client.
func NewWeaviateAdapter(client *weaviate.Client) *WeaviateAdapter {
	return &WeaviateAdapter{client: client, limit: 3}
}

// QueryRelated implements Adapter.
//
// The anchor is matched against the concept name with a prefix wildcard.
// Any transport or query error is reported as ErrUnavailable; the engine
// treats that as an empty result.
func (a *WeaviateAdapter) QueryRelated(ctx context.Context, anchor string) (Related, error) {
	ctx, span := tracer.Start(ctx, "WeaviateAdapter.QueryRelated")
	defer span.End()

	anchor = strings.TrimSpace(strings.ToLower(anchor))
	if anchor == "" {
		return Related{}, nil
	}

	whereFilter := filters.Where().
		WithPath([]string{"name"}).
		WithOperator(filters.Like).
		WithValueText(anchor + "*")

	fields := []graphql.Field{
		{Name: "name"},
		{Name: "tools"},
		{Name: "techniques"},
		{Name: "frameworks"},
	}

	result, err := a.client.GraphQL().Get().
		WithClassName(conceptClass).
		WithFields(fields...).
		WithWhere(whereFilter).
		WithLimit(a.limit).
		Do(ctx)
	if err != nil {
		slog.Debug("Knowledge graph query failed, treating as unavailable",
			"anchor", anchor, "error", err)
		return Related{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.ConceptQueryResponse](result)
	if err != nil {
		slog.Debug("Failed to parse knowledge graph response", "error", err)
		return Related{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return mergeConcepts(parsed.Get.Concept), nil
}

// mergeConcepts folds every matched concept into one deduplicated Related.
func mergeConcepts(concepts []datatypes.ConceptResult) Related {
	var related Related
	seenTools := make(map[datatypes.ToolCategory]bool)
	seenTechniques := make(map[string]bool)
	seenFrameworks := make(map[string]bool)

	for _, concept := range concepts {
		for _, raw := range concept.Tools {
			category, err := datatypes.ParseToolCategory(raw)
			if err != nil {
				// Unknown categories in graph data are skipped, not fatal:
				// the graph is curated independently of this binary.
				slog.Debug("Skipping unknown tool category from graph", "category", raw)
				continue
			}
			if !seenTools[category] {
				seenTools[category] = true
				related.Tools = append(related.Tools, category)
			}
		}
		for _, technique := range concept.Techniques {
			if technique != "" && !seenTechniques[technique] {
				seenTechniques[technique] = true
				related.Techniques = append(related.Techniques, technique)
			}
		}
		for _, framework := range concept.Frameworks {
			if framework != "" && !seenFrameworks[framework] {
				seenFrameworks[framework] = true
				related.Frameworks = append(related.Frameworks, framework)
			}
		}
	}
	return related
}

var _ Adapter = (*WeaviateAdapter)(nil)
