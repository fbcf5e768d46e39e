// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph defines the uniform query contract to the external
// concept/tool knowledge graph.
//
// The engine treats an unavailable graph identically to an empty result:
// ErrUnavailable never propagates past the consumer that saw it, it only
// means "no graph contribution this time".
package graph

import (
	"context"
	"errors"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
)

// ErrUnavailable signals that the graph backend is not reachable or not
// configured. Consumers must degrade to "no results".
var ErrUnavailable = errors.New("knowledge graph unavailable")

// Related is the graph's answer for one anchor concept.
type Related struct {
	// Tools are research tool categories the graph links to the anchor.
	Tools []datatypes.ToolCategory

	// Techniques are named techniques related to the anchor, used in
	// human-readable suggestion reasons.
	Techniques []string

	// Frameworks are methodology identifiers the graph relates to the
	// anchor. Entries that match the closed MethodologyID set boost that
	// methodology's suggestion score.
	Frameworks []string
}

// Empty reports whether the result carries no hits at all.
func (r Related) Empty() bool {
	return len(r.Tools) == 0 && len(r.Techniques) == 0 && len(r.Frameworks) == 0
}

// Adapter is the query contract to the knowledge graph.
//
// Implementations must be safe for concurrent use and must respect ctx
// deadlines; the engine calls QueryRelated with short timeouts.
type Adapter interface {
	QueryRelated(ctx context.Context, anchor string) (Related, error)
}

// NoopAdapter is the stand-in when no graph backend is configured.
type NoopAdapter struct{}

// QueryRelated always reports the graph as unavailable.
func (NoopAdapter) QueryRelated(ctx context.Context, anchor string) (Related, error) {
	return Related{}, ErrUnavailable
}

var _ Adapter = NoopAdapter{}
