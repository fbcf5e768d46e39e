// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the client abstraction over LLM backends used for
// background coherence scoring. The foreground suggestion path never calls
// into this package.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// GenerationParams are optional sampling overrides for a single call.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client defines the standard interface for any LLM backend.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewFromEnv builds a Client from the WAYFINDER_LLM_BACKEND environment
// variable ("openai" or "ollama").
//
// Returns (nil, nil) when no backend is configured: coherence scoring then
// falls back to its signal-derived heuristics and the rest of the engine is
// unaffected. A configured-but-broken backend is an init error.
func NewFromEnv() (Client, error) {
	backend := os.Getenv("WAYFINDER_LLM_BACKEND")
	switch backend {
	case "":
		slog.Info("No LLM backend configured, coherence scoring uses heuristics only")
		return nil, nil
	case "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown WAYFINDER_LLM_BACKEND %q (want openai or ollama)", backend)
	}
}
