// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("coherence scoring must not stream")
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    req.Model,
			Response: "data_grounding: 7\nassumption_awareness: 5\nevidence_quality: 6",
			Done:     true,
		})
	}))
	defer server.Close()

	client := &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
		model:      "test-model",
	}

	out, err := client.Generate(context.Background(), "rate this conversation", GenerationParams{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty response")
	}
}

func TestOllamaGenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
		model:      "missing",
	}

	if _, err := client.Generate(context.Background(), "prompt", GenerationParams{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestNewFromEnvUnset(t *testing.T) {
	t.Setenv("WAYFINDER_LLM_BACKEND", "")
	client, err := NewFromEnv()
	if err != nil {
		t.Fatalf("unset backend should not error: %v", err)
	}
	if client != nil {
		t.Fatal("unset backend should yield a nil client")
	}
}

func TestNewFromEnvUnknownBackend(t *testing.T) {
	t.Setenv("WAYFINDER_LLM_BACKEND", "mainframe")
	if _, err := NewFromEnv(); err == nil {
		t.Fatal("unknown backend should be an init error")
	}
}
