// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
		{"  error  ", LevelError},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelDebug.String() != "debug" || LevelError.String() != "error" {
		t.Error("Level.String returned unexpected names")
	}
	if Level(99).String() != "unknown" {
		t.Error("out-of-range level should stringify as unknown")
	}
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "test",
	})

	logger.Info("hello from test", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "test_") {
		t.Errorf("log file name %q missing service prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log file is not JSON: %v", err)
	}
	if record["msg"] != "hello from test" {
		t.Errorf("unexpected msg field: %v", record["msg"])
	}
}

// capturingExporter records exported entries for assertions.
type capturingExporter struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (e *capturingExporter) Export(ctx context.Context, entry LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

func (e *capturingExporter) Flush(ctx context.Context) error { return nil }
func (e *capturingExporter) Close() error                    { return nil }

func TestExporterReceivesEntries(t *testing.T) {
	exporter := &capturingExporter{}
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "advisor",
		Exporter: exporter,
	})

	logger.Info("exported message", "session_id", "sess-1")
	logger.Debug("below threshold") // filtered, must not export

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	if len(exporter.entries) != 1 {
		t.Fatalf("expected 1 exported entry, got %d", len(exporter.entries))
	}
	entry := exporter.entries[0]
	if entry.Message != "exported message" {
		t.Errorf("unexpected message: %q", entry.Message)
	}
	if entry.Service != "advisor" {
		t.Errorf("unexpected service: %q", entry.Service)
	}
	if entry.Attrs["session_id"] != "sess-1" {
		t.Errorf("missing session_id attr: %v", entry.Attrs)
	}
	if time.Since(entry.Time) > time.Minute {
		t.Error("entry timestamp is stale")
	}
}

func TestWithAttachesAttrs(t *testing.T) {
	logger := Default().With("component", "cache")
	// Smoke test: must not panic and must still log through shared handlers.
	logger.Info("with attrs")
	logger.Warn("warn with attrs", "k", 1)
}

func TestConcurrentLogging(t *testing.T) {
	exporter := &capturingExporter{}
	logger := New(Config{Level: LevelInfo, Service: "race", Exporter: exporter})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent", "n", n)
		}(i)
	}
	wg.Wait()

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	if len(exporter.entries) != 16 {
		t.Errorf("expected 16 entries, got %d", len(exporter.entries))
	}
}
