// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for the Badger-backed store.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory.
	Path string

	// InMemory enables in-memory mode (no disk persistence). For tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Set to 0 to disable.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns sensible defaults for production use.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns configuration optimized for testing.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore is the embedded-KV implementation of Store.
//
// Thread Safety: safe for concurrent use; BadgerDB transactions provide
// isolation per operation.
type BadgerStore struct {
	db       *badger.DB
	gcTicker *time.Ticker
	gcDone   chan struct{}
	gcWG     sync.WaitGroup
	config   BadgerConfig
}

// OpenBadger opens (or creates) the store described by config.
func OpenBadger(config BadgerConfig) (*BadgerStore, error) {
	if !config.InMemory && config.Path == "" {
		return nil, fmt.Errorf("badger path is required for persistent databases")
	}

	opts := badger.DefaultOptions(config.Path).
		WithInMemory(config.InMemory).
		WithSyncWrites(config.SyncWrites).
		WithNumVersionsToKeep(1)
	if config.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: config.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %q: %w", config.Path, err)
	}

	s := &BadgerStore{db: db, config: config}
	if config.GCInterval > 0 && !config.InMemory {
		s.startGC()
	}
	return s, nil
}

// GetPhaseState implements Store.
func (s *BadgerStore) GetPhaseState(ctx context.Context, sessionID, pipelineID string) (*datatypes.PhaseState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state datatypes.PhaseState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(phaseKey(sessionID, pipelineID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load phase state: %w", err)
	}
	return &state, nil
}

// PutPhaseState implements Store.
func (s *BadgerStore) PutPhaseState(ctx context.Context, sessionID, pipelineID string, state *datatypes.PhaseState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal phase state: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(phaseKey(sessionID, pipelineID), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to store phase state: %w", err)
	}
	return nil
}

// DeletePhaseState implements Store.
func (s *BadgerStore) DeletePhaseState(ctx context.Context, sessionID, pipelineID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(phaseKey(sessionID, pipelineID))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete phase state: %w", err)
	}
	return nil
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcDone)
		s.gcWG.Wait()
	}
	return s.db.Close()
}

// startGC runs value log garbage collection on a fixed interval.
func (s *BadgerStore) startGC() {
	s.gcTicker = time.NewTicker(s.config.GCInterval)
	s.gcDone = make(chan struct{})
	s.gcWG.Add(1)
	go func() {
		defer s.gcWG.Done()
		for {
			select {
			case <-s.gcDone:
				return
			case <-s.gcTicker.C:
				// ErrNoRewrite just means nothing was worth collecting.
				if err := s.db.RunValueLogGC(s.config.GCDiscardRatio); err != nil &&
					!errors.Is(err, badger.ErrNoRewrite) {
					slog.Warn("Badger value log GC failed", "error", err)
				}
			}
		}
	}()
}

var _ Store = (*BadgerStore)(nil)
