// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package phases implements the workshop phase machinery: static pipeline
// definitions, the pure validator that scores a conversation window against
// a phase's deliverables, and the transition orchestrator that owns
// PhaseState.
package phases

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed pipelines.yaml
var pipelineFile []byte

// ErrUnknownPipeline is returned for pipeline identifiers not in the
// loaded set. Handlers map it to a client error.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// ExtractFunc is one extraction strategy: pure text in, captured value out.
// Strategies are built at load time and are swappable per deliverable.
type ExtractFunc func(text string) (string, bool)

// Deliverable is one named artifact a phase requires.
type Deliverable struct {
	Name string

	// strategies are tried in order; the first capture wins. Pattern
	// strategies come before the keyword-presence fallback.
	strategies []ExtractFunc
}

// Extract runs the deliverable's strategies against the window text.
func (d *Deliverable) Extract(text string) (string, bool) {
	for _, strategy := range d.strategies {
		if value, ok := strategy(text); ok {
			return value, true
		}
	}
	return "", false
}

// PhaseDefinition is one phase of a pipeline.
type PhaseDefinition struct {
	Name         string
	Instructions string
	Threshold    float64
	Deliverables []Deliverable
}

// Pipeline is an ordered phase sequence a session can work through.
type Pipeline struct {
	ID     string
	Name   string
	Phases []PhaseDefinition
}

// PipelineSet holds every loaded pipeline. Immutable after load.
type PipelineSet struct {
	byID  map[string]*Pipeline
	order []string
}

type pipelineFileConfig struct {
	Pipelines []pipelineConfig `yaml:"pipelines"`
}

type pipelineConfig struct {
	ID     string        `yaml:"id"`
	Name   string        `yaml:"name"`
	Phases []phaseConfig `yaml:"phases"`
}

type phaseConfig struct {
	Name         string              `yaml:"name"`
	Instructions string              `yaml:"instructions"`
	Threshold    float64             `yaml:"threshold"`
	Deliverables []deliverableConfig `yaml:"deliverables"`
}

type deliverableConfig struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Keywords []string `yaml:"keywords"`
}

// LoadPipelines parses and validates the embedded pipeline file.
//
// Validation is exhaustive at init: duplicate identifiers, thresholds
// outside [0,1], deliverables with neither patterns nor keywords, and
// uncompilable patterns all refuse startup rather than degrade at runtime.
func LoadPipelines() (*PipelineSet, error) {
	var config pipelineFileConfig
	if err := yaml.Unmarshal(pipelineFile, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded pipeline file: %w", err)
	}
	if len(config.Pipelines) == 0 {
		return nil, fmt.Errorf("pipeline file defines no pipelines")
	}

	set := &PipelineSet{byID: make(map[string]*Pipeline, len(config.Pipelines))}
	for _, pc := range config.Pipelines {
		if pc.ID == "" {
			return nil, fmt.Errorf("pipeline with empty id")
		}
		if _, dup := set.byID[pc.ID]; dup {
			return nil, fmt.Errorf("duplicate pipeline id %q", pc.ID)
		}
		pipeline, err := buildPipeline(pc)
		if err != nil {
			return nil, err
		}
		set.byID[pc.ID] = pipeline
		set.order = append(set.order, pc.ID)
	}
	return set, nil
}

func buildPipeline(pc pipelineConfig) (*Pipeline, error) {
	if len(pc.Phases) == 0 {
		return nil, fmt.Errorf("pipeline %q has no phases", pc.ID)
	}

	pipeline := &Pipeline{ID: pc.ID, Name: pc.Name}
	for _, phc := range pc.Phases {
		if phc.Name == "" {
			return nil, fmt.Errorf("pipeline %q has a phase with no name", pc.ID)
		}
		if phc.Threshold < 0 || phc.Threshold > 1 {
			return nil, fmt.Errorf("pipeline %q phase %q: threshold %v outside [0,1]", pc.ID, phc.Name, phc.Threshold)
		}
		if len(phc.Deliverables) == 0 {
			return nil, fmt.Errorf("pipeline %q phase %q has no deliverables", pc.ID, phc.Name)
		}

		phase := PhaseDefinition{
			Name:         phc.Name,
			Instructions: strings.TrimSpace(phc.Instructions),
			Threshold:    phc.Threshold,
		}
		seen := make(map[string]bool, len(phc.Deliverables))
		for _, dc := range phc.Deliverables {
			if dc.Name == "" {
				return nil, fmt.Errorf("pipeline %q phase %q has a deliverable with no name", pc.ID, phc.Name)
			}
			if seen[dc.Name] {
				return nil, fmt.Errorf("pipeline %q phase %q: duplicate deliverable %q", pc.ID, phc.Name, dc.Name)
			}
			seen[dc.Name] = true

			deliverable, err := buildDeliverable(pc.ID, phc.Name, dc)
			if err != nil {
				return nil, err
			}
			phase.Deliverables = append(phase.Deliverables, deliverable)
		}
		pipeline.Phases = append(pipeline.Phases, phase)
	}
	return pipeline, nil
}

func buildDeliverable(pipelineID, phaseName string, dc deliverableConfig) (Deliverable, error) {
	if len(dc.Patterns) == 0 && len(dc.Keywords) == 0 {
		return Deliverable{}, fmt.Errorf("pipeline %q phase %q deliverable %q has neither patterns nor keywords",
			pipelineID, phaseName, dc.Name)
	}

	d := Deliverable{Name: dc.Name}
	for _, raw := range dc.Patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return Deliverable{}, fmt.Errorf("pipeline %q phase %q deliverable %q: bad pattern %q: %w",
				pipelineID, phaseName, dc.Name, raw, err)
		}
		d.strategies = append(d.strategies, patternStrategy(re))
	}
	if len(dc.Keywords) > 0 {
		d.strategies = append(d.strategies, keywordStrategy(dc.Keywords))
	}
	return d, nil
}

// patternStrategy captures the first submatch, or the whole match when the
// pattern has no capture group.
func patternStrategy(re *regexp.Regexp) ExtractFunc {
	return func(text string) (string, bool) {
		match := re.FindStringSubmatch(text)
		if match == nil {
			return "", false
		}
		value := match[0]
		if len(match) > 1 && match[1] != "" {
			value = match[1]
		}
		return strings.TrimSpace(value), true
	}
}

// keywordStrategy is the lowest-specificity fallback: plain case-insensitive
// presence of any keyword captures the keyword itself.
func keywordStrategy(keywords []string) ExtractFunc {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return func(text string) (string, bool) {
		haystack := strings.ToLower(text)
		for i, kw := range lowered {
			if strings.Contains(haystack, kw) {
				return keywords[i], true
			}
		}
		return "", false
	}
}

// Pipeline returns a loaded pipeline by id.
func (s *PipelineSet) Pipeline(id string) (*Pipeline, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPipeline, id)
	}
	return p, nil
}

// IDs lists the loaded pipeline identifiers in file order.
func (s *PipelineSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
