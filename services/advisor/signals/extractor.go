// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package signals implements the per-message signal extractor.
//
// Extraction is a pure function over one message: a fixed set of compiled
// regex groups produces counts and flags in well under a millisecond,
// independent of conversation length. The extractor performs no I/O and
// never fails: a panicking matcher is absorbed and its signal reads as
// absent while the rest of the SignalSet is still produced.
package signals

import (
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternFile []byte

// group names fixed by the pattern file; checked at init.
const (
	groupAssumption     = "assumption"
	groupCertainty      = "certainty"
	groupForwardLooking = "forward_looking"
	groupQuantitative   = "quantitative"
	groupProblem        = "problem"
	groupSolution       = "solution"
)

type patternConfig struct {
	SignalGroups []signalGroupConfig `yaml:"signal_groups"`
}

type signalGroupConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
}

// matcherGroup is one compiled signal group.
type matcherGroup struct {
	name     string
	patterns []*regexp.Regexp
}

// count returns the total number of matches across the group's patterns.
// A panicking pattern is absorbed: its matches read as zero and the rest
// of the group still counts. Extraction must never take down a turn.
func (g *matcherGroup) count(message string) (total int) {
	for _, re := range g.patterns {
		total += safeCount(g.name, re, message)
	}
	return total
}

func safeCount(group string, re *regexp.Regexp, message string) (n int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("signal matcher panicked, treating signal as absent",
				"group", group, "panic", r)
			n = 0
		}
	}()
	return len(re.FindAllStringIndex(message, -1))
}

// Extractor applies the compiled signal groups to single messages.
// Immutable after construction and safe for concurrent use.
type Extractor struct {
	groups map[string]*matcherGroup
}

// NewExtractor compiles the embedded pattern file.
//
// A malformed file or missing group is an init-time error, not a runtime
// degradation: the engine refuses to start with a broken signal config.
func NewExtractor() (*Extractor, error) {
	var config patternConfig
	if err := yaml.Unmarshal(patternFile, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded pattern file: %w", err)
	}

	groups := make(map[string]*matcherGroup, len(config.SignalGroups))
	for _, gc := range config.SignalGroups {
		if len(gc.Patterns) == 0 {
			return nil, fmt.Errorf("signal group %q has no patterns", gc.Name)
		}
		group := &matcherGroup{name: gc.Name}
		for _, p := range gc.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern %q in group %q: %w", p, gc.Name, err)
			}
			group.patterns = append(group.patterns, re)
		}
		groups[gc.Name] = group
	}

	for _, required := range []string{
		groupAssumption, groupCertainty, groupForwardLooking,
		groupQuantitative, groupProblem, groupSolution,
	} {
		if _, ok := groups[required]; !ok {
			return nil, fmt.Errorf("pattern file is missing required signal group %q", required)
		}
	}

	return &Extractor{groups: groups}, nil
}

// Extract produces the SignalSet for one message. Pure, bounded, no I/O.
func (e *Extractor) Extract(message string) datatypes.SignalSet {
	set := datatypes.SignalSet{
		AssumptionCount:     e.groups[groupAssumption].count(message),
		CertaintyCount:      e.groups[groupCertainty].count(message),
		ForwardLookingCount: e.groups[groupForwardLooking].count(message),
		HasQuantitativeData: e.groups[groupQuantitative].count(message) > 0,
		ProblemMentions:     e.groups[groupProblem].count(message),
		SolutionMentions:    e.groups[groupSolution].count(message),
	}
	set.ContentType = classifyContent(set.ProblemMentions, set.SolutionMentions)
	return set
}

func classifyContent(problems, solutions int) datatypes.ContentType {
	switch {
	case problems > solutions:
		return datatypes.ContentProblemFocused
	case solutions > problems:
		return datatypes.ContentSolutionFocused
	default:
		return datatypes.ContentGeneral
	}
}
