// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	_ "embed"
	"fmt"

	"github.com/WayfinderAI/WayfinderCoach/services/advisor/datatypes"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackFile []byte

// ToolHint is one static category suggestion for a methodology.
type ToolHint struct {
	Category datatypes.ToolCategory `yaml:"category"`
	Reason   string                 `yaml:"reason"`
}

// MethodologyHints holds one methodology's row of the fallback table.
type MethodologyHints struct {
	Keywords []string   `yaml:"keywords"`
	Tools    []ToolHint `yaml:"tools"`
}

type fallbackConfig struct {
	Methodologies map[string]MethodologyHints `yaml:"methodologies"`
}

// FallbackTable is the static hint data injected into the engine at
// construction. Immutable after load; never mutated at runtime.
type FallbackTable struct {
	hints map[datatypes.MethodologyID]MethodologyHints
}

// LoadFallbackTable parses and validates the embedded table.
//
// Validation is exhaustive against the closed methodology set: a missing
// row, an extra row, or an unknown tool category is an init-time error,
// never a silent no-op at request time.
func LoadFallbackTable() (*FallbackTable, error) {
	var config fallbackConfig
	if err := yaml.Unmarshal(fallbackFile, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded fallback table: %w", err)
	}

	hints := make(map[datatypes.MethodologyID]MethodologyHints, len(config.Methodologies))
	for raw, row := range config.Methodologies {
		id, err := datatypes.ParseMethodologyID(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback table: %w", err)
		}
		if len(row.Keywords) == 0 {
			return nil, fmt.Errorf("fallback table: methodology %q has no keywords", id)
		}
		for _, hint := range row.Tools {
			if !datatypes.ValidToolCategory(hint.Category) {
				return nil, fmt.Errorf("fallback table: methodology %q hints unknown category %q", id, hint.Category)
			}
			if hint.Reason == "" {
				return nil, fmt.Errorf("fallback table: methodology %q has a hint for %q with no reason", id, hint.Category)
			}
		}
		hints[id] = row
	}

	for _, id := range datatypes.AllMethodologies() {
		if _, ok := hints[id]; !ok {
			return nil, fmt.Errorf("fallback table is missing methodology %q", id)
		}
	}

	return &FallbackTable{hints: hints}, nil
}

// Hints returns the row for a methodology. The methodology set is closed
// and validated at load, so a miss can only mean a programming error.
func (t *FallbackTable) Hints(id datatypes.MethodologyID) MethodologyHints {
	return t.hints[id]
}
