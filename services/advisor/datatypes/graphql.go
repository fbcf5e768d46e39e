// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type. The target type T must have json tags matching the response shape.
//
// Type mismatches produce zero values, not errors; callers should treat
// empty results as "no hits".
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}

// ConceptQueryResponse represents the response from querying the Concept
// class in the knowledge graph.
type ConceptQueryResponse struct {
	Get struct {
		Concept []ConceptResult `json:"Concept"`
	} `json:"Get"`
}

// ConceptResult is a single concept node with its related suggestions.
type ConceptResult struct {
	Name       string   `json:"name"`
	Tools      []string `json:"tools"`
	Techniques []string `json:"techniques"`
	Frameworks []string `json:"frameworks"`
}
