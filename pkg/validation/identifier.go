// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// persistence keys and request payloads. Using these validators prevents
// injection into composite store keys and rejects malformed API requests
// before they reach the engine.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// identifierPattern matches session and pipeline identifiers.
// Allows: letters, digits, underscores, hyphens. Max length: 64 characters.
// The slash is deliberately excluded because store keys join identifiers
// with "/" (see storage package).
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// ValidateIdentifier validates a session or pipeline identifier.
//
// Valid identifiers:
//   - 1-64 characters
//   - letters, digits, underscores, hyphens
//   - must start with a letter or digit
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(sessionID); err != nil {
//	    return fmt.Errorf("invalid session id: %w", err)
//	}
//	// Safe to embed in a store key
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier format: %q (must be 1-64 alphanumeric chars, underscores, or hyphens)", id)
	}
	return nil
}

// SanitizeIdentifier normalizes and validates an identifier.
// Returns the trimmed identifier if valid, or an error if invalid.
func SanitizeIdentifier(id string) (string, error) {
	normalized := strings.TrimSpace(id)
	if err := ValidateIdentifier(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// requestValidator is the shared validator instance for API payloads.
// validator.Validate is safe for concurrent use and caches struct metadata.
var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest validates a request struct against its `validate` tags.
//
// Returns a single wrapped error listing every failed field so handlers
// can return one descriptive 400 instead of failing field by field.
func ValidateRequest(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("request validation failed: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("request validation failed: %s", strings.Join(fields, ", "))
}
