// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		// Valid identifiers
		{"simple", "sess-abc-123", false},
		{"single char", "a", false},
		{"digits", "42", false},
		{"underscores", "scenario_planning_v2", false},
		{"uuid style", "0b9f3a1e-7c44-4a8e-9a5b-2f6d8f1c9e10", false},

		// Invalid identifiers - injection attempts
		{"empty", "", true},
		{"slash key separator", "sess/other", true},
		{"path traversal", "../secrets", true},
		{"spaces", "sess 1", true},
		{"newline", "sess\n1", true},
		{"leading hyphen", "-sess", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"null byte", "sess\x001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	got, err := SanitizeIdentifier("  sess-1  ")
	if err != nil {
		t.Fatalf("SanitizeIdentifier failed: %v", err)
	}
	if got != "sess-1" {
		t.Errorf("expected trimmed identifier, got %q", got)
	}

	if _, err := SanitizeIdentifier("   "); err == nil {
		t.Error("whitespace-only identifier should fail")
	}
}

func TestValidateRequest(t *testing.T) {
	type turnRequest struct {
		SessionID string `validate:"required"`
		Message   string `validate:"required,min=1"`
	}

	if err := ValidateRequest(turnRequest{SessionID: "s1", Message: "hello"}); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	err := ValidateRequest(turnRequest{})
	if err == nil {
		t.Fatal("empty request should fail validation")
	}
	// Both failed fields should be named in one error.
	msg := err.Error()
	if !strings.Contains(msg, "SessionID") || !strings.Contains(msg, "Message") {
		t.Errorf("error should name all failed fields, got: %s", msg)
	}
}
