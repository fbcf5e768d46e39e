// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the shared domain and wire types for the advisor
// service. Types here are plain data: behavior lives in the packages that
// own each concern (signals, suggest, phases, coherence).
package datatypes

// Message is one conversation turn as seen by the engine.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Turn      int    `json:"turn"`
	Timestamp int64  `json:"timestamp_ms"`
}

// RecentWindow returns the most recent n messages, preserving order.
// Returns the full slice when it holds fewer than n messages.
func RecentWindow(messages []Message, n int) []Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
