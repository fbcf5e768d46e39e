// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the advisor service.
//
// The auth middleware extracts a bearer token from the Authorization
// header and validates it against the configured AuthProvider. With the
// default NopAuthProvider every request passes, which keeps local
// single-user deployments working with no auth infrastructure.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrUnauthorized is returned by providers when a token is rejected.
var ErrUnauthorized = errors.New("unauthorized")

// AuthProvider validates bearer tokens.
//
// Implementations must be safe for concurrent calls.
type AuthProvider interface {
	Validate(ctx context.Context, token string) error
}

// NopAuthProvider accepts every request, including ones with no token.
type NopAuthProvider struct{}

// Validate implements AuthProvider.
func (NopAuthProvider) Validate(ctx context.Context, token string) error { return nil }

// StaticTokenProvider accepts exactly one preconfigured token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Validate implements AuthProvider with a constant-time comparison.
func (p *StaticTokenProvider) Validate(ctx context.Context, token string) error {
	if subtle.ConstantTimeCompare([]byte(p.token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// ProviderFromToken picks the provider for a configured token: empty means
// open access, anything else means static bearer auth.
func ProviderFromToken(token string) AuthProvider {
	if token == "" {
		return NopAuthProvider{}
	}
	return NewStaticTokenProvider(token)
}

// AuthMiddleware creates a Gin middleware that authenticates requests.
//
// The token is read from "Authorization: Bearer <token>". A missing or
// malformed header validates the empty token, which only NopAuthProvider
// accepts.
func AuthMiddleware(provider AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		if err := provider.Validate(c.Request.Context(), token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}

// extractBearerToken parses the Authorization header. The "Bearer" prefix
// is case-insensitive per RFC 7235; missing or malformed headers yield "".
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
