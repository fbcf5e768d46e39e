// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthedRouter(provider AuthProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(provider))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestNopProviderAllowsEverything(t *testing.T) {
	router := newAuthedRouter(NopAuthProvider{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaticTokenProvider(t *testing.T) {
	router := newAuthedRouter(NewStaticTokenProvider("secret-token"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer secret-token", want: http.StatusOK},
		{name: "case-insensitive scheme", header: "bearer secret-token", want: http.StatusOK},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "malformed header", header: "secret-token", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret-token", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestProviderFromToken(t *testing.T) {
	_, isNop := ProviderFromToken("").(NopAuthProvider)
	assert.True(t, isNop)

	_, isStatic := ProviderFromToken("tok").(*StaticTokenProvider)
	assert.True(t, isStatic)
}
