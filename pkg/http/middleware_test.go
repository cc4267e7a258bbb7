/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

func okHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write([]byte("OK"))
		if err != nil {
			t.Errorf("Error writing response: %v", err)
		}
	})
}

func TestCommonMiddleware_CORS(t *testing.T) {
	log := logger.NewTestLogger()

	corsConfig := models.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
	}

	handler := CommonMiddleware(okHandler(t), corsConfig, log)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")

	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("CORS origin not set correctly: got %v", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}

	// Test unallowed origin
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	req.Header.Set("Origin", "http://evil.com")

	rr = httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") == "http://evil.com" {
		t.Errorf("CORS allowed an unpermitted origin")
	}
}

func TestCommonMiddleware_Wildcard(t *testing.T) {
	handler := CommonMiddleware(okHandler(t), models.CORSConfig{AllowedOrigins: []string{"*"}}, logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/track", http.NoBody)
	req.Header.Set("Origin", "http://anywhere.example")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Body.String())
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "host_port", remote: "203.0.113.5:51234", want: "203.0.113.5"},
		{name: "ipv6_host_port", remote: "[::ffff:203.0.113.5]:51234", want: "::ffff:203.0.113.5"},
		{name: "forwarded_ignored", remote: "10.0.0.1:80", forwarded: "198.51.100.1", want: "10.0.0.1"},
		{name: "forwarded_trusted", remote: "10.0.0.1:80", forwarded: " 198.51.100.1 , 10.0.0.2", trustProxy: true, want: "198.51.100.1"},
		{name: "no_port", remote: "192.0.2.9", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote

			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, ClientAddress(req, tt.trustProxy))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewRateLimiter(2, time.Minute, func(r *http.Request) string { return ClientAddress(r, false) })
	limiter.nowFn = func() time.Time { return now }

	handler := limiter.Middleware(okHandler(t))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = remote

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		return rr
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1").Code)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:2").Code)

	rejected := do("192.0.2.1:3")
	require.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "30", rejected.Header().Get("Retry-After"))
	assert.Contains(t, rejected.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusOK, do("192.0.2.2:1").Code, "limits are per client")

	now = now.Add(31 * time.Second)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:4").Code, "one token refills per window/requests")

	assert.Equal(t, 2, limiter.Len())
	assert.Equal(t, 0, limiter.Sweep(now))
	assert.Equal(t, 2, limiter.Sweep(now.Add(2*time.Minute)))
	assert.Equal(t, 0, limiter.Len())
}

func TestRequestLogger(t *testing.T) {
	handler := RequestLogger(logger.NewTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusTeapot, rr.Code)
}
