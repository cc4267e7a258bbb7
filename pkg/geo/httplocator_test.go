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

package geo

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLocatorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/203.0.113.5"))
		assert.Contains(t, r.URL.Query().Get("fields"), "city")

		_ = json.NewEncoder(w).Encode(ipAPIResponse{
			Status:      "success",
			Country:     "Netherlands",
			CountryCode: "NL",
			City:        "Amsterdam",
			Lat:         52.37,
			Lon:         4.89,
			ISP:         "Example BV",
		})
	}))
	defer srv.Close()

	l := NewHTTPLocator(srv.URL+"/json", time.Second)

	got, err := l.Locate(context.Background(), net.ParseIP("203.0.113.5"))
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", got.City)
	assert.Equal(t, "NL", got.Country)
	assert.Equal(t, "Example BV", got.ISP)
	assert.InDelta(t, 52.37, got.Lat, 1e-9)
}

func TestHTTPLocatorFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "service reports failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
			},
		},
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewHTTPLocator(srv.URL, time.Second).Locate(context.Background(), net.ParseIP("192.0.2.1"))
			require.Error(t, err)
		})
	}
}
