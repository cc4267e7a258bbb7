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

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/carverauto/beaconhub/pkg/eventlog"
	srHttp "github.com/carverauto/beaconhub/pkg/http"
	"github.com/carverauto/beaconhub/pkg/ingest"
	"github.com/carverauto/beaconhub/pkg/models"
)

const maxBeaconBytes = 1 << 20

func (s *APIServer) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// track accepts a beacon. A body that does not decode is treated as empty.
func (s *APIServer) track(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	var beacon models.Beacon

	body := http.MaxBytesReader(w, r.Body, maxBeaconBytes)
	if err := json.NewDecoder(body).Decode(&beacon); err != nil {
		s.logger.Debug().Err(err).Msg("Ignoring malformed beacon body")

		beacon = models.Beacon{}
	}

	// persistence must not be cut short by a client that hangs up
	ctx := context.WithoutCancel(r.Context())

	record, err := s.devices.Ingest(ctx, s.clientAddress(r), r.UserAgent(), beacon)
	if err != nil {
		// the session is live; only the audit trail missed this beacon
		s.logger.Warn().Err(err).Str("identity", record.Identity).Msg("Beacon accepted without event log entry")
	}

	s.encodeJSONResponse(w, TrackResponse{Status: "ok", Identity: record.Identity})
}

func (s *APIServer) getMonitor(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	identity := s.queryIdentity(r)

	record, ok := s.devices.GetDevice(identity)
	if !ok {
		record = models.DefaultDeviceRecord(identity)
	}

	s.encodeJSONResponse(w, record)
}

func (s *APIServer) getDevices(w http.ResponseWriter, _ *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	devices := s.devices.ListDevices()
	if devices == nil {
		devices = []models.DeviceRecord{}
	}

	s.encodeJSONResponse(w, devices)
}

func (s *APIServer) getHistory(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, "Device service not configured", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()

	limit := eventlog.DefaultHistoryLimit

	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, fmt.Sprintf("Invalid limit %q", raw), http.StatusBadRequest)
			return
		}

		limit = parsed
	}

	kind := models.LogEntryKind(query.Get("kind"))
	switch kind {
	case "", models.LogEntryBeacon, models.LogEntryImage:
	default:
		writeError(w, fmt.Sprintf("Invalid kind %q", kind), http.StatusBadRequest)
		return
	}

	identity := ""
	if ip := query.Get("ip"); ip != "" {
		identity = ingest.NormalizeAddress(ip)
	}

	entries, err := s.devices.History(r.Context(), identity, kind, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("identity", identity).Msg("Failed to read event history")
		writeError(w, "Failed to read history", http.StatusInternalServerError)

		return
	}

	if entries == nil {
		entries = []models.LogEntry{}
	}

	s.encodeJSONResponse(w, entries)
}

// queryIdentity returns the normalized ip query parameter, or the caller's address.
func (s *APIServer) queryIdentity(r *http.Request) string {
	if ip := r.URL.Query().Get("ip"); ip != "" {
		return ingest.NormalizeAddress(ip)
	}

	return ingest.NormalizeAddress(s.clientAddress(r))
}

func (s *APIServer) clientAddress(r *http.Request) string {
	return srHttp.ClientAddress(r, s.trustProxy)
}
