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

import "time"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Message string `json:"error"`
	Status  int    `json:"status"`
}

// TrackResponse acknowledges an accepted beacon.
type TrackResponse struct {
	Status   string `json:"status"`
	Identity string `json:"identity"`
}

// CameraUpdateResponse acknowledges a stored image.
type CameraUpdateResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Attached bool   `json:"attached"`
}

// HostStats describes the machine the service runs on.
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// SystemStatus is returned by /api/status.
type SystemStatus struct {
	Devices         int        `json:"devices"`
	GeoCacheEntries int        `json:"geo_cache_entries"`
	StartedAt       time.Time  `json:"started_at"`
	Uptime          string     `json:"uptime"`
	Host            *HostStats `json:"host,omitempty"`
	HostError       string     `json:"host_error,omitempty"`
}
