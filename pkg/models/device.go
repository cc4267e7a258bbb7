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

package models

import (
	"encoding/json"
	"time"
)

const (
	// UnknownValue is the default for any string field a beacon or user agent cannot supply.
	UnknownValue = "Unknown"
)

// DeviceRecord is the most recent telemetry seen for one device identity.
type DeviceRecord struct {
	Identity     string     `json:"identity"`
	Device       DeviceInfo `json:"device"`
	Location     Location   `json:"location"`
	System       SystemInfo `json:"system"`
	Timestamp    time.Time  `json:"timestamp"`
	LastImageRef string     `json:"lastImageRef,omitempty"`
}

// DeviceInfo describes the client hardware and software.
type DeviceInfo struct {
	Model   string  `json:"model"`
	OS      string  `json:"os"`
	Browser string  `json:"browser"`
	Battery Battery `json:"battery"`
	Network Network `json:"network"`
	Memory  Memory  `json:"memory"`
}

type Battery struct {
	Level    float64 `json:"level"`
	Charging bool    `json:"charging"`
}

type Network struct {
	Type     string  `json:"type"`
	Downlink float64 `json:"downlink"`
}

// Memory is reported either as an object or, by older clients, as a bare
// number of gigabytes which is stored in Total.
type Memory struct {
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
	Free  float64 `json:"free"`
}

// UnmarshalJSON accepts both {"total":..} and a bare number.
func (m *Memory) UnmarshalJSON(b []byte) error {
	var total float64
	if err := json.Unmarshal(b, &total); err == nil {
		*m = Memory{Total: total}
		return nil
	}

	type plain Memory

	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	*m = Memory(p)

	return nil
}

// SystemInfo carries client-reported load figures.
type SystemInfo struct {
	CPUUsage    float64 `json:"cpuUsage"`
	MemoryUsage float64 `json:"memoryUsage"`
	Uptime      float64 `json:"uptime"`
}

// Location is the resolved position of a device plus the address it was resolved from.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	ISP     string  `json:"isp"`
	IP      string  `json:"ip"`
}

// DefaultDeviceRecord is what read endpoints report for an identity that has no live record.
func DefaultDeviceRecord(identity string) DeviceRecord {
	return DeviceRecord{
		Identity: identity,
		Device: DeviceInfo{
			Model:   UnknownValue,
			OS:      UnknownValue,
			Browser: UnknownValue,
			Network: Network{Type: UnknownValue},
		},
		Location: Location{
			City:    UnknownValue,
			Country: UnknownValue,
			ISP:     UnknownValue,
			IP:      identity,
		},
	}
}
