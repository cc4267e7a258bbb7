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

// Beacon is the body of one telemetry report. Every field is optional.
type Beacon struct {
	Battery *Battery     `json:"battery,omitempty"`
	Network *Network     `json:"network,omitempty"`
	Memory  *Memory      `json:"memory,omitempty"`
	System  *SystemInfo  `json:"system,omitempty"`
	Data    *Coordinates `json:"data,omitempty"`
}

// Coordinates are client-supplied positions, typically from the browser geolocation API.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// Point returns the coordinates and whether both were supplied and not the (0,0) pair.
func (c *Coordinates) Point() (lat, lon float64, ok bool) {
	if c == nil || c.Lat == nil || c.Lon == nil {
		return 0, 0, false
	}

	if *c.Lat == 0 && *c.Lon == 0 {
		return 0, 0, false
	}

	return *c.Lat, *c.Lon, true
}
