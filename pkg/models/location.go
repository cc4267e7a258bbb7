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

import "time"

const (
	localCity    = "Local"
	localCountry = "Development"
	localISP     = "Local Network"
)

// LocationInfo is the outcome of resolving one network address.
type LocationInfo struct {
	City     string    `json:"city"`
	Country  string    `json:"country"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	ISP      string    `json:"isp"`
	CachedAt time.Time `json:"cached_at,omitempty"`
}

// LocalLocation is returned for loopback and unspecified addresses.
func LocalLocation() LocationInfo {
	return LocationInfo{City: localCity, Country: localCountry, ISP: localISP}
}

// UnknownLocation is returned when no lookup produced usable data.
func UnknownLocation() LocationInfo {
	return LocationInfo{City: UnknownValue, Country: UnknownValue, ISP: UnknownValue}
}

// IsPlaceholder reports whether l is one of the fixed Local/Unknown values.
func (l LocationInfo) IsPlaceholder() bool {
	return (l.City == UnknownValue && l.Country == UnknownValue) ||
		(l.City == localCity && l.Country == localCountry)
}

// HasCoordinates is false only for the exact (0,0) pair.
func (l LocationInfo) HasCoordinates() bool {
	return l.Lat != 0 || l.Lon != 0
}

// Complete reports whether a lookup produced both a city and a country.
func (l LocationInfo) Complete() bool {
	return l.City != "" && l.Country != ""
}

// ToLocation projects l onto a device location for the given address.
func (l LocationInfo) ToLocation(ip string) Location {
	return Location{
		Lat:     l.Lat,
		Lon:     l.Lon,
		City:    defaultString(l.City),
		Country: defaultString(l.Country),
		ISP:     defaultString(l.ISP),
		IP:      ip,
	}
}

func defaultString(s string) string {
	if s == "" {
		return UnknownValue
	}

	return s
}
