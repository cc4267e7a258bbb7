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
	// CloudEventsSpecVersion is the CloudEvents version emitted by the service.
	CloudEventsSpecVersion = "1.0"
	// DeviceSeenEventType identifies device-seen events.
	DeviceSeenEventType = "com.carverauto.beaconhub.device.seen"
)

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// DeviceSeenEventData is the payload of a device-seen event.
type DeviceSeenEventData struct {
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Model     string    `json:"model"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Battery   float64   `json:"battery"`
	Charging  bool      `json:"charging"`
}

// NewDeviceSeenEventData summarizes record for publication.
func NewDeviceSeenEventData(record DeviceRecord) DeviceSeenEventData {
	return DeviceSeenEventData{
		Identity:  record.Identity,
		Timestamp: record.Timestamp,
		Browser:   record.Device.Browser,
		OS:        record.Device.OS,
		Model:     record.Device.Model,
		City:      record.Location.City,
		Country:   record.Location.Country,
		Lat:       record.Location.Lat,
		Lon:       record.Location.Lon,
		Battery:   record.Device.Battery.Level,
		Charging:  record.Device.Battery.Charging,
	}
}
