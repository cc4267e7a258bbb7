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

package ingest

import (
	"github.com/carverauto/beaconhub/pkg/models"
)

// BuildRecord is the single normalize-and-default step: it merges the parsed
// user agent, the resolved location and the beacon body into a fully
// populated record. It has no side effects.
func BuildRecord(
	identity string,
	ua UserAgent,
	loc models.LocationInfo,
	beacon models.Beacon,
	policy models.CoordinatePolicy,
) models.DeviceRecord {
	record := models.DefaultDeviceRecord(identity)

	record.Device.Model = orUnknown(ua.Model)
	record.Device.OS = orUnknown(ua.OS)
	record.Device.Browser = orUnknown(ua.Browser)

	if beacon.Battery != nil {
		record.Device.Battery = *beacon.Battery
	}

	if beacon.Network != nil {
		record.Device.Network = *beacon.Network
		record.Device.Network.Type = orUnknown(record.Device.Network.Type)
	}

	if beacon.Memory != nil {
		record.Device.Memory = *beacon.Memory
	}

	if beacon.System != nil {
		record.System = *beacon.System
	}

	record.Location = loc.ToLocation(identity)

	if lat, lon, ok := beacon.Data.Point(); ok && clientCoordinatesWin(policy, loc) {
		record.Location.Lat = lat
		record.Location.Lon = lon
	}

	return record
}

// clientCoordinatesWin decides whether beacon-supplied coordinates replace
// the resolved ones.
func clientCoordinatesWin(policy models.CoordinatePolicy, loc models.LocationInfo) bool {
	if policy == models.CoordinatesClientFirst {
		return true
	}

	return !loc.HasCoordinates()
}

func orUnknown(s string) string {
	if s == "" {
		return models.UnknownValue
	}

	return s
}
