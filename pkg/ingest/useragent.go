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
	"strings"

	useragent "github.com/mssola/useragent"

	"github.com/carverauto/beaconhub/pkg/models"
)

// UserAgent is the device, OS and browser description parsed from a
// User-Agent header.
type UserAgent struct {
	Model   string
	OS      string
	Browser string
}

// ParseUserAgent never fails; any part it cannot determine is "Unknown".
func ParseUserAgent(header string) UserAgent {
	parsed := UserAgent{
		Model:   models.UnknownValue,
		OS:      models.UnknownValue,
		Browser: models.UnknownValue,
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return parsed
	}

	ua := useragent.New(header)

	if model := strings.TrimSpace(ua.Model()); model != "" {
		parsed.Model = model
	}

	os := ua.OSInfo()
	if os.Name != "" {
		parsed.OS = joinNameVersion(os.Name, os.Version)
	}

	if name, version := ua.Browser(); name != "" {
		parsed.Browser = joinNameVersion(name, version)
	}

	return parsed
}

func joinNameVersion(name, version string) string {
	if version == "" {
		return name
	}

	return name + " " + version
}
