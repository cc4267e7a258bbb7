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

package eventlog

import (
	"strings"
	"time"

	"github.com/carverauto/beaconhub/pkg/models"
)

const (
	partitionPrefix = "devices_"
	dayLayout       = "2006-01-02"
	archiveSuffix   = ".zst"
)

// partition describes one file of the log.
type partition struct {
	name     string
	day      time.Time
	format   models.LogFormat
	archived bool
}

// PartitionName is the file holding every entry of day (UTC) in format.
func PartitionName(day time.Time, format models.LogFormat) string {
	return partitionPrefix + day.UTC().Format(dayLayout) + "." + string(format)
}

// parsePartition recognises devices_YYYY-MM-DD.json[l][.zst].
func parsePartition(name string) (partition, bool) {
	rest, ok := strings.CutPrefix(name, partitionPrefix)
	if !ok || len(rest) < len(dayLayout)+1 {
		return partition{}, false
	}

	day, err := time.Parse(dayLayout, rest[:len(dayLayout)])
	if err != nil {
		return partition{}, false
	}

	ext := rest[len(dayLayout):]
	p := partition{name: name, day: day}

	if trimmed, ok := strings.CutSuffix(ext, archiveSuffix); ok {
		p.archived = true
		ext = trimmed
	}

	switch ext {
	case "." + string(models.LogFormatJSON):
		p.format = models.LogFormatJSON
	case "." + string(models.LogFormatJSONL):
		p.format = models.LogFormatJSONL
	default:
		return partition{}, false
	}

	return p, true
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
