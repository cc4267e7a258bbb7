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

// LogEntryKind distinguishes the observations written to the event log.
type LogEntryKind string

const (
	LogEntryBeacon LogEntryKind = "beacon"
	LogEntryImage  LogEntryKind = "image"
)

// LogEntry is one immutable line of the per-day event log.
type LogEntry struct {
	ID        string       `json:"id"`
	Kind      LogEntryKind `json:"kind"`
	Identity  string       `json:"identity"`
	Timestamp time.Time    `json:"timestamp"`
	Record    DeviceRecord `json:"record"`
}
