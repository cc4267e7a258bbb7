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

//go:generate mockgen -destination=mock_ingest.go -package=ingest github.com/carverauto/beaconhub/pkg/ingest LocationResolver,LogWriter,Publisher,Sweeper

// Package ingest turns inbound beacons into live device sessions and
// audit log entries.
package ingest

import (
	"context"
	"time"

	"github.com/carverauto/beaconhub/pkg/models"
)

// LocationResolver maps a normalized address to a location. It never fails.
type LocationResolver interface {
	Resolve(ctx context.Context, address string) models.LocationInfo
}

// SessionStore holds the live record of every device.
type SessionStore interface {
	Upsert(identity string, record models.DeviceRecord) models.DeviceRecord
	Get(identity string) (models.DeviceRecord, bool)
	ListAll() []models.DeviceRecord
	AttachImageRef(identity, filename string) (models.DeviceRecord, bool)
}

// LogWriter persists the audit trail.
type LogWriter interface {
	Append(ctx context.Context, entry models.LogEntry) error
	History(ctx context.Context, identity string, kind models.LogEntryKind, limit int) ([]models.LogEntry, error)
}

// Publisher announces accepted beacons to other services.
type Publisher interface {
	PublishDeviceSeen(ctx context.Context, record models.DeviceRecord) error
}

// Sweeper drops state that expired before now and reports how much it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}
