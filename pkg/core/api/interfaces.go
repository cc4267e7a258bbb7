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

//go:generate mockgen -destination=mock_api.go -package=api github.com/carverauto/beaconhub/pkg/core/api DeviceService

// Package api exposes the device tracking service over HTTP.
package api

import (
	"context"

	"github.com/carverauto/beaconhub/pkg/models"
)

// DeviceService is the ingest core as seen by the transport.
type DeviceService interface {
	Ingest(ctx context.Context, rawAddress, userAgent string, beacon models.Beacon) (models.DeviceRecord, error)
	GetDevice(identity string) (models.DeviceRecord, bool)
	ListDevices() []models.DeviceRecord
	AttachImage(ctx context.Context, identity, filename string) bool
	History(ctx context.Context, identity string, kind models.LogEntryKind, limit int) ([]models.LogEntry, error)
}

// Credentials are what a client presented to a protected route.
type Credentials struct {
	Username string
	Password string
}

// Authorizer decides whether credentials grant access to read endpoints.
type Authorizer interface {
	IsAuthorized(creds Credentials) bool
}

// CacheSizer reports the number of cached entries of a component.
type CacheSizer interface {
	Len() int
}
