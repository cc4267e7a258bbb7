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

//go:generate mockgen -destination=mock_locator.go -package=geo github.com/carverauto/beaconhub/pkg/geo Locator

// Package geo resolves client network addresses to approximate locations.
package geo

import (
	"context"
	"errors"
	"net"

	"github.com/carverauto/beaconhub/pkg/models"
)

var (
	errLookupFailed = errors.New("geolocation lookup failed")
	errNoReader     = errors.New("maxmind city database not configured")
)

// Locator is one source of location data for an IP address.
type Locator interface {
	Locate(ctx context.Context, ip net.IP) (models.LocationInfo, error)
}
