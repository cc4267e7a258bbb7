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

package geo

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

const (
	defaultCacheTTL         = time.Hour
	defaultSecondaryTimeout = 3 * time.Second

	sourcePrimary   = "primary"
	sourceSecondary = "secondary"
	sourceNone      = "none"
)

// Resolver maps addresses to locations. Resolve never fails: anything it
// cannot place resolves to the Unknown placeholder.
type Resolver struct {
	mu      sync.RWMutex
	entries map[string]models.LocationInfo
	ttl     time.Duration
	nowFn   func() time.Time

	primary          Locator
	secondary        Locator
	secondaryTimeout time.Duration

	inflight singleflight.Group
	logger   logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPrimary sets the local database lookup.
func WithPrimary(l Locator) Option {
	return func(r *Resolver) {
		r.primary = l
	}
}

// WithSecondary sets the network lookup and the timeout bounding each call.
func WithSecondary(l Locator, timeout time.Duration) Option {
	return func(r *Resolver) {
		r.secondary = l
		if timeout > 0 {
			r.secondaryTimeout = timeout
		}
	}
}

// WithCacheTTL overrides how long a resolved address is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.nowFn = now
		}
	}
}

// NewResolver creates a Resolver. With no locators configured every routable
// address resolves to the Unknown placeholder.
func NewResolver(log logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		entries:          make(map[string]models.LocationInfo),
		ttl:              defaultCacheTTL,
		nowFn:            time.Now,
		secondaryTimeout: defaultSecondaryTimeout,
		logger:           log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns location metadata for address.
func (r *Resolver) Resolve(ctx context.Context, address string) models.LocationInfo {
	address = strings.TrimSpace(address)
	ip := net.ParseIP(address)

	if isLocal(ip) {
		return models.LocalLocation()
	}

	if info, ok := r.cached(address); ok {
		return info
	}

	v, _, _ := r.inflight.Do(address, func() (interface{}, error) {
		// a concurrent caller may have filled the entry while we waited
		if info, ok := r.cached(address); ok {
			return info, nil
		}

		info := r.lookup(ctx, ip)
		info.CachedAt = r.nowFn()

		r.mu.Lock()
		r.entries[address] = info
		r.mu.Unlock()

		return info, nil
	})

	return v.(models.LocationInfo)
}

// Sweep drops cache entries older than the TTL and reports how many were removed.
func (r *Resolver) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0

	for addr, info := range r.entries {
		if now.Sub(info.CachedAt) >= r.ttl {
			delete(r.entries, addr)
			removed++
		}
	}

	return removed
}

// Len reports the number of cached addresses, including expired ones not yet swept.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *Resolver) cached(address string) (models.LocationInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.entries[address]
	if !ok || r.nowFn().Sub(info.CachedAt) >= r.ttl {
		return models.LocationInfo{}, false
	}

	return info, true
}

func (r *Resolver) lookup(ctx context.Context, ip net.IP) models.LocationInfo {
	if ip == nil {
		recordLookup(ctx, sourceNone, "invalid_address")
		return models.UnknownLocation()
	}

	if r.primary != nil {
		info, err := r.primary.Locate(ctx, ip)
		if err == nil && info.Complete() {
			recordLookup(ctx, sourcePrimary, "hit")
			return info
		}

		r.logger.Debug().Err(err).Str("ip", ip.String()).Msg("Primary geolocation lookup incomplete")
		recordLookup(ctx, sourcePrimary, "miss")
	}

	if r.secondary != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, r.secondaryTimeout)
		info, err := r.secondary.Locate(lookupCtx, ip)
		cancel()

		if err == nil && info.Complete() {
			recordLookup(ctx, sourceSecondary, "hit")
			return info
		}

		r.logger.Debug().Err(err).Str("ip", ip.String()).Msg("Secondary geolocation lookup failed")
		recordLookup(ctx, sourceSecondary, "miss")
	}

	return models.UnknownLocation()
}

func isLocal(ip net.IP) bool {
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}
