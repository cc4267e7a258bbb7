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
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

// Pipeline orchestrates the resolver, the session store and the event log
// for every inbound beacon.
type Pipeline struct {
	resolver  LocationResolver
	store     SessionStore
	eventLog  LogWriter
	publisher Publisher
	policy    models.CoordinatePolicy
	logger    logger.Logger
	nowFn     func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogWriter enables the audit trail.
func WithLogWriter(w LogWriter) Option {
	return func(p *Pipeline) {
		p.eventLog = w
	}
}

// WithPublisher announces every accepted beacon.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// WithCoordinatePolicy selects how client coordinates compete with resolved ones.
func WithCoordinatePolicy(policy models.CoordinatePolicy) Option {
	return func(p *Pipeline) {
		if policy != "" {
			p.policy = policy
		}
	}
}

// WithClock overrides the time source used for image log entries.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.nowFn = now
		}
	}
}

// WithIDGenerator overrides how log entry IDs are created.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// NewPipeline wires a pipeline over resolver and store.
func NewPipeline(resolver LocationResolver, store SessionStore, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		store:    store,
		policy:   models.CoordinatesResolverFirst,
		logger:   log,
		nowFn:    time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Ingest accepts one beacon and returns the stored record. The record is
// live even when the returned error reports that the event log append
// failed; publish failures are only logged and counted.
func (p *Pipeline) Ingest(ctx context.Context, rawAddress, userAgent string, beacon models.Beacon) (models.DeviceRecord, error) {
	identity := NormalizeAddress(rawAddress)
	ua := ParseUserAgent(userAgent)
	loc := p.resolver.Resolve(ctx, identity)

	record := BuildRecord(identity, ua, loc, beacon, p.policy)
	stored := p.store.Upsert(identity, record)

	recordIngested(ctx, stored.Location.Lat != loc.Lat || stored.Location.Lon != loc.Lon)

	p.logger.Debug().
		Str("identity", identity).
		Str("browser", stored.Device.Browser).
		Str("city", stored.Location.City).
		Msg("Beacon accepted")

	err := p.appendEntry(ctx, models.LogEntryBeacon, stored, stored.Timestamp)
	p.publish(ctx, stored)

	return stored, err
}

// GetDevice returns the live record for identity.
func (p *Pipeline) GetDevice(identity string) (models.DeviceRecord, bool) {
	return p.store.Get(NormalizeAddress(identity))
}

// ListDevices returns every live record, most recently seen first.
func (p *Pipeline) ListDevices() []models.DeviceRecord {
	return p.store.ListAll()
}

// AttachImage links a captured image to a live record and reports whether
// one existed.
func (p *Pipeline) AttachImage(ctx context.Context, identity, filename string) bool {
	record, ok := p.store.AttachImageRef(NormalizeAddress(identity), filename)
	if !ok {
		p.logger.Debug().Str("identity", identity).Msg("Image received for device without a live session")
		return false
	}

	_ = p.appendEntry(ctx, models.LogEntryImage, record, p.nowFn().UTC())

	return true
}

// History returns logged entries for identity, newest first. Without an
// event log it is always empty.
func (p *Pipeline) History(ctx context.Context, identity string, kind models.LogEntryKind, limit int) ([]models.LogEntry, error) {
	if p.eventLog == nil {
		return nil, nil
	}

	return p.eventLog.History(ctx, NormalizeAddress(identity), kind, limit)
}

func (p *Pipeline) appendEntry(ctx context.Context, kind models.LogEntryKind, record models.DeviceRecord, at time.Time) error {
	if p.eventLog == nil {
		return nil
	}

	entry := models.LogEntry{
		ID:        p.newID(),
		Kind:      kind,
		Identity:  record.Identity,
		Timestamp: at,
		Record:    record,
	}

	if err := p.eventLog.Append(ctx, entry); err != nil {
		recordAppendFailure(ctx, string(kind))

		p.logger.Error().
			Err(err).
			Str("identity", record.Identity).
			Str("kind", string(kind)).
			Msg("Failed to append event log entry")

		return err
	}

	return nil
}

func (p *Pipeline) publish(ctx context.Context, record models.DeviceRecord) {
	if p.publisher == nil {
		return
	}

	if err := p.publisher.PublishDeviceSeen(ctx, record); err != nil {
		recordPublishFailure(ctx)

		p.logger.Warn().
			Err(err).
			Str("identity", record.Identity).
			Msg("Failed to publish device seen event")
	}
}
