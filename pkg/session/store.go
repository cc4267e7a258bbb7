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

// Package session keeps the most recent telemetry for every device seen
// within the retention window.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/carverauto/beaconhub/pkg/models"
)

const defaultRetention = 24 * time.Hour

// Store is an in-memory registry of DeviceRecords keyed by identity.
// All methods are safe for concurrent use and never perform I/O under the lock.
type Store struct {
	mu        sync.RWMutex
	records   map[string]models.DeviceRecord
	retention time.Duration
	nowFn     func() time.Time
}

// NewStore creates a Store that hides records older than retention.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = defaultRetention
	}

	return &Store{
		records:   make(map[string]models.DeviceRecord),
		retention: retention,
		nowFn:     time.Now,
	}
}

// SetNowFn replaces the store clock.
func (s *Store) SetNowFn(now func() time.Time) {
	if now == nil {
		return
	}

	s.mu.Lock()
	s.nowFn = now
	s.mu.Unlock()
}

// Retention reports the configured retention window.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// Upsert replaces whatever is stored for identity with record, stamped with
// the acceptance time, and returns the stored copy. The stamp never moves
// backwards for an identity even if the clock does.
func (s *Store) Upsert(identity string, record models.DeviceRecord) models.DeviceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := s.nowFn().UTC()
	if prev, ok := s.records[identity]; ok && accepted.Before(prev.Timestamp) {
		accepted = prev.Timestamp
	}

	record.Identity = identity
	record.Timestamp = accepted
	s.records[identity] = record

	return record
}

// Get returns the live record for identity.
func (s *Store) Get(identity string) (models.DeviceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identity]
	if !ok || s.expired(rec, s.nowFn()) {
		return models.DeviceRecord{}, false
	}

	return rec, true
}

// ListAll returns every live record, most recently seen first.
func (s *Store) ListAll() []models.DeviceRecord {
	s.mu.RLock()

	now := s.nowFn()
	out := make([]models.DeviceRecord, 0, len(s.records))

	for _, rec := range s.records {
		if !s.expired(rec, now) {
			out = append(out, rec)
		}
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Identity < out[j].Identity
		}

		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// AttachImageRef records filename as the latest image for a live identity.
// It reports false, and changes nothing, when no live record exists.
func (s *Store) AttachImageRef(identity, filename string) (models.DeviceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok || s.expired(rec, s.nowFn()) {
		return models.DeviceRecord{}, false
	}

	rec.LastImageRef = filename
	s.records[identity] = rec

	return rec, true
}

// EvictExpired removes every record older than window at now.
func (s *Store) EvictExpired(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for identity, rec := range s.records {
		if now.Sub(rec.Timestamp) > window {
			delete(s.records, identity)
			removed++
		}
	}

	return removed
}

// Sweep evicts with the configured retention window.
func (s *Store) Sweep(now time.Time) int {
	return s.EvictExpired(now, s.retention)
}

// Len reports how many records are held, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func (s *Store) expired(rec models.DeviceRecord, now time.Time) bool {
	return now.Sub(rec.Timestamp) > s.retention
}
