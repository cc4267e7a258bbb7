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

package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/beaconhub/pkg/models"
)

func newTestStore(start time.Time) (*Store, *time.Time) {
	now := start
	s := NewStore(24 * time.Hour)
	s.SetNowFn(func() time.Time { return now })

	return s, &now
}

func record(model string) models.DeviceRecord {
	rec := models.DefaultDeviceRecord("")
	rec.Device.Model = model
	rec.Device.Battery = models.Battery{Level: 0.5, Charging: true}

	return rec
}

func TestUpsertThenGet(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(start)

	in := record("Pixel 8")
	stored := s.Upsert("203.0.113.5", in)

	got, ok := s.Get("203.0.113.5")
	require.True(t, ok)
	assert.Equal(t, stored, got)
	assert.Equal(t, start, got.Timestamp)
	assert.Equal(t, "203.0.113.5", got.Identity)

	// equal to the input modulo the fields the store owns
	in.Identity = got.Identity
	in.Timestamp = got.Timestamp
	assert.Equal(t, in, got)
}

func TestUpsertReplacesAndKeepsOneRecord(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	s.Upsert("10.0.0.1", record("first"))
	*now = start.Add(10 * time.Second)
	s.Upsert("10.0.0.1", record("second"))

	assert.Equal(t, 1, s.Len())

	got, ok := s.Get("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, "second", got.Device.Model)
	assert.Equal(t, start.Add(10*time.Second), got.Timestamp)
}

func TestUpsertTimestampNeverGoesBackwards(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	s.Upsert("10.0.0.1", record("a"))
	*now = start.Add(-time.Minute)
	got := s.Upsert("10.0.0.1", record("b"))

	assert.Equal(t, start, got.Timestamp)
	assert.Equal(t, "b", got.Device.Model)
}

func TestGetHidesExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	s.Upsert("10.0.0.1", record("a"))

	*now = start.Add(24 * time.Hour)
	_, ok := s.Get("10.0.0.1")
	assert.True(t, ok, "exactly at the window edge is still live")

	*now = start.Add(24*time.Hour + time.Second)
	_, ok = s.Get("10.0.0.1")
	assert.False(t, ok)
	assert.Empty(t, s.ListAll())
	assert.Equal(t, 1, s.Len(), "hidden but not yet evicted")
}

func TestListAllOrdering(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	for i, id := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		*now = start.Add(time.Duration(i) * time.Minute)
		s.Upsert(id, record(id))
	}

	ids := func() []string {
		var out []string
		for _, rec := range s.ListAll() {
			out = append(out, rec.Identity)
		}

		return out
	}

	assert.Equal(t, []string{"10.0.0.3", "10.0.0.2", "10.0.0.1"}, ids())

	*now = start.Add(time.Hour)
	s.Upsert("10.0.0.1", record("again"))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.3", "10.0.0.2"}, ids())

	list := s.ListAll()
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Timestamp.After(list[i-1].Timestamp))
	}
}

func TestAttachImageRef(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	_, ok := s.AttachImageRef("10.0.0.9", "10.0.0.9_x.jpg")
	assert.False(t, ok, "absent identity is a no-op")
	assert.Zero(t, s.Len())

	s.Upsert("10.0.0.1", record("a"))

	updated, ok := s.AttachImageRef("10.0.0.1", "10.0.0.1_2026-03-01_12-00-05.jpg")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1_2026-03-01_12-00-05.jpg", updated.LastImageRef)

	got, _ := s.Get("10.0.0.1")
	assert.Equal(t, updated, got)

	*now = start.Add(25 * time.Hour)
	_, ok = s.AttachImageRef("10.0.0.1", "late.jpg")
	assert.False(t, ok, "expired identity is a no-op")
}

func TestEvictExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, now := newTestStore(start)

	s.Upsert("old", record("old"))
	*now = start.Add(20 * time.Hour)
	s.Upsert("fresh", record("fresh"))

	evictAt := start.Add(25 * time.Hour)
	removed := s.EvictExpired(evictAt, 24*time.Hour)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	*now = evictAt
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)

	assert.Equal(t, 1, s.Sweep(start.Add(45*time.Hour)))
	assert.Zero(t, s.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(time.Hour)

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("10.0.%d.%d", w, i%10)
				s.Upsert(id, record(id))
				s.Get(id)
				s.AttachImageRef(id, id+".jpg")
				s.ListAll()

				if i%50 == 0 {
					s.EvictExpired(time.Now(), time.Hour)
				}
			}
		}(w)
	}

	wg.Wait()
	assert.Equal(t, 80, s.Len())
}
