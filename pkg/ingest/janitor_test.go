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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
	"github.com/carverauto/beaconhub/pkg/session"
)

func TestJanitorSweep(t *testing.T) {
	ctrl := gomock.NewController(t)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := NewMockSweeper(ctrl)
	cache := NewMockSweeper(ctrl)

	j := NewJanitor(time.Minute, logger.NewTestLogger(), sessions, cache)
	j.nowFn = func() time.Time { return now }

	sessions.EXPECT().Sweep(now).Return(3)
	cache.EXPECT().Sweep(now).Return(2)

	assert.Equal(t, 5, j.sweep(context.Background()))
}

func TestJanitorEvictsExpiredSessions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	store := session.NewStore(24 * time.Hour)
	store.SetNowFn(func() time.Time { return now.Add(-25 * time.Hour) })
	store.Upsert("old", models.DefaultDeviceRecord("old"))

	store.SetNowFn(func() time.Time { return now })
	store.Upsert("fresh", models.DefaultDeviceRecord("fresh"))

	j := NewJanitor(0, logger.NewTestLogger(), store)
	j.nowFn = func() time.Time { return now }

	assert.Equal(t, DefaultSweepInterval, j.interval)
	assert.Equal(t, 1, j.sweep(context.Background()))
	assert.Equal(t, 1, store.Len())
}

func TestJanitorStartStop(t *testing.T) {
	j := NewJanitor(time.Hour, logger.NewTestLogger())

	returned := make(chan struct{})

	go func() {
		j.Start(context.Background())
		close(returned)
	}()

	assert.Eventually(t, func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()

		return j.done != nil
	}, time.Second, 5*time.Millisecond)

	j.Stop()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}

	// stopping an idle janitor is a no-op
	j.Stop()
}

func TestJanitorStopsWithContext(t *testing.T) {
	j := NewJanitor(time.Hour, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j.Start(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	assert.Nil(t, j.done)
}
