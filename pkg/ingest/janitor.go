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
	"sync"
	"time"

	"github.com/carverauto/beaconhub/pkg/logger"
)

// DefaultSweepInterval is how often the janitor runs when none is given.
const DefaultSweepInterval = time.Hour

// Janitor periodically sweeps expired sessions and cache entries.
type Janitor struct {
	sweepers []Sweeper
	interval time.Duration
	logger   logger.Logger
	nowFn    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor creates a Janitor over sweepers.
func NewJanitor(interval time.Duration, log logger.Logger, sweepers ...Sweeper) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Janitor{
		sweepers: sweepers,
		interval: interval,
		logger:   log,
		nowFn:    time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called. A
// second concurrent Start returns immediately.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.done != nil {
		j.mu.Unlock()
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	j.done = done
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.cancel()
		j.cancel = nil
		j.done = nil
		j.mu.Unlock()

		close(done)
	}()

	j.logger.Info().Str("interval", j.interval.String()).Msg("Starting session janitor")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("Session janitor stopping")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// Stop ends a running Start and waits for it to return.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// sweep executes a single cleanup cycle and returns the number of entries removed.
func (j *Janitor) sweep(ctx context.Context) int {
	now := j.nowFn()
	removed := 0

	for _, s := range j.sweepers {
		removed += s.Sweep(now)
	}

	recordEvicted(ctx, removed)

	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msg("Swept expired entries")
	}

	return removed
}
