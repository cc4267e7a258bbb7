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
	"errors"
	"sync"
	"time"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

const (
	// DefaultPublishQueueSize bounds the records waiting for the broker.
	DefaultPublishQueueSize = 1024
	// DefaultPublishTimeout bounds one delivery attempt.
	DefaultPublishTimeout = 5 * time.Second
)

// ErrPublishQueueFull is returned when a record is dropped because the
// broker is not keeping up.
var ErrPublishQueueFull = errors.New("device seen publish queue full")

// PublishQueue hands records to a Publisher from its own goroutine so that
// PublishDeviceSeen never waits on the broker.
type PublishQueue struct {
	next    Publisher
	records chan models.DeviceRecord
	timeout time.Duration
	logger  logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublishQueue creates a queue holding up to size records in front of next.
func NewPublishQueue(next Publisher, size int, timeout time.Duration, log logger.Logger) *PublishQueue {
	if size <= 0 {
		size = DefaultPublishQueueSize
	}

	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	return &PublishQueue{
		next:    next,
		records: make(chan models.DeviceRecord, size),
		timeout: timeout,
		logger:  log,
	}
}

// PublishDeviceSeen enqueues record. It never blocks; a full queue drops the
// record and returns ErrPublishQueueFull.
func (q *PublishQueue) PublishDeviceSeen(_ context.Context, record models.DeviceRecord) error {
	select {
	case q.records <- record:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Len returns the number of records waiting for delivery.
func (q *PublishQueue) Len() int {
	return len(q.records)
}

// Start delivers queued records until ctx is cancelled or Stop is called,
// then flushes what is still queued. A second concurrent Start returns
// immediately.
func (q *PublishQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.done != nil {
		q.mu.Unlock()
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	q.done = done
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.cancel()
		q.cancel = nil
		q.done = nil
		q.mu.Unlock()

		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			q.flush(context.WithoutCancel(ctx))
			return
		case record := <-q.records:
			q.deliver(ctx, record)
		}
	}
}

// Stop ends a running Start and waits for the flush to finish.
func (q *PublishQueue) Stop() {
	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// flush delivers queued records within one timeout and drops the rest.
func (q *PublishQueue) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	for {
		select {
		case record := <-q.records:
			if ctx.Err() != nil {
				dropped := 1 + q.drain()
				q.logger.Warn().Int("dropped", dropped).Msg("Dropped unpublished device seen events on shutdown")

				return
			}

			q.deliver(ctx, record)
		default:
			return
		}
	}
}

func (q *PublishQueue) drain() int {
	n := 0

	for {
		select {
		case <-q.records:
			n++
		default:
			return n
		}
	}
}

func (q *PublishQueue) deliver(ctx context.Context, record models.DeviceRecord) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	if err := q.next.PublishDeviceSeen(ctx, record); err != nil {
		recordPublishFailure(ctx)

		q.logger.Warn().
			Err(err).
			Str("identity", record.Identity).
			Msg("Failed to publish device seen event")
	}
}
