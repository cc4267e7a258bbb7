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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName                = "github.com/carverauto/beaconhub/pkg/ingest"
	metricBeaconsIngested    = "beacons_ingested_total"
	metricAppendFailures     = "eventlog_append_failures_total"
	metricJanitorEvicted     = "janitor_evicted_total"
	metricPublishFailures    = "device_seen_publish_failures_total"
	attributeEntryKind       = "kind"
	attributeCoordinateOwner = "coordinates"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	ingestedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	appendFailureCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	evictedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	publishFailureCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	ingestedCounter = newCounter(meter, metricBeaconsIngested, "Beacons accepted into the session store")
	appendFailureCounter = newCounter(meter, metricAppendFailures, "Event log appends that failed and were dropped")
	evictedCounter = newCounter(meter, metricJanitorEvicted, "Expired sessions and cache entries removed by the janitor")
	publishFailureCounter = newCounter(meter, metricPublishFailures, "Device-seen events that could not be published")
}

func newCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
	}

	return counter
}

func recordIngested(ctx context.Context, clientCoordinates bool) {
	meterOnce.Do(initMeter)
	if ingestedCounter == nil {
		return
	}

	owner := "resolver"
	if clientCoordinates {
		owner = "client"
	}

	ingestedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(attributeCoordinateOwner, owner)))
}

func recordAppendFailure(ctx context.Context, kind string) {
	meterOnce.Do(initMeter)
	if appendFailureCounter == nil {
		return
	}

	appendFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(attributeEntryKind, kind)))
}

func recordEvicted(ctx context.Context, n int) {
	meterOnce.Do(initMeter)
	if evictedCounter == nil || n == 0 {
		return
	}

	evictedCounter.Add(ctx, int64(n))
}

func recordPublishFailure(ctx context.Context) {
	meterOnce.Do(initMeter)
	if publishFailureCounter == nil {
		return
	}

	publishFailureCounter.Add(ctx, 1)
}
