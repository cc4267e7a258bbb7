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

package eventlog

import (
	"context"
	"fmt"
	"time"
)

const oneDay = 24 * time.Hour

// Archive compresses plain partitions whose day is more than olderThanDays
// before now's day. It returns the number of partitions archived.
func (w *Writer) Archive(ctx context.Context, now time.Time, olderThanDays int) (int, error) {
	cutoff := startOfDay(now).Add(-time.Duration(olderThanDays) * oneDay)

	parts, err := w.partitions()
	if err != nil {
		return 0, err
	}

	archived := 0

	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return archived, err
		}

		if p.archived || !p.day.Before(cutoff) {
			continue
		}

		if err := w.archivePartition(p); err != nil {
			return archived, fmt.Errorf("failed to archive %s: %w", p.name, err)
		}

		archived++

		w.logger.Info().Str("partition", p.name).Msg("Archived event log partition")
	}

	return archived, nil
}

func (w *Writer) archivePartition(p partition) error {
	lock := w.partitionLock(p.name)
	lock.Lock()
	defer lock.Unlock()

	data, err := w.fs.ReadFile(p.name)
	if err != nil {
		return err
	}

	packed, err := compress(data)
	if err != nil {
		return err
	}

	if err := w.fs.WriteFile(p.name+archiveSuffix, packed); err != nil {
		return err
	}

	return w.fs.Remove(p.name)
}

// Prune removes partitions, archived or not, whose day is more than keepDays
// before now's day. It returns the number of files removed.
func (w *Writer) Prune(ctx context.Context, now time.Time, keepDays int) (int, error) {
	cutoff := startOfDay(now).Add(-time.Duration(keepDays) * oneDay)

	parts, err := w.partitions()
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		if !p.day.Before(cutoff) {
			continue
		}

		lock := w.partitionLock(p.name)
		lock.Lock()
		err := w.fs.Remove(p.name)
		lock.Unlock()

		if err != nil {
			return removed, fmt.Errorf("failed to prune %s: %w", p.name, err)
		}

		removed++
	}

	if removed > 0 {
		w.logger.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("Pruned event log partitions")
	}

	return removed, nil
}
