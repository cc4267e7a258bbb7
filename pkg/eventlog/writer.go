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

// Package eventlog is the append-only, day-partitioned audit trail of every
// accepted beacon.
package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

// Writer appends LogEntries to the partition of their UTC day. Appends to
// the same partition are serialized; different days proceed in parallel.
type Writer struct {
	fs     FS
	format models.LogFormat
	logger logger.Logger
	nowFn  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter creates a Writer over fsys. An empty format means LogFormatJSON.
func NewWriter(fsys FS, format models.LogFormat, log logger.Logger) *Writer {
	if format == "" {
		format = models.LogFormatJSON
	}

	return &Writer{
		fs:     fsys,
		format: format,
		logger: log,
		nowFn:  time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Append durably persists entry. A zero Timestamp is set to the current time.
func (w *Writer) Append(ctx context.Context, entry models.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = w.nowFn().UTC()
	}

	name := PartitionName(entry.Timestamp, w.format)

	lock := w.partitionLock(name)
	lock.Lock()
	defer lock.Unlock()

	var err error

	switch w.format {
	case models.LogFormatJSONL:
		err = w.appendLine(name, entry)
	default:
		err = w.rewrite(name, entry)
	}

	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}

	return nil
}

func (w *Writer) partitionLock(name string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[name] = lock
	}

	return lock
}

func (w *Writer) appendLine(name string, entry models.LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return w.fs.AppendFile(name, append(line, '\n'))
}

// rewrite reads the day's array, appends entry and replaces the file.
func (w *Writer) rewrite(name string, entry models.LogEntry) error {
	existing, err := w.readArray(name)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	data, err := json.Marshal(append(existing, raw))
	if err != nil {
		return err
	}

	return w.fs.WriteFile(name, data)
}

// readArray loads a partition as raw elements. A missing file is empty; an
// unparseable one is set aside so its bytes are not overwritten.
func (w *Writer) readArray(name string) ([]json.RawMessage, error) {
	data, err := w.fs.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var existing []json.RawMessage
	if err := json.Unmarshal(data, &existing); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", name, w.nowFn().Unix())

		w.logger.Warn().
			Err(err).
			Str("partition", name).
			Str("moved_to", quarantine).
			Msg("Event log partition unparseable, starting a new sequence")

		if werr := w.fs.WriteFile(quarantine, data); werr != nil {
			return nil, fmt.Errorf("failed to preserve corrupt partition: %w", werr)
		}

		return nil, nil
	}

	return existing, nil
}
