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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/carverauto/beaconhub/pkg/models"
)

// DefaultHistoryLimit applies when History is called with limit <= 0.
const DefaultHistoryLimit = 10

// History returns the most recent entries for identity, newest first. An
// empty identity or kind matches everything.
func (w *Writer) History(ctx context.Context, identity string, kind models.LogEntryKind, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	parts, err := w.partitions()
	if err != nil {
		return nil, err
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].day.After(parts[j].day)
	})

	var out []models.LogEntry

	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// a day may hold one partition per format; finish the day before stopping
		if len(out) >= limit && parts[i-1].day.After(p.day) {
			break
		}

		entries, err := w.readPartition(p)
		if err != nil {
			w.logger.Warn().Err(err).Str("partition", p.name).Msg("Skipping unreadable event log partition")
			continue
		}

		for j := range entries {
			if identity != "" && entries[j].Identity != identity {
				continue
			}

			if kind != "" && entries[j].Kind != kind {
				continue
			}

			out = append(out, entries[j])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (w *Writer) partitions() ([]partition, error) {
	names, err := w.fs.ReadDir()
	if err != nil {
		return nil, fmt.Errorf("failed to list event log: %w", err)
	}

	parts := make([]partition, 0, len(names))

	for _, name := range names {
		if p, ok := parsePartition(name); ok {
			parts = append(parts, p)
		}
	}

	return parts, nil
}

func (w *Writer) readPartition(p partition) ([]models.LogEntry, error) {
	data, err := w.fs.ReadFile(p.name)
	if err != nil {
		return nil, err
	}

	if p.archived {
		if data, err = decompress(data); err != nil {
			return nil, err
		}
	}

	if p.format == models.LogFormatJSONL {
		return decodeLines(data), nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []models.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// decodeLines skips lines that do not parse, such as a torn final write.
func decodeLines(data []byte) []models.LogEntry {
	var entries []models.LogEntry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry models.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = enc.Close() }()

	return enc.EncodeAll(data, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(data, nil)
}
