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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/beaconhub/pkg/eventlog"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

func seedLog(t *testing.T, dir string, entries ...models.LogEntry) {
	t.Helper()

	w := eventlog.NewWriter(eventlog.NewOSFS(dir), models.LogFormatJSON, logger.NewTestLogger())
	for _, e := range entries {
		require.NoError(t, w.Append(context.Background(), e))
	}
}

func TestRunHistory(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC()

	seedLog(t, dir,
		models.LogEntry{ID: "1", Kind: models.LogEntryBeacon, Identity: "127.0.0.1", Timestamp: now.Add(-2 * time.Minute)},
		models.LogEntry{ID: "2", Kind: models.LogEntryBeacon, Identity: "203.0.113.5", Timestamp: now.Add(-time.Minute)},
		models.LogEntry{ID: "3", Kind: models.LogEntryImage, Identity: "127.0.0.1", Timestamp: now},
	)

	var out bytes.Buffer

	err := run(context.Background(), []string{"history", "--dir", dir, "--ip", "::1"}, &out, logger.NewTestLogger())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first models.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "3", first.ID)
}

func TestRunArchiveAndPrune(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().UTC().AddDate(0, 0, -30)

	seedLog(t, dir, models.LogEntry{ID: "old", Kind: models.LogEntryBeacon, Identity: "a", Timestamp: old})

	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"archive", "--dir", dir, "--days", "7"}, &out, logger.NewTestLogger()))
	assert.Equal(t, "archived 1 partition(s)\n", out.String())

	_, err := os.Stat(filepath.Join(dir, eventlog.PartitionName(old, models.LogFormatJSON)+".zst"))
	require.NoError(t, err)

	out.Reset()

	require.NoError(t, run(context.Background(), []string{"prune", "--dir", dir, "--days", "14"}, &out, logger.NewTestLogger()))
	assert.Equal(t, "pruned 1 partition(s)\n", out.String())
}

func TestRunUsageErrors(t *testing.T) {
	tests := [][]string{
		nil,
		{"rotate"},
		{"prune", "--dir", t.TempDir()},
		{"history", "--bogus"},
	}

	for _, args := range tests {
		err := run(context.Background(), args, &bytes.Buffer{}, logger.NewTestLogger())
		require.ErrorIs(t, err, errUsage)
	}
}
