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

// Command eventlog inspects and maintains beaconhub event log partitions.
//
//	eventlog history --dir /var/lib/beaconhub/logs --ip 203.0.113.5 --limit 20
//	eventlog archive --dir /var/lib/beaconhub/logs --days 7
//	eventlog prune   --dir /var/lib/beaconhub/logs --days 90
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/carverauto/beaconhub/pkg/eventlog"
	"github.com/carverauto/beaconhub/pkg/ingest"
	"github.com/carverauto/beaconhub/pkg/lifecycle"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

const usage = `usage: eventlog <history|archive|prune> [flags]`

var errUsage = errors.New(usage)

func main() {
	log, err := lifecycle.CreateComponentLogger("eventlog-tool", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, log logger.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd := args[0]

	flags := pflag.NewFlagSet("eventlog "+cmd, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	dir := flags.String("dir", "./data/logs", "event log directory")
	format := flags.String("format", string(models.LogFormatJSON), "partition encoding (json or jsonl)")
	ip := flags.String("ip", "", "only entries for this client address")
	kind := flags.String("kind", "", "only entries of this kind (beacon or image)")
	limit := flags.Int("limit", eventlog.DefaultHistoryLimit, "maximum number of entries")
	days := flags.Int("days", 0, "archive or prune partitions older than this many days")

	if err := flags.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	writer := eventlog.NewWriter(eventlog.NewOSFS(*dir), models.LogFormat(*format), log)
	now := time.Now()

	switch cmd {
	case "history":
		identity := ""
		if *ip != "" {
			identity = ingest.NormalizeAddress(*ip)
		}

		entries, err := writer.History(ctx, identity, models.LogEntryKind(*kind), *limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(out)
		for _, entry := range entries {
			if err := enc.Encode(entry); err != nil {
				return err
			}
		}

		return nil
	case "archive":
		n, err := writer.Archive(ctx, now, *days)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "archived %d partition(s)\n", n)

		return err
	case "prune":
		if *days <= 0 {
			return fmt.Errorf("%w: prune requires --days > 0", errUsage)
		}

		n, err := writer.Prune(ctx, now, *days)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "pruned %d partition(s)\n", n)

		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
