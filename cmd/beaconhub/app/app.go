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

// Package app wires configuration, logging and metrics around the core server.
package app

import (
	"context"
	"errors"

	"github.com/carverauto/beaconhub/pkg/config"
	"github.com/carverauto/beaconhub/pkg/core"
	"github.com/carverauto/beaconhub/pkg/lifecycle"
)

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
	Version    string
}

// Run boots the service and blocks until ctx is canceled.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bootLogger, err := lifecycle.CreateComponentLogger("beaconhub-boot", nil)
	if err != nil {
		return err
	}

	cfg, err := core.LoadConfig(ctx, opts.ConfigPath, bootLogger)
	if err != nil {
		return err
	}

	mainLogger, err := lifecycle.CreateComponentLogger("beaconhub", cfg.Logging)
	if err != nil {
		return err
	}

	if sanitized, err := config.SanitizedJSON(cfg); err == nil {
		mainLogger.Debug().RawJSON("config", sanitized).Msg("Loaded configuration")
	}

	if _, err := lifecycle.InitializeMetrics(ctx, cfg.Metrics, opts.Version); err != nil &&
		!errors.Is(err, lifecycle.ErrOTelMetricsDisabled) {
		return err
	}

	defer func() {
		if err := lifecycle.ShutdownMetrics(context.Background()); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down metrics")
		}
	}()

	server, err := core.NewServer(ctx, &cfg, mainLogger)
	if err != nil {
		return err
	}

	mainLogger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Str("version", opts.Version).
		Msg("Starting beaconhub")

	return server.Run(ctx)
}
