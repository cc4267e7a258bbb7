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

package core

import (
	"context"
	"fmt"

	"github.com/carverauto/beaconhub/pkg/config"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

// LoadConfig reads the service configuration from path (or the environment,
// depending on CONFIG_SOURCE) and applies defaults.
func LoadConfig(ctx context.Context, path string, log logger.Logger) (models.Config, error) {
	var cfg models.Config

	if err := config.NewConfig(log).LoadAndValidate(ctx, path, &cfg); err != nil {
		return models.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
