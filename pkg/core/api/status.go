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

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const cpuSampleInterval = 200 * time.Millisecond

// collectHostStats samples CPU, memory and uptime of the local host.
func collectHostStats(ctx context.Context) (*HostStats, error) {
	percents, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return nil, err
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, err
	}

	stats := &HostStats{
		MemoryTotal:   vm.Total,
		MemoryUsed:    vm.Used,
		MemoryPercent: vm.UsedPercent,
		UptimeSeconds: uptime,
	}

	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	return stats, nil
}

func (s *APIServer) getSystemStatus(w http.ResponseWriter, r *http.Request) {
	now := s.nowFn()

	status := SystemStatus{
		StartedAt: s.startedAt.UTC(),
		Uptime:    now.Sub(s.startedAt).Round(time.Second).String(),
	}

	if s.devices != nil {
		status.Devices = len(s.devices.ListDevices())
	}

	if s.geoCache != nil {
		status.GeoCacheEntries = s.geoCache.Len()
	}

	hostStats, err := s.hostStats(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to collect host stats")

		status.HostError = err.Error()
	} else {
		status.Host = hostStats
	}

	s.encodeJSONResponse(w, status)
}
