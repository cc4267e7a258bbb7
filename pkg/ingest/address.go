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
	"net"
	"strings"
)

const (
	v4MappedPrefix = "::ffff:"
	ipv6Loopback   = "::1"
	ipv4Loopback   = "127.0.0.1"
)

// NormalizeAddress turns a transport-level client address into a device
// identity. IPv4-mapped IPv6 addresses lose their ::ffff: prefix and the IPv6
// loopback becomes 127.0.0.1. Applying it twice yields the same result.
func NormalizeAddress(raw string) string {
	addr := strings.TrimSpace(raw)

	if len(addr) > len(v4MappedPrefix) && strings.EqualFold(addr[:len(v4MappedPrefix)], v4MappedPrefix) {
		rest := addr[len(v4MappedPrefix):]
		if !strings.Contains(rest, ":") && net.ParseIP(rest) != nil {
			addr = rest
		}
	}

	if addr == ipv6Loopback {
		return ipv4Loopback
	}

	return addr
}
