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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "mapped_ipv4", in: "::ffff:203.0.113.5", want: "203.0.113.5"},
		{name: "mapped_upper_case", in: "::FFFF:10.1.2.3", want: "10.1.2.3"},
		{name: "ipv6_loopback", in: "::1", want: "127.0.0.1"},
		{name: "whitespace", in: "  192.0.2.1\n", want: "192.0.2.1"},
		{name: "plain_ipv4", in: "198.51.100.7", want: "198.51.100.7"},
		{name: "plain_ipv6", in: "2001:db8::1", want: "2001:db8::1"},
		{name: "mapped_prefix_without_ipv4", in: "::ffff:2001:db8::1", want: "::ffff:2001:db8::1"},
		{name: "nested_prefix", in: "::ffff:::ffff:1.2.3.4", want: "::ffff:::ffff:1.2.3.4"},
		{name: "prefix_only", in: "::ffff:", want: "::ffff:"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAddress(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeAddress(got), "normalization must be idempotent")
		})
	}
}
