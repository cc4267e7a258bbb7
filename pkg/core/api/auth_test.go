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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carverauto/beaconhub/pkg/models"
)

func TestNewBasicAuthorizer(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     models.AuthConfig
		wantErr bool
	}{
		{name: "plaintext", cfg: models.AuthConfig{Username: "u", Password: "pw"}},
		{name: "hash", cfg: models.AuthConfig{Username: "u", PasswordHash: string(hash)}},
		{name: "no user", cfg: models.AuthConfig{Password: "pw"}, wantErr: true},
		{name: "no password", cfg: models.AuthConfig{Username: "u"}, wantErr: true},
		{name: "bad hash", cfg: models.AuthConfig{Username: "u", PasswordHash: "plain"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz, err := NewBasicAuthorizer(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, authz.IsAuthorized(Credentials{Username: "u", Password: "pw"}))
			assert.False(t, authz.IsAuthorized(Credentials{Username: "u", Password: "nope"}))
			assert.False(t, authz.IsAuthorized(Credentials{Username: "x", Password: "pw"}))
		})
	}
}

func TestNilAuthorizerDenies(t *testing.T) {
	var authz *BasicAuthorizer

	assert.False(t, authz.IsAuthorized(Credentials{Username: "u", Password: "pw"}))
	assert.False(t, denyAll{}.IsAuthorized(Credentials{}))
}
