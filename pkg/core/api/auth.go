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
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/carverauto/beaconhub/pkg/models"
)

const authRealm = `Basic realm="Monitor Access"`

var errNoCredentials = errors.New("auth username and password or password_hash are required")

// BasicAuthorizer checks HTTP Basic credentials against one configured
// account. The password is only ever held as a bcrypt hash.
type BasicAuthorizer struct {
	username []byte
	hash     []byte
}

// NewBasicAuthorizer builds an authorizer from cfg. A plaintext password is
// hashed once here; a configured hash is used as is.
func NewBasicAuthorizer(cfg models.AuthConfig) (*BasicAuthorizer, error) {
	if cfg.Username == "" || (cfg.Password == "" && cfg.PasswordHash == "") {
		return nil, errNoCredentials
	}

	hash := []byte(cfg.PasswordHash)

	if len(hash) == 0 {
		var err error

		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash auth password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid auth password_hash: %w", err)
	}

	return &BasicAuthorizer{username: []byte(cfg.Username), hash: hash}, nil
}

// IsAuthorized compares the user in constant time and the password with bcrypt.
func (a *BasicAuthorizer) IsAuthorized(creds Credentials) bool {
	if a == nil || len(a.hash) == 0 {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), a.username) == 1
	passOK := bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password)) == nil

	return userOK && passOK
}

// denyAll is used when no authorizer is configured.
type denyAll struct{}

func (denyAll) IsAuthorized(Credentials) bool { return false }

// authenticationMiddleware gates read endpoints behind the authorizer.
func (s *APIServer) authenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.authorizer.IsAuthorized(Credentials{Username: user, Password: pass}) {
			s.logger.Debug().
				Str("path", r.URL.Path).
				Bool("credentials_present", ok).
				Msg("Unauthorized API access attempt")

			w.Header().Set("WWW-Authenticate", authRealm)
			writeError(w, "Authentication required", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}
