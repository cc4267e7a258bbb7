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
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	srHttp "github.com/carverauto/beaconhub/pkg/http"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
)

const (
	defaultReadTimeout   = 30 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultHeaderTimeout = 10 * time.Second
)

// APIServer routes HTTP requests to the device service.
type APIServer struct {
	router     *mux.Router
	corsConfig models.CORSConfig
	logger     logger.Logger

	devices    DeviceService
	authorizer Authorizer
	limiter    *srHttp.RateLimiter
	geoCache   CacheSizer
	hostStats  func(ctx context.Context) (*HostStats, error)
	trustProxy bool
	captureDir string
	staticDir  string
	nowFn      func() time.Time
	startedAt  time.Time

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewAPIServer creates the server and its routes.
func NewAPIServer(config models.CORSConfig, log logger.Logger, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		corsConfig: config,
		logger:     log,
		authorizer: denyAll{},
		hostStats:  collectHostStats,
		nowFn:      time.Now,
	}

	for _, o := range options {
		o(s)
	}

	s.startedAt = s.nowFn()
	s.setupRoutes()

	return s
}

// WithDeviceService sets the core the handlers delegate to.
func WithDeviceService(d DeviceService) func(server *APIServer) {
	return func(server *APIServer) {
		server.devices = d
	}
}

// WithAuthorizer protects the read endpoints.
func WithAuthorizer(a Authorizer) func(server *APIServer) {
	return func(server *APIServer) {
		if a != nil {
			server.authorizer = a
		}
	}
}

// WithRateLimiter limits every /api request per client.
func WithRateLimiter(l *srHttp.RateLimiter) func(server *APIServer) {
	return func(server *APIServer) {
		server.limiter = l
	}
}

// WithGeoCache reports the resolver cache size on /api/status.
func WithGeoCache(c CacheSizer) func(server *APIServer) {
	return func(server *APIServer) {
		server.geoCache = c
	}
}

// WithTrustProxy takes the client address from X-Forwarded-For.
func WithTrustProxy(trust bool) func(server *APIServer) {
	return func(server *APIServer) {
		server.trustProxy = trust
	}
}

// WithCaptureDir sets where uploaded camera images are stored.
func WithCaptureDir(dir string) func(server *APIServer) {
	return func(server *APIServer) {
		server.captureDir = dir
	}
}

// WithStaticDir serves the dashboard files from dir.
func WithStaticDir(dir string) func(server *APIServer) {
	return func(server *APIServer) {
		server.staticDir = dir
	}
}

// WithHostStats overrides how host metrics are collected.
func WithHostStats(fn func(ctx context.Context) (*HostStats, error)) func(server *APIServer) {
	return func(server *APIServer) {
		if fn != nil {
			server.hostStats = fn
		}
	}
}

// WithClock overrides the server's time source.
func WithClock(now func() time.Time) func(server *APIServer) {
	return func(server *APIServer) {
		if now != nil {
			server.nowFn = now
		}
	}
}

// setupRoutes configures the HTTP routes for the API server.
func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})
	s.router.Use(srHttp.RequestLogger(s.logger))

	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	if s.limiter != nil {
		apiRouter.Use(s.limiter.Middleware)
	}

	apiRouter.HandleFunc("/track", s.track).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/camera-update", s.cameraUpdate).Methods(http.MethodPost, http.MethodOptions)

	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(s.authenticationMiddleware)

	protected.HandleFunc("/monitor", s.getMonitor).Methods(http.MethodGet)
	protected.HandleFunc("/devices", s.getDevices).Methods(http.MethodGet)
	protected.HandleFunc("/history", s.getHistory).Methods(http.MethodGet)
	protected.HandleFunc("/camera-image", s.getCameraImage).Methods(http.MethodGet)
	protected.HandleFunc("/status", s.getSystemStatus).Methods(http.MethodGet)

	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler exposes the routed handler, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called. It returns nil at once if
// the server was already shut down.
func (s *APIServer) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.server = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("Starting API server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.closed = true
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

// encodeJSONResponse encodes a response as JSON
func (s *APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		// Fallback in case encoding fails
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
