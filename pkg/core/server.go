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

// Package core assembles the beaconhub service from its components.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/beaconhub/pkg/core/api"
	"github.com/carverauto/beaconhub/pkg/eventlog"
	"github.com/carverauto/beaconhub/pkg/geo"
	srHttp "github.com/carverauto/beaconhub/pkg/http"
	"github.com/carverauto/beaconhub/pkg/ingest"
	"github.com/carverauto/beaconhub/pkg/logger"
	"github.com/carverauto/beaconhub/pkg/models"
	"github.com/carverauto/beaconhub/pkg/natsutil"
	"github.com/carverauto/beaconhub/pkg/session"
)

const (
	shutdownTimeout  = 10 * time.Second
	natsDrainTimeout = 5 * time.Second
)

// Server owns every long-lived component of the service.
type Server struct {
	config *models.Config
	logger logger.Logger

	resolver  *geo.Resolver
	maxmind   *geo.MaxMindLocator
	sessions  *session.Store
	eventLog  *eventlog.Writer
	pipeline  *ingest.Pipeline
	janitor   *ingest.Janitor
	limiter   *srHttp.RateLimiter
	publishQ  *ingest.PublishQueue
	nc        *nats.Conn
	apiServer *api.APIServer
}

// NewServer builds the service from a validated configuration. Components
// that need external resources (MaxMind databases, NATS) are only created
// when configured.
func NewServer(ctx context.Context, cfg *models.Config, log logger.Logger) (*Server, error) {
	s := &Server{
		config:   cfg,
		logger:   log,
		sessions: session.NewStore(time.Duration(cfg.Sessions.Retention)),
	}

	resolver, err := s.newResolver()
	if err != nil {
		return nil, err
	}

	s.resolver = resolver

	fsys := eventlog.NewOSFS(cfg.EventLog.Dir)
	if err := fsys.MkdirAll(); err != nil {
		s.closeResources()

		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}

	s.eventLog = eventlog.NewWriter(fsys, cfg.EventLog.Format, log)

	pipelineOpts := []ingest.Option{
		ingest.WithLogWriter(s.eventLog),
		ingest.WithCoordinatePolicy(cfg.Ingest.CoordinatePolicy),
	}

	if cfg.NATS.Enabled() {
		publisher, err := s.connectNATS(ctx)
		if err != nil {
			s.closeResources()

			return nil, err
		}

		s.publishQ = ingest.NewPublishQueue(publisher, ingest.DefaultPublishQueueSize, ingest.DefaultPublishTimeout, log)
		pipelineOpts = append(pipelineOpts, ingest.WithPublisher(s.publishQ))
	}

	s.pipeline = ingest.NewPipeline(s.resolver, s.sessions, log, pipelineOpts...)

	sweepers := []ingest.Sweeper{s.sessions, s.resolver}

	if !cfg.RateLimit.Disabled {
		trustProxy := cfg.Ingest.TrustProxy
		s.limiter = srHttp.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.Window),
			func(r *http.Request) string {
				return ingest.NormalizeAddress(srHttp.ClientAddress(r, trustProxy))
			})
		sweepers = append(sweepers, s.limiter)
	}

	s.janitor = ingest.NewJanitor(time.Duration(cfg.Sessions.SweepInterval), log, sweepers...)

	authorizer, err := s.newAuthorizer()
	if err != nil {
		s.closeResources()

		return nil, err
	}

	apiOptions := []func(*api.APIServer){
		api.WithDeviceService(s.pipeline),
		api.WithAuthorizer(authorizer),
		api.WithGeoCache(s.resolver),
		api.WithTrustProxy(cfg.Ingest.TrustProxy),
		api.WithCaptureDir(cfg.CaptureDir),
		api.WithStaticDir(cfg.StaticDir),
	}
	if s.limiter != nil {
		apiOptions = append(apiOptions, api.WithRateLimiter(s.limiter))
	}

	s.apiServer = api.NewAPIServer(cfg.CORS, log, apiOptions...)

	return s, nil
}

func (s *Server) newResolver() (*geo.Resolver, error) {
	cfg := s.config.Geo

	opts := []geo.Option{geo.WithCacheTTL(time.Duration(cfg.CacheTTL))}

	if cfg.CityDB != "" {
		locator, err := geo.NewMaxMindLocator(cfg.CityDB, cfg.ASNDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open geolocation database: %w", err)
		}

		s.maxmind = locator
		opts = append(opts, geo.WithPrimary(locator))

		s.logger.Info().Str("city_db", cfg.CityDB).Str("asn_db", cfg.ASNDB).Msg("Using MaxMind geolocation database")
	}

	if !cfg.DisableFallback {
		timeout := time.Duration(cfg.FallbackTimeout)
		opts = append(opts, geo.WithSecondary(geo.NewHTTPLocator(cfg.FallbackURL, timeout), timeout))
	}

	if cfg.CityDB == "" && cfg.DisableFallback {
		s.logger.Warn().Msg("No geolocation source configured; remote addresses will resolve to Unknown")
	}

	return geo.NewResolver(s.logger, opts...), nil
}

func (s *Server) connectNATS(ctx context.Context) (ingest.Publisher, error) {
	nc, err := natsutil.Connect(s.config.NATS, s.logger)
	if err != nil {
		return nil, err
	}

	s.nc = nc

	publisher, err := natsutil.CreateEventPublisher(ctx, nc, s.config.NATS, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return publisher, nil
}

func (s *Server) newAuthorizer() (api.Authorizer, error) {
	auth := s.config.Auth

	if auth.Username == "" && auth.Password == "" && auth.PasswordHash == "" {
		s.logger.Warn().Msg("No auth credentials configured; protected endpoints will reject every request")

		return nil, nil
	}

	authorizer, err := api.NewBasicAuthorizer(auth)
	if err != nil {
		return nil, err
	}

	return authorizer, nil
}

// Pipeline returns the ingest core.
func (s *Server) Pipeline() *ingest.Pipeline {
	return s.pipeline
}

// APIServer returns the HTTP transport.
func (s *Server) APIServer() *api.APIServer {
	return s.apiServer
}

// Run serves HTTP and runs the janitor until ctx is canceled or the HTTP
// server fails, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.janitor.Start(gctx)
		return nil
	})

	if s.publishQ != nil {
		g.Go(func() error {
			s.publishQ.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		return s.apiServer.Start(s.config.ListenAddr)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		return s.Stop(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Stop shuts the HTTP server down, stops the janitor and releases external
// resources.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down beaconhub")

	var errs []error

	if err := s.apiServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down API server: %w", err))
	}

	s.janitor.Stop()

	if s.publishQ != nil {
		s.publishQ.Stop()
	}

	s.closeResources()

	return errors.Join(errs...)
}

func (s *Server) closeResources() {
	if s.nc != nil {
		done := make(chan struct{})

		s.nc.SetClosedHandler(func(*nats.Conn) { close(done) })

		if err := s.nc.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to drain NATS connection")
			s.nc.Close()
		} else {
			select {
			case <-done:
			case <-time.After(natsDrainTimeout):
				s.nc.Close()
			}
		}

		s.nc = nil
	}

	if s.maxmind != nil {
		if err := s.maxmind.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close geolocation database")
		}

		s.maxmind = nil
	}
}
