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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/beaconhub/pkg/logger"
)

var (
	errInvalidDuration = errors.New("invalid duration")

	// ErrInvalidCoordinatePolicy is returned for an unknown ingest.coordinate_policy.
	ErrInvalidCoordinatePolicy = errors.New("invalid coordinate policy")
	// ErrInvalidLogFormat is returned for an unknown eventlog.format.
	ErrInvalidLogFormat = errors.New("invalid event log format")
	// ErrNegativeDuration is returned when a configured interval or window is negative.
	ErrNegativeDuration = errors.New("duration must not be negative")
	// ErrMissingDataDir is returned when no data directory is configured.
	ErrMissingDataDir = errors.New("data_dir is required")
)

const (
	DefaultListenAddr      = ":3000"
	DefaultRetention       = 24 * time.Hour
	DefaultSweepInterval   = time.Hour
	DefaultGeoCacheTTL     = time.Hour
	DefaultFallbackTimeout = 3 * time.Second
	DefaultFallbackURL     = "http://ip-api.com/json/"
	DefaultRateLimit       = 100
	DefaultRateWindow      = 15 * time.Minute
	DefaultHistoryLimit    = 10
)

// Duration is a time.Duration that decodes from "1h"-style strings or nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errInvalidDuration
	}

	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	dur, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	*d = Duration(dur)

	return nil
}

// CoordinatePolicy decides whether beacon coordinates or resolved ones win.
type CoordinatePolicy string

const (
	// CoordinatesResolverFirst keeps resolved coordinates unless the resolver produced (0,0).
	CoordinatesResolverFirst CoordinatePolicy = "resolver_first"
	// CoordinatesClientFirst lets any non-zero beacon coordinates override the resolver.
	CoordinatesClientFirst CoordinatePolicy = "client_first"
)

// LogFormat selects the on-disk encoding of a day partition.
type LogFormat string

const (
	// LogFormatJSON stores a day as one JSON array, rewritten on every append.
	LogFormatJSON LogFormat = "json"
	// LogFormatJSONL stores one JSON object per line.
	LogFormatJSONL LogFormat = "jsonl"
)

// Config is the beaconhub service configuration.
type Config struct {
	ListenAddr string          `json:"listen_addr" yaml:"listen_addr"`
	DataDir    string          `json:"data_dir" yaml:"data_dir"`
	CaptureDir string          `json:"capture_dir,omitempty" yaml:"capture_dir,omitempty"`
	StaticDir  string          `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`
	Logging    *logger.Config  `json:"logging,omitempty" yaml:"logging,omitempty"`
	Sessions   SessionConfig   `json:"sessions" yaml:"sessions"`
	Geo        GeoConfig       `json:"geo" yaml:"geo"`
	EventLog   EventLogConfig  `json:"eventlog" yaml:"eventlog"`
	Ingest     IngestConfig    `json:"ingest" yaml:"ingest"`
	Auth       AuthConfig      `json:"auth" yaml:"auth"`
	CORS       CORSConfig      `json:"cors" yaml:"cors"`
	RateLimit  RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	NATS       NATSConfig      `json:"nats" yaml:"nats"`
	Metrics    MetricsConfig   `json:"metrics" yaml:"metrics"`
}

type SessionConfig struct {
	Retention     Duration `json:"retention" yaml:"retention"`
	SweepInterval Duration `json:"sweep_interval" yaml:"sweep_interval"`
}

type GeoConfig struct {
	CityDB          string   `json:"city_db,omitempty" yaml:"city_db,omitempty"`
	ASNDB           string   `json:"asn_db,omitempty" yaml:"asn_db,omitempty"`
	CacheTTL        Duration `json:"cache_ttl" yaml:"cache_ttl"`
	FallbackURL     string   `json:"fallback_url,omitempty" yaml:"fallback_url,omitempty"`
	FallbackTimeout Duration `json:"fallback_timeout" yaml:"fallback_timeout"`
	DisableFallback bool     `json:"disable_fallback" yaml:"disable_fallback"`
}

type EventLogConfig struct {
	Dir    string    `json:"dir,omitempty" yaml:"dir,omitempty"`
	Format LogFormat `json:"format" yaml:"format"`
}

type IngestConfig struct {
	CoordinatePolicy CoordinatePolicy `json:"coordinate_policy" yaml:"coordinate_policy"`
	TrustProxy       bool             `json:"trust_proxy" yaml:"trust_proxy"`
}

type AuthConfig struct {
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password,omitempty" yaml:"password,omitempty" sensitive:"true"`
	PasswordHash string `json:"password_hash,omitempty" yaml:"password_hash,omitempty" sensitive:"true"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
}

type RateLimitConfig struct {
	Requests int      `json:"requests" yaml:"requests"`
	Window   Duration `json:"window" yaml:"window"`
	Disabled bool     `json:"disabled" yaml:"disabled"`
}

type NATSConfig struct {
	URL     string         `json:"url,omitempty" yaml:"url,omitempty"`
	Stream  string         `json:"stream,omitempty" yaml:"stream,omitempty"`
	Domain  string         `json:"domain,omitempty" yaml:"domain,omitempty"`
	Subject string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	TLS     *NATSTLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// NATSTLSConfig enables TLS, and mTLS when a client certificate is given.
type NATSTLSConfig struct {
	CAFile     string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
	CertFile   string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	ServerName string `json:"server_name,omitempty" yaml:"server_name,omitempty"`
}

// Enabled reports whether device-seen events should be published.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

type MetricsConfig struct {
	OTLPEndpoint string   `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`
	Insecure     bool     `json:"insecure" yaml:"insecure"`
	Interval     Duration `json:"interval" yaml:"interval"`
}

// Validate fills defaults and rejects values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return ErrMissingDataDir
	}

	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	if c.CaptureDir == "" {
		c.CaptureDir = filepath.Join(c.DataDir, "camera_captures")
	}

	if c.EventLog.Dir == "" {
		c.EventLog.Dir = filepath.Join(c.DataDir, "logs")
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	for name, d := range map[string]Duration{
		"sessions.retention":      c.Sessions.Retention,
		"sessions.sweep_interval": c.Sessions.SweepInterval,
		"geo.cache_ttl":           c.Geo.CacheTTL,
		"geo.fallback_timeout":    c.Geo.FallbackTimeout,
		"rate_limit.window":       c.RateLimit.Window,
		"metrics.interval":        c.Metrics.Interval,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeDuration, name)
		}
	}

	setDuration(&c.Sessions.Retention, DefaultRetention)
	setDuration(&c.Sessions.SweepInterval, DefaultSweepInterval)
	setDuration(&c.Geo.CacheTTL, DefaultGeoCacheTTL)
	setDuration(&c.Geo.FallbackTimeout, DefaultFallbackTimeout)
	setDuration(&c.RateLimit.Window, DefaultRateWindow)

	if c.Geo.FallbackURL == "" {
		c.Geo.FallbackURL = DefaultFallbackURL
	}

	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = DefaultRateLimit
	}

	switch c.EventLog.Format {
	case "":
		c.EventLog.Format = LogFormatJSON
	case LogFormatJSON, LogFormatJSONL:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.EventLog.Format)
	}

	switch c.Ingest.CoordinatePolicy {
	case "":
		c.Ingest.CoordinatePolicy = CoordinatesResolverFirst
	case CoordinatesResolverFirst, CoordinatesClientFirst:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCoordinatePolicy, c.Ingest.CoordinatePolicy)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}

	if c.NATS.Enabled() {
		if c.NATS.Stream == "" {
			c.NATS.Stream = "events"
		}

		if c.NATS.Subject == "" {
			c.NATS.Subject = "events.device.seen"
		}
	}

	return nil
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}
