// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// EnvPrefix is the prefix of the environment variables read by
// [StandardOptions].
const EnvPrefix = "COURIER_"

// Environment names recognized by the service.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Tracing exporters.
const (
	TracingOTLP     = "otlp"
	TracingOTLPHTTP = "otlp-http"
	TracingStdout   = "stdout"
	TracingNoop     = "noop"
)

// Metrics exporters.
const (
	MetricsPrometheus = "prometheus"
	MetricsOTLP       = "otlp"
	MetricsStdout     = "stdout"
)

// Settings configures the courier service.
type Settings struct {
	AppName     string `config:"app_name" default:"courier" validate:"required"`
	AppVersion  string `config:"app_version" default:"0.1.0" validate:"required"`
	Environment string `config:"environment" default:"development" validate:"required"`

	LoggerLevel  string `config:"logger_level" default:"INFO" validate:"loglevel"`
	LogFormat    string `config:"log_format" default:"json" validate:"oneof=json text console"`
	EnableLogger bool   `config:"enable_logger" default:"false"`

	EnableMetrics   bool   `config:"enable_metrics" default:"true"`
	MetricsExporter string `config:"metrics_exporter" default:"prometheus" validate:"oneof=prometheus otlp stdout"`

	EnableTracing         bool    `config:"enable_tracing" default:"true"`
	EnableTraceRatioBased bool    `config:"enable_trace_ratio_based" default:"true"`
	RatioValue            float64 `config:"ratio_value" default:"0.1" validate:"gte=0,lte=1"`
	TracingExporter       string  `config:"tracing_exporter" default:"otlp" validate:"oneof=otlp otlp-http stdout noop"`
	EndpointOtel          string  `config:"endpoint_otel" default:"http://localhost:4317" validate:"omitempty,url"`

	// FlagLocal forces the stdout exporters for traces and metrics.
	FlagLocal bool `config:"flag_local" default:"false"`

	EnableSwagger bool `config:"enable_swagger" default:"true"`

	// RedisURL selects the Redis cache; empty keeps entries in memory.
	RedisURL string        `config:"redis_url" default:"redis://:redis1234@localhost:6379" validate:"omitempty,url"`
	CacheTTL time.Duration `config:"cache_ttl" default:"1s" validate:"gte=0"`

	// DatabaseURL selects the Postgres store; empty keeps documents in memory.
	DatabaseURL string `config:"database_url" default:"" validate:"omitempty,url"`

	Host            string        `config:"host" default:"0.0.0.0"`
	Port            int           `config:"port" default:"8001" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" default:"10s" validate:"gt=0"`
	Banner          bool          `config:"banner" default:"true"`

	// MaxBodyBytes caps request bodies; 0 disables the limit.
	MaxBodyBytes    int64         `config:"max_body_bytes" default:"1048576" validate:"gte=0"`
	RequestTimeout  time.Duration `config:"request_timeout" default:"30s" validate:"gte=0"`
	SecurityHeaders bool          `config:"security_headers" default:"true"`
}

// Validate checks rules that span fields.
func (s *Settings) Validate() error {
	var errs []error
	if s.EnableTracing && !s.FlagLocal && s.EndpointOtel == "" &&
		(s.TracingExporter == TracingOTLP || s.TracingExporter == TracingOTLPHTTP) {
		errs = append(errs, errors.New("endpoint_otel is required by the otlp tracing exporters"))
	}
	if s.EnableMetrics && !s.FlagLocal && s.EndpointOtel == "" && s.MetricsExporter == MetricsOTLP {
		errs = append(errs, errors.New("endpoint_otel is required by the otlp metrics exporter"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Tracing returns the tracing exporter in effect.
func (s *Settings) Tracing() string {
	if s.FlagLocal {
		return TracingStdout
	}
	return s.TracingExporter
}

// Metrics returns the metrics exporter in effect.
func (s *Settings) Metrics() string {
	if s.FlagLocal {
		return MetricsStdout
	}
	return s.MetricsExporter
}

// SampleRatio is the head sampling ratio, 1 unless ratio-based sampling
// is enabled.
func (s *Settings) SampleRatio() float64 {
	if !s.EnableTraceRatioBased {
		return 1
	}
	return s.RatioValue
}

// StandardOptions returns the usual layering above the defaults: file
// when non-empty, then dotenv when non-empty and present, then COURIER_
// environment variables.
func StandardOptions(file, dotenv string) []Option {
	var opts []Option
	if file != "" {
		opts = append(opts, WithFile(file))
	}
	if dotenv != "" {
		opts = append(opts, WithDotEnv(dotenv))
	}
	return append(opts, WithEnv(EnvPrefix))
}

// LoadSettings layers opts over the tag defaults and binds the result.
// The returned Config serves lookups and dumps of the merged values.
func LoadSettings(ctx context.Context, opts ...Option) (*Settings, *Config, error) {
	s := &Settings{}
	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithSource(DefaultsOf(s)))
	all = append(all, opts...)
	all = append(all, WithBinding(s))

	c, err := New(all...)
	if err != nil {
		return nil, nil, err
	}
	if err = c.Load(ctx); err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

// DefaultSettings returns the settings built from defaults alone.
func DefaultSettings() *Settings {
	s, _, err := LoadSettings(context.Background())
	if err != nil {
		panic(err)
	}
	return s
}
