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

// Package quote is the sample quote service: it prices a company's
// request, stores the result and serves it back through a read cache.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"rivaas.dev/courier/cache"
	"rivaas.dev/courier/internal/store"
)

// Markup is applied to the requested value to produce the final quote.
const Markup = 1.23

// CreatedCounter counts stored quotes.
const CreatedCounter = "quotes_created"

// ErrNotFound is returned for unknown or deleted quotes.
var ErrNotFound = store.ErrNotFound

// Quote is a stored, priced request.
type Quote struct {
	store.Document
	Company    string  `json:"company" msgpack:"company"`
	FinalQuote float64 `json:"final_quote" msgpack:"final_quote"`
}

// CreateRequest is the body of POST /quotes.
type CreateRequest struct {
	Company string `json:"company"`
	Value   int    `json:"value"`
}

// Counter records named events, as metrics.Recorder does.
type Counter interface {
	IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error
}

// Service implements the quote operations.
type Service struct {
	repo    store.Repository[Quote]
	cache   cache.Store
	find    func(context.Context, string) (*Quote, error)
	counter Counter
	logger  *slog.Logger
}

// Option configures a [Service].
type Option func(*serviceConfig)

type serviceConfig struct {
	cache    cache.Store
	cacheTTL time.Duration
	counter  Counter
	logger   *slog.Logger
}

// WithCache caches reads by id in s for ttl.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(c *serviceConfig) {
		c.cache = s
		c.cacheTTL = ttl
	}
}

// WithCounter counts created quotes under [CreatedCounter].
func WithCounter(counter Counter) Option {
	return func(c *serviceConfig) {
		c.counter = counter
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

const cachePrefix = "quote"

func cacheKey(id string) string { return "id:" + id }

// NewService creates a Service on repo.
func NewService(repo store.Repository[Quote], opts ...Option) *Service {
	cfg := &serviceConfig{cacheTTL: cache.DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Service{repo: repo, cache: cfg.cache, counter: cfg.counter, logger: cfg.logger}
	s.find = cache.Wrap(cfg.cache, "quote.find", repo.FindByID,
		cache.WithPrefix(cachePrefix),
		cache.WithTTL(cfg.cacheTTL),
		cache.WithKey(cacheKey),
		cache.WithLogger(cfg.logger),
	)
	return s
}

// Create prices req and stores the quote.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Quote, error) {
	q := &Quote{Company: req.Company, FinalQuote: float64(req.Value) * Markup}
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, fmt.Errorf("saving quote: %w", err)
	}
	if s.counter != nil {
		if err := s.counter.IncrementCounter(ctx, CreatedCounter); err != nil {
			s.logger.WarnContext(ctx, "quote counter failed", "error", err)
		}
	}
	return q, nil
}

// Get returns a live quote, from the cache when possible.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	return s.find(ctx, id)
}

// List returns one page of live quotes.
func (s *Service) List(ctx context.Context, page, limit int) (*store.Page[Quote], error) {
	return s.repo.FindAll(ctx, page, limit)
}

// Delete soft deletes a quote and drops its cache entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cachePrefix+":"+cacheKey(id)); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "id", id, "error", err)
		}
	}
	return nil
}
