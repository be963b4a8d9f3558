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

package app

import (
	"context"
	"fmt"

	"rivaas.dev/courier/cache"
	"rivaas.dev/courier/internal/quote"
	"rivaas.dev/courier/internal/store"
)

// Cache backends as shown in the banner.
const (
	cacheRedis  = "redis"
	cacheMemory = "memory"
	cacheCustom = "custom"
)

// initStorage builds the cache from redis_url and the repository from
// database_url, falling back to in-process stores when they are empty.
func (a *App) initStorage(ctx context.Context, o *options) (store.Repository[quote.Quote], error) {
	s := a.settings

	switch {
	case o.cache != nil:
		a.cache, a.cacheKind = o.cache, cacheCustom
	case s.RedisURL != "":
		r, err := cache.NewRedis(s.RedisURL)
		if err != nil {
			return nil, err
		}
		a.cache, a.cacheKind = r, cacheRedis
		a.onClose(func(context.Context) error { return r.Close() })
	default:
		m := cache.NewMemory()
		a.cache, a.cacheKind = m, cacheMemory
		a.onClose(func(context.Context) error { return m.Close() })
	}

	if o.repo != nil {
		return o.repo, nil
	}
	if s.DatabaseURL == "" {
		return store.NewMemory[quote.Quote](), nil
	}
	pool, err := store.OpenPostgres(ctx, store.PostgresConfig{DSN: s.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.pool = pool
	a.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})
	return store.NewPostgres[quote.Quote](pool, quotesCollection), nil
}
