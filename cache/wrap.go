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

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strconv"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultTTL applies when [WithTTL] is not given.
const DefaultTTL = 60 * time.Second

// Option configures [Wrap].
type Option func(*config)

type config struct {
	ttl      time.Duration
	prefix   string
	keyFn    any
	logger   *slog.Logger
	disabled bool
}

// WithTTL sets how long results stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) { c.ttl = ttl }
}

// WithPrefix sets the key prefix. It defaults to the wrapped function's
// name.
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithKey derives the key suffix from the call argument instead of hashing
// it. A must match the argument type of the wrapped function.
func WithKey[A any](fn func(A) string) Option {
	return func(c *config) { c.keyFn = fn }
}

// WithLogger receives store and decoding failures. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDisabled bypasses the store when disabled is true.
func WithDisabled(disabled bool) Option {
	return func(c *config) { c.disabled = disabled }
}

// Wrap returns fn with the same signature, reading results from store
// before calling it.
//
// The key is "<prefix>:<suffix>", where the suffix comes from [WithKey] or
// is a hash of name and the argument. An empty name is replaced by fn's
// fully-qualified function name. On a hit the decoded value is
// returned and fn is not called. On a miss fn runs; a non-empty result is
// encoded with msgpack and stored for the TTL. Errors from fn are returned
// and never cached. Store failures are logged and fn is called directly.
//
// Wrap panics if the [WithKey] function does not take an A.
func Wrap[A, R any](store Store, name string, fn func(context.Context, A) (R, error), opts ...Option) func(context.Context, A) (R, error) {
	if name == "" {
		name = funcName(fn)
	}
	cfg := &config{ttl: DefaultTTL, prefix: name, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	var keyFn func(A) string
	if cfg.keyFn != nil {
		var ok bool
		if keyFn, ok = cfg.keyFn.(func(A) string); !ok {
			panic(fmt.Sprintf("cache: key function for %q is %T, want func(%s) string", name, cfg.keyFn, reflect.TypeFor[A]()))
		}
	}

	if cfg.disabled || store == nil {
		return fn
	}

	key := func(arg A) (string, error) {
		if keyFn != nil {
			return cfg.prefix + ":" + keyFn(arg), nil
		}
		h, err := hashstructure.Hash(struct {
			Name string
			Arg  A
		}{Name: name, Arg: arg}, hashstructure.FormatV2, nil)
		if err != nil {
			return "", err
		}
		return cfg.prefix + ":" + strconv.FormatUint(h, 16), nil
	}

	return func(ctx context.Context, arg A) (R, error) {
		k, err := key(arg)
		if err != nil {
			cfg.logger.WarnContext(ctx, "cache key derivation failed", "cache", name, "error", err)
			return fn(ctx, arg)
		}

		raw, hit, err := store.Get(ctx, k)
		if err != nil {
			cfg.logger.WarnContext(ctx, "cache read failed", "cache", name, "key", k, "error", err)
			return fn(ctx, arg)
		}
		if hit {
			var cached R
			if err := msgpack.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			cfg.logger.WarnContext(ctx, "cache entry undecodable", "cache", name, "key", k, "error", err)
		}

		result, err := fn(ctx, arg)
		if err != nil || isEmpty(result) {
			return result, err
		}

		encoded, encErr := msgpack.Marshal(result)
		if encErr != nil {
			cfg.logger.WarnContext(ctx, "cache encode failed", "cache", name, "key", k, "error", encErr)
			return result, nil
		}
		if setErr := store.Set(ctx, k, encoded, cfg.ttl); setErr != nil {
			cfg.logger.WarnContext(ctx, "cache write failed", "cache", name, "key", k, "error", setErr)
		}
		return result, nil
	}
}

// isEmpty reports nil pointers, interfaces, empty collections and zero
// values, none of which are cached.
func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len() == 0
	}
	return rv.IsZero()
}

func funcName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%T", fn)
}
