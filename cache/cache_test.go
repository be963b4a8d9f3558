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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	ID         string  `msgpack:"id"`
	Company    string  `msgpack:"company"`
	FinalQuote float64 `msgpack:"final_quote"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func counting(calls *atomic.Int32) func(context.Context, string) (*quote, error) {
	return func(_ context.Context, id string) (*quote, error) {
		calls.Add(1)
		if id == "missing" {
			return nil, nil
		}
		if id == "broken" {
			return nil, errors.New("db down")
		}
		return &quote{ID: id, Company: "ACME", FinalQuote: 123}, nil
	}
}

func TestWrapHitsWithinTTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemory(WithClock(clock.Now))
	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls), WithTTL(time.Minute))

	ctx := context.Background()
	first, err := get(ctx, "42")
	require.NoError(t, err)
	second, err := get(ctx, "42")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)

	clock.Advance(time.Minute)
	_, err = get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWrapDoesNotCacheEmptyOrFailed(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls))
	ctx := context.Background()

	for range 2 {
		q, err := get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, q)
	}
	for range 2 {
		_, err := get(ctx, "broken")
		assert.EqualError(t, err, "db down")
	}
	assert.Equal(t, int32(4), calls.Load())
	assert.Zero(t, store.Len())
}

func TestWrapKeys(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	var calls atomic.Int32
	get := Wrap(store, "get_quote", counting(&calls),
		WithPrefix("quote"),
		WithKey(func(id string) string { return "id:" + id }),
	)
	_, err := get(context.Background(), "7")
	require.NoError(t, err)

	_, hit, err := store.Get(context.Background(), "quote:id:7")
	require.NoError(t, err)
	assert.True(t, hit)

	hashed := Wrap(store, "get_quote", counting(&calls))
	_, err = hashed(context.Background(), "7")
	require.NoError(t, err)
	_, err = hashed(context.Background(), "8")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}

func findQuote(_ context.Context, id string) (*quote, error) {
	return &quote{ID: id, Company: "ACME"}, nil
}

func findOtherQuote(_ context.Context, id string) (*quote, error) {
	return &quote{ID: id, Company: "Initech"}, nil
}

func TestWrapDefaultsNameToFunction(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()

	byID := Wrap(store, "", findQuote, WithKey(func(id string) string { return id }))
	_, err := byID(ctx, "7")
	require.NoError(t, err)
	_, hit, err := store.Get(ctx, "rivaas.dev/courier/cache.findQuote:7")
	require.NoError(t, err)
	assert.True(t, hit)

	// Hashed keys differ per function for the same argument.
	_, err = Wrap(store, "", findQuote)(ctx, "8")
	require.NoError(t, err)
	other, err := Wrap(store, "", findOtherQuote)(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, "Initech", other.Company)
	assert.Equal(t, 3, store.Len())
}

func TestWrapKeyTypeMismatchPanics(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	assert.Panics(t, func() {
		Wrap(NewMemory(), "quote", counting(&calls), WithKey(func(id int) string { return "" }))
	})
}

func TestWrapDegradesOnStoreFailure(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	var calls atomic.Int32
	get := Wrap[string, *quote](failingStore{}, "quote", counting(&calls), WithLogger(logger))

	q, err := get(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "42", q.ID)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, logs.String(), "cache read failed")
}

func TestWrapIgnoresUndecodableEntry(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	require.NoError(t, store.Set(context.Background(), "quote:id:1", []byte{0xc1}, 0))

	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls),
		WithKey(func(id string) string { return "id:" + id }),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	q, err := get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", q.ID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWrapDisabled(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls), WithDisabled(true))
	for range 3 {
		_, err := get(context.Background(), "42")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, store.Len())
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	var nilQuote *quote
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(nilQuote))
	assert.True(t, isEmpty([]int{}))
	assert.True(t, isEmpty(map[string]int{}))
	assert.True(t, isEmpty(""))
	assert.True(t, isEmpty(quote{}))
	assert.False(t, isEmpty(quote{ID: "1"}))
	assert.False(t, isEmpty([]int{0}))
	assert.False(t, isEmpty(1))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "forever", []byte("a"), 0))
	require.NoError(t, m.Set(ctx, "short", []byte("b"), time.Second))

	clock.Advance(time.Hour)
	v, ok, err := m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	_, ok, err = m.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Delete(ctx, "forever"))
	_, ok, _ = m.Get(ctx, "forever")
	assert.False(t, ok)

	require.NoError(t, m.Close())
	_, _, err = m.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	store, err := NewRedis("redis://" + srv.Addr() + "/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "quote:id:1")
	require.NoError(t, err)
	assert.False(t, ok)

	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls),
		WithTTL(time.Minute),
		WithKey(func(id string) string { return "id:" + id }),
	)
	_, err = get(ctx, "1")
	require.NoError(t, err)
	_, err = get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, time.Minute, srv.TTL("quote:id:1"))

	srv.FastForward(time.Minute)
	_, err = get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, store.Delete(ctx, "quote:id:1"))
	assert.False(t, srv.Exists("quote:id:1"))
}

func TestRedisFailureFallsBack(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	store, err := NewRedis("redis://" + srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	srv.SetError("ERR injected failure")

	var logs bytes.Buffer
	var calls atomic.Int32
	get := Wrap(store, "quote", counting(&calls), WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	q, err := get(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "9", q.ID)
	assert.True(t, strings.Contains(logs.String(), "cache read failed"))

	_, err = NewRedis("://bad")
	assert.Error(t, err)
}
