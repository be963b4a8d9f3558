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

package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/courier/protocol"
	"rivaas.dev/courier/protocol/protocoltest"
)

func recordHook(calls *[]string, name string, err error) Hook {
	return func(context.Context) error {
		*calls = append(*calls, name)
		return err
	}
}

func TestLifespan(t *testing.T) {
	t.Parallel()

	var calls []string
	d := newDispatcher(t, nil,
		WithOnStartup(recordHook(&calls, "db", nil), recordHook(&calls, "cache", nil)),
		WithOnShutdown(recordHook(&calls, "close db", nil), recordHook(&calls, "close cache", nil)),
	)

	rec, err := protocoltest.Lifespan(context.Background(), d.Serve, protocol.LifespanStartup, protocol.LifespanShutdown)
	require.NoError(t, err)

	assert.Equal(t, []protocol.MessageType{protocol.LifespanStartupComplete, protocol.LifespanShutdownComplete}, rec.Types())
	assert.Equal(t, []string{"db", "cache", "close cache", "close db"}, calls)
	assert.True(t, d.Terminated())

	_, err = protocoltest.Do(context.Background(), d.Serve, protocoltest.Request{Path: "/"})
	assert.ErrorIs(t, err, ErrTerminated)
	_, err = protocoltest.Lifespan(context.Background(), d.Serve, protocol.LifespanStartup)
	assert.ErrorIs(t, err, ErrTerminated)
}

func TestStartupFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	var calls []string
	d := newDispatcher(t, nil, WithOnStartup(
		recordHook(&calls, "first", boom),
		recordHook(&calls, "second", nil),
	))

	rec, err := protocoltest.Lifespan(context.Background(), d.Serve, protocol.LifespanStartup)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, calls)
	require.Equal(t, []protocol.MessageType{protocol.LifespanStartupFailed}, rec.Types())
	assert.Contains(t, rec.Messages[0].Message, "connection refused")
	assert.False(t, d.Terminated())
}

func TestShutdownRunsEveryHook(t *testing.T) {
	t.Parallel()

	boom := errors.New("flush failed")
	var calls []string
	d := newDispatcher(t, nil, WithOnShutdown(
		recordHook(&calls, "a", nil),
		recordHook(&calls, "b", boom),
	))

	rec, err := protocoltest.Lifespan(context.Background(), d.Serve, protocol.LifespanShutdown)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"b", "a"}, calls)
	assert.Equal(t, []protocol.MessageType{protocol.LifespanShutdownFailed}, rec.Types())
	assert.True(t, d.Terminated())
}

func TestLifespanRejectsHTTPMessages(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, nil)
	_, err := protocoltest.Lifespan(context.Background(), d.Serve, protocol.HTTPRequest)
	assert.ErrorIs(t, err, protocol.ErrUnexpectedMessage)
}

func TestLifespanStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newDispatcher(t, nil)
	_, err := protocoltest.Lifespan(ctx, d.Serve)
	assert.ErrorIs(t, err, context.Canceled)
}
