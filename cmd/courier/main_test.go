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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenAPICommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		wants []string
	}{
		{name: "json", args: []string{"openapi"}, wants: []string{`"openapi": "3.1`, `"/quotes/{id}"`, `"QuoteRequest"`}},
		{name: "yaml", args: []string{"openapi", "--format", "yaml"}, wants: []string{"openapi: 3.1", "/quotes/{id}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wants {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "/metrics")
		})
	}
}

func TestOpenAPICommandWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "openapi.json")
	_, err := run(t, "openapi", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "paths")

	_, err = run(t, "openapi", "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestRoutesCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "routes")
	require.NoError(t, err)
	for _, want := range []string{"POST", "/quotes", "/quotes/{id}", "/exception"} {
		assert.Contains(t, out, want)
	}
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: 9100\napp_name: quotes\n"), 0o600))

	out, err := run(t, "config", "--config", file, "--format", "json")
	require.NoError(t, err)
	var values map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.EqualValues(t, 9100, values["port"])
	assert.Equal(t, "quotes", values["app_name"])
	assert.NotContains(t, values["redis_url"], "redis1234")

	out, err = run(t, "config", "--format", "env", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "PORT=8001")
	assert.Contains(t, out, "redis1234")

	_, err = run(t, "config", "--format", "ini")
	assert.ErrorContains(t, err, "encoder not found")

	_, err = run(t, "config", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "loading settings")
}

func TestServeRejectsBadAddr(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{"nohostport", "localhost:0", "localhost:http"} {
		_, err := run(t, "serve", "--addr", addr)
		assert.ErrorContains(t, err, "invalid --addr", addr)
	}
}

func TestSplitAddr(t *testing.T) {
	t.Parallel()

	host, port, err := splitAddr("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 9000, port)
}
