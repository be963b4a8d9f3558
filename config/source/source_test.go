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

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/courier/config/codec"
)

func TestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "courier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\napp_name: quotes\n"), 0o600))

	tests := []struct {
		name    string
		src     *File
		want    map[string]any
		wantErr string
	}{
		{name: "file", src: NewFile(path, codec.YAMLCodec{}), want: map[string]any{"port": "9000", "app_name": "quotes"}},
		{name: "content", src: NewFileContent([]byte(`{"port": "9000"}`), codec.JSONCodec{}), want: map[string]any{"port": "9000"}},
		{name: "empty content", src: NewFileContent(nil, codec.EnvCodec{}), want: map[string]any{}},
		{name: "missing optional", src: NewFile(filepath.Join(dir, "none.yaml"), codec.YAMLCodec{}, Optional()), want: map[string]any{}},
		{name: "missing required", src: NewFile(filepath.Join(dir, "none.yaml"), codec.YAMLCodec{}), wantErr: "failed to read file"},
		{name: "undecodable", src: NewFileContent([]byte("{"), codec.JSONCodec{}), wantErr: "failed to decode file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.src.Load(context.Background())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnv(t *testing.T) {
	t.Parallel()

	environ := func() []string {
		return []string{
			"COURIER_PORT=9000",
			"COURIER_REDIS_URL=redis://cache:6379/0",
			"COURIER_=ignored",
			"courier_lower=ignored",
			"HOME=/root",
			"COURIER_EMPTY=",
		}
	}

	got, err := NewEnv("COURIER_", WithEnviron(environ)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"port":      "9000",
		"redis_url": "redis://cache:6379/0",
		"empty":     "",
	}, got)
}
