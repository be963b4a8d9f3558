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

package dumper

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/courier/config/codec"
)

type failingEncoder struct{}

func (failingEncoder) Encode(any) ([]byte, error) { return nil, errors.New("nope") }

func TestFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "effective.json")
	require.NoError(t, NewFileWithPermissions(path, codec.JSONCodec{}, 0o600).Dump(context.Background(), map[string]any{"port": 8001}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"port": 8001}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = NewFile(filepath.Join(t.TempDir(), "missing", "x.json"), codec.JSONCodec{}).Dump(context.Background(), nil)
	assert.ErrorContains(t, err, "failed to write file")

	err = NewFile(path, failingEncoder{}).Dump(context.Background(), nil)
	assert.ErrorContains(t, err, "failed to encode values")
}

func TestWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, codec.EnvCodec{}).Dump(context.Background(), map[string]any{"port": 8001}))
	assert.Equal(t, "PORT=8001\n", buf.String())
}
