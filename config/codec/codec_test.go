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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredCodecs(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{TypeJSON, TypeYAML, TypeTOML, TypeEnv} {
		_, err := GetEncoder(typ)
		require.NoError(t, err, typ)
		_, err = GetDecoder(typ)
		require.NoError(t, err, typ)
	}

	_, err := GetDecoder("ini")
	assert.EqualError(t, err, "decoder not found for type: ini")
	_, err = GetEncoder("ini")
	assert.EqualError(t, err, "encoder not found for type: ini")
}

func TestDecodeDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codec Decoder
		input string
	}{
		{name: "yaml", codec: YAMLCodec{}, input: "app_name: quotes\nport: 9000\n"},
		{name: "toml", codec: TOMLCodec{}, input: "app_name = \"quotes\"\nport = 9000\n"},
		{name: "json", codec: JSONCodec{}, input: `{"app_name": "quotes", "port": 9000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got map[string]any
			require.NoError(t, tt.codec.Decode([]byte(tt.input), &got))
			assert.Equal(t, "quotes", got["app_name"])
			assert.EqualValues(t, 9000, got["port"])
		})
	}
}

func TestEnvCodecDecode(t *testing.T) {
	t.Parallel()

	input := `
# local overrides
APP_NAME=quotes
export PORT=9000
REDIS_URL = redis://localhost:6379 # dev redis
BANNER="say \"hi\""
RAW='keep \n as is'
EMPTY=
`
	var got map[string]any
	require.NoError(t, EnvCodec{}.Decode([]byte(input), &got))
	assert.Equal(t, map[string]any{
		"app_name":  "quotes",
		"port":      "9000",
		"redis_url": "redis://localhost:6379",
		"banner":    `say "hi"`,
		"raw":       `keep \n as is`,
		"empty":     "",
	}, got)
}

func TestEnvCodecDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "missing equals", input: "APP_NAME", wantErr: "line 1: expected KEY=VALUE"},
		{name: "empty key", input: "\n=value", wantErr: "line 2: expected KEY=VALUE"},
		{name: "unterminated double", input: `A="open`, wantErr: "unterminated double quote"},
		{name: "unterminated single", input: `A='open`, wantErr: "unterminated single quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got map[string]any
			assert.ErrorContains(t, EnvCodec{}.Decode([]byte(tt.input), &got), tt.wantErr)
		})
	}

	var wrong map[string]string
	assert.ErrorContains(t, EnvCodec{}.Decode(nil, &wrong), "expected *map[string]any")
}

func TestEnvCodecEncode(t *testing.T) {
	t.Parallel()

	out, err := EnvCodec{}.Encode(map[string]any{"port": 8001, "app_name": "my quotes"})
	require.NoError(t, err)
	assert.Equal(t, "APP_NAME=\"my quotes\"\nPORT=8001\n", string(out))

	var back map[string]any
	require.NoError(t, EnvCodec{}.Decode(out, &back))
	assert.Equal(t, "my quotes", back["app_name"])

	_, err = EnvCodec{}.Encode([]string{"x"})
	assert.Error(t, err)
}
