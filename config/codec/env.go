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
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// TypeEnv identifies [EnvCodec].
const TypeEnv Type = "env"

func init() {
	RegisterEncoder(TypeEnv, EnvCodec{})
	RegisterDecoder(TypeEnv, EnvCodec{})
}

// EnvCodec reads and writes dotenv documents: one KEY=VALUE per line.
// Keys stay flat and are lowercased on decode, so APP_NAME becomes
// app_name rather than a nested app.name.
//
// Blank lines, lines starting with '#' and an optional "export " prefix
// are accepted. Values may be wrapped in single quotes (taken literally)
// or double quotes (Go escape sequences apply). An unquoted value ends at
// " #".
type EnvCodec struct{}

// Encode writes a flat map as sorted, uppercased KEY=VALUE lines.
func (EnvCodec) Encode(v any) ([]byte, error) {
	var conf map[string]any
	switch m := v.(type) {
	case map[string]any:
		conf = m
	case *map[string]any:
		conf = *m
	default:
		return nil, fmt.Errorf("EnvCodec.Encode: expected map[string]any, got %T", v)
	}

	var buf bytes.Buffer
	for _, key := range slices.Sorted(maps.Keys(conf)) {
		value := fmt.Sprint(conf[key])
		if strings.ContainsAny(value, " #\"'\n\t") {
			value = strconv.Quote(value)
		}
		fmt.Fprintf(&buf, "%s=%s\n", strings.ToUpper(key), value)
	}
	return buf.Bytes(), nil
}

// Decode parses data into *map[string]any.
func (EnvCodec) Decode(data []byte, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("EnvCodec.Decode: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, raw, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return fmt.Errorf("line %d: expected KEY=VALUE", n+1)
		}

		value, err := parseEnvValue(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("line %d: %w", n+1, err)
		}
		conf[strings.ToLower(key)] = value
	}

	*ptr = conf
	return nil
}

func parseEnvValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		end := strings.LastIndexByte(raw, '"')
		if end == 0 {
			return "", fmt.Errorf("unterminated double quote")
		}
		value, err := strconv.Unquote(raw[:end+1])
		if err != nil {
			return "", fmt.Errorf("invalid double-quoted value: %w", err)
		}
		return value, nil
	case '\'':
		end := strings.LastIndexByte(raw, '\'')
		if end == 0 {
			return "", fmt.Errorf("unterminated single quote")
		}
		return raw[1:end], nil
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw), nil
}
