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
	"strings"
)

// Env loads the process environment variables that start with a prefix.
// The prefix is stripped and the rest lowercased, so with prefix
// "COURIER_" the variable COURIER_REDIS_URL becomes the key redis_url.
type Env struct {
	prefix  string
	environ func() []string
}

// EnvOption configures an [Env].
type EnvOption func(*Env)

// WithEnviron replaces os.Environ as the variable list.
func WithEnviron(fn func() []string) EnvOption {
	return func(e *Env) {
		e.environ = fn
	}
}

// NewEnv creates an [Env] source for prefix. The prefix match is
// case-sensitive; an empty prefix loads every variable.
func NewEnv(prefix string, opts ...EnvOption) *Env {
	e := &Env{prefix: prefix, environ: os.Environ}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load never fails.
func (e *Env) Load(context.Context) (map[string]any, error) {
	conf := make(map[string]any)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, e.prefix))
		if key == "" {
			continue
		}
		conf[key] = value
	}
	return conf, nil
}
