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

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRejectsInvalidTemplates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
	}{
		{name: "no leading slash", template: "quotes/{id}"},
		{name: "empty", template: ""},
		{name: "empty name", template: "/quotes/{}"},
		{name: "unbalanced open", template: "/quotes/{id"},
		{name: "unbalanced close", template: "/quotes/id}"},
		{name: "reversed braces", template: "/quotes/}id{"},
		{name: "two placeholders in a segment", template: "/files/{a}-{b}"},
		{name: "duplicate name", template: "/a/{id}/b/{id}"},
		{name: "bad name", template: "/a/{my-id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(tt.template)
			assert.ErrorIs(t, err, ErrInvalidRouteTemplate)
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		path     string
		want     map[string]string
		match    bool
	}{
		{name: "root", template: "/", path: "/", match: true},
		{name: "root mismatch", template: "/", path: "/a"},
		{name: "literal", template: "/quotes", path: "/quotes", match: true},
		{name: "literal trailing slash differs", template: "/quotes", path: "/quotes/"},
		{name: "single param", template: "/quotes/{id}", path: "/quotes/42", want: map[string]string{"id": "42"}, match: true},
		{name: "param must be non-empty", template: "/quotes/{id}", path: "/quotes/"},
		{name: "param does not span segments", template: "/quotes/{id}", path: "/quotes/4/2"},
		{name: "too short", template: "/quotes/{id}", path: "/quotes"},
		{
			name:     "two params",
			template: "/users/{user}/posts/{post}",
			path:     "/users/ana/posts/7",
			want:     map[string]string{"user": "ana", "post": "7"},
			match:    true,
		},
		{name: "suffix", template: "/files/{name}.json", path: "/files/report.json", want: map[string]string{"name": "report"}, match: true},
		{name: "suffix mismatch", template: "/files/{name}.json", path: "/files/report.yaml"},
		{name: "suffix only", template: "/files/{name}.json", path: "/files/.json"},
		{name: "prefix", template: "/v{version}/ping", path: "/v2/ping", want: map[string]string{"version": "2"}, match: true},
		{name: "relative path", template: "/quotes/{id}", path: "quotes/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Compile(tt.template)
			require.NoError(t, err)

			params, ok := m.Match(tt.path)
			require.Equal(t, tt.match, ok)
			if !tt.match {
				return
			}
			if tt.want == nil {
				assert.Empty(t, params)
				return
			}
			assert.Equal(t, tt.want, params.Map())
		})
	}
}

func TestCompileIsMemoized(t *testing.T) {
	t.Parallel()

	a, err := Compile("/memo/{id}")
	require.NoError(t, err)
	b, err := Compile("/memo/{id}")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestMatcherIntrospection(t *testing.T) {
	t.Parallel()

	m := MustCompile("/users/{user}/posts/{post}")
	assert.Equal(t, "/users/{user}/posts/{post}", m.Template())
	assert.Equal(t, []string{"user", "post"}, m.Names())
	assert.False(t, m.IsStatic())
	assert.True(t, MustCompile("/health").IsStatic())
}

func BenchmarkMatch(b *testing.B) {
	m := MustCompile("/users/{user}/posts/{post}")
	b.ReportAllocs()
	for b.Loop() {
		m.Match("/users/ana/posts/7")
	}
}
