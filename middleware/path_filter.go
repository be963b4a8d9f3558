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

package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultExcludedPaths are the infrastructure routes kept out of metrics
// and traces.
var DefaultExcludedPaths = []string{"/metrics", "/docs", "/openapi.json", "/favicon.ico"}

// PathFilter decides which request paths instrumentation skips.
// It supports exact paths, prefixes, and regex patterns.
// A nil *PathFilter excludes nothing.
type PathFilter struct {
	paths    map[string]bool
	prefixes []string
	patterns []*regexp.Regexp
}

// NewPathFilter creates an empty filter.
func NewPathFilter() *PathFilter {
	return &PathFilter{paths: make(map[string]bool)}
}

// DefaultPathFilter excludes [DefaultExcludedPaths].
func DefaultPathFilter() *PathFilter {
	return NewPathFilter().Paths(DefaultExcludedPaths...)
}

// Paths adds exact paths to exclude.
func (pf *PathFilter) Paths(paths ...string) *PathFilter {
	for _, p := range paths {
		pf.paths[p] = true
	}
	return pf
}

// Prefixes adds path prefixes to exclude.
func (pf *PathFilter) Prefixes(prefixes ...string) *PathFilter {
	pf.prefixes = append(pf.prefixes, prefixes...)
	return pf
}

// Patterns adds regex patterns to exclude. Patterns are compiled once; an
// invalid one leaves the filter unchanged.
func (pf *PathFilter) Patterns(patterns ...string) (*PathFilter, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return pf, fmt.Errorf("invalid regex pattern for path exclusion %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	pf.patterns = append(pf.patterns, compiled...)
	return pf, nil
}

// Excluded reports whether path should skip instrumentation.
func (pf *PathFilter) Excluded(path string) bool {
	if pf == nil {
		return false
	}
	if pf.paths[path] {
		return true
	}
	for _, prefix := range pf.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, pattern := range pf.patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}
