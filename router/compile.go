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
	"fmt"
	"strings"
	"sync"

	"rivaas.dev/courier/protocol"
)

// compiled holds matchers by template. Matchers are immutable, so sharing
// them across registries is safe.
var compiled sync.Map

type segment struct {
	literal string // whole segment for static segments
	param   bool
	name    string
	prefix  string
	suffix  string
}

// Matcher matches concrete paths against a compiled path template.
type Matcher struct {
	template string
	segments []segment
	names    []string
}

// Compile compiles a path template with {name} placeholders. Each
// placeholder captures one non-empty path segment; a segment may surround
// its placeholder with literal text, as in "/files/{name}.json".
//
// Results are memoized per template.
func Compile(template string) (*Matcher, error) {
	if m, ok := compiled.Load(template); ok {
		return m.(*Matcher), nil
	}
	m, err := compile(template)
	if err != nil {
		return nil, err
	}
	actual, _ := compiled.LoadOrStore(template, m)
	return actual.(*Matcher), nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(template string) *Matcher {
	m, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return m
}

func compile(template string) (*Matcher, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidRouteTemplate, template)
	}

	m := &Matcher{template: template}
	if template == "/" {
		return m, nil
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(template[1:], "/") {
		seg, err := parseSegment(template, part)
		if err != nil {
			return nil, err
		}
		if seg.param {
			if seen[seg.name] {
				return nil, fmt.Errorf("%w: %q repeats placeholder {%s}", ErrInvalidRouteTemplate, template, seg.name)
			}
			seen[seg.name] = true
			m.names = append(m.names, seg.name)
		}
		m.segments = append(m.segments, seg)
	}
	return m, nil
}

func parseSegment(template, part string) (segment, error) {
	opens := strings.Count(part, "{")
	closes := strings.Count(part, "}")
	switch {
	case opens == 0 && closes == 0:
		return segment{literal: part}, nil
	case opens != 1 || closes != 1:
		return segment{}, fmt.Errorf("%w: %q has a malformed segment %q", ErrInvalidRouteTemplate, template, part)
	}

	open := strings.IndexByte(part, '{')
	end := strings.IndexByte(part, '}')
	if end < open {
		return segment{}, fmt.Errorf("%w: %q has a malformed segment %q", ErrInvalidRouteTemplate, template, part)
	}
	name := part[open+1 : end]
	if !validName(name) {
		return segment{}, fmt.Errorf("%w: %q has an invalid placeholder name %q", ErrInvalidRouteTemplate, template, name)
	}
	return segment{
		param:  true,
		name:   name,
		prefix: part[:open],
		suffix: part[end+1:],
	}, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Template returns the source template.
func (m *Matcher) Template() string { return m.template }

// Names returns the placeholder names in template order.
func (m *Matcher) Names() []string { return m.names }

// IsStatic reports whether the template has no placeholders.
func (m *Matcher) IsStatic() bool { return len(m.names) == 0 }

// Match reports whether path conforms to the template and returns the
// captured parameters. The whole path must match.
func (m *Matcher) Match(path string) (protocol.Params, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	if len(m.segments) == 0 {
		return nil, path == "/"
	}

	rest := path[1:]
	if strings.Count(rest, "/")+1 != len(m.segments) {
		return nil, false
	}

	var params protocol.Params
	for i, seg := range m.segments {
		var part string
		if i == len(m.segments)-1 {
			part = rest
		} else {
			part, rest, _ = strings.Cut(rest, "/")
		}

		if !seg.param {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if len(part) <= len(seg.prefix)+len(seg.suffix) ||
			!strings.HasPrefix(part, seg.prefix) || !strings.HasSuffix(part, seg.suffix) {
			return nil, false
		}
		if params == nil {
			params = make(protocol.Params, 0, len(m.names))
		}
		params = append(params, protocol.Param{
			Key:   seg.name,
			Value: part[len(seg.prefix) : len(part)-len(seg.suffix)],
		})
	}
	return params, true
}
