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

package openapi

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
)

const (
	keyDefs    = "$defs"
	keyRef     = "$ref"
	defsPrefix = "#/$defs/"
)

// Normalizer converts schema descriptors into JSON Schema 2020-12 documents.
//
// Named nested schemas are collected under "$defs" and replaced by
// "#/$defs/<name>" references. Results are memoized per *Schema; the
// returned maps are shared and must not be modified.
type Normalizer struct {
	mu    sync.Mutex
	cache map[*Schema]map[string]any
	runs  int
}

// NewNormalizer returns an empty normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{cache: make(map[*Schema]map[string]any)}
}

// Normalize returns the JSON Schema form of s.
func (n *Normalizer) Normalize(s *Schema) (map[string]any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if out, ok := n.cache[s]; ok {
		return out, nil
	}

	w := newWalker(s)
	body, err := w.node(s, true)
	if err != nil {
		return nil, err
	}
	if w.rootReferenced {
		w.defs[s.Name] = map[string]any{keyRef: "#"}
	}
	if len(w.defs) > 0 {
		body[keyDefs] = w.defs
	}

	n.cache[s] = body
	n.runs++
	return body, nil
}

// Runs reports how many schemas were actually converted, cache hits excluded.
func (n *Normalizer) Runs() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.runs
}

type walker struct {
	root           *Schema
	rootReferenced bool
	defs           map[string]any
	owners         map[string]*Schema
	active         map[*Schema]bool
}

func newWalker(root *Schema) *walker {
	w := &walker{
		root:   root,
		defs:   make(map[string]any),
		owners: make(map[string]*Schema),
		active: make(map[*Schema]bool),
	}
	if root != nil && root.Name != "" {
		w.owners[root.Name] = root
	}
	return w
}

func ref(name string) map[string]any {
	return map[string]any{keyRef: defsPrefix + name}
}

func (w *walker) node(s *Schema, root bool) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}
	if s.Ref != "" {
		return ref(s.Ref), nil
	}

	for _, name := range slices.Sorted(maps.Keys(s.Defs)) {
		if err := w.define(name, s.Defs[name]); err != nil {
			return nil, err
		}
	}

	if !root && s.Name != "" {
		if err := w.define(s.Name, s); err != nil {
			return nil, err
		}
		return ref(s.Name), nil
	}

	if w.active[s] {
		return nil, ErrUnnamedCycle
	}
	w.active[s] = true
	defer delete(w.active, s)

	return w.body(s)
}

func (w *walker) define(name string, s *Schema) error {
	if owner, ok := w.owners[name]; ok {
		if owner == s {
			if s == w.root {
				w.rootReferenced = true
			}
			return nil
		}
		// Same name, different descriptor: only fine if the shapes agree.
		other, err := newWalker(s).node(s, true)
		if err != nil {
			return err
		}
		existing, done := w.defs[name]
		if done && !reflect.DeepEqual(existing, other) {
			return fmt.Errorf("%w: %q", ErrSchemaConflict, name)
		}
		return nil
	}

	w.owners[name] = s
	body, err := w.node(s, true)
	if err != nil {
		return err
	}
	w.defs[name] = body
	return nil
}

func (w *walker) body(s *Schema) (map[string]any, error) {
	m := make(map[string]any)

	if s.Type != "" {
		if s.Nullable {
			m["type"] = []any{string(s.Type), "null"}
		} else {
			m["type"] = string(s.Type)
		}
	}
	setString(m, "title", s.Title)
	setString(m, "description", s.Description)
	setString(m, "format", s.Format)
	setString(m, "pattern", s.Pattern)

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		var required []any
		for _, p := range s.Properties {
			child, err := w.node(p.Schema, false)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", p.Name, err)
			}
			props[p.Name] = child
			if p.Required {
				required = append(required, p.Name)
			}
		}
		m["properties"] = props
		if len(required) > 0 {
			m["required"] = required
		}
	}
	if s.Items != nil {
		items, err := w.node(s.Items, false)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		m["items"] = items
	}
	if s.AdditionalProperties != nil {
		m["additionalProperties"] = *s.AdditionalProperties
	}
	if len(s.Enum) > 0 {
		m["enum"] = slices.Clone(s.Enum)
	}

	setInt(m, "minLength", s.MinLength)
	setInt(m, "maxLength", s.MaxLength)
	setInt(m, "minItems", s.MinItems)
	setInt(m, "maxItems", s.MaxItems)
	setFloat(m, "minimum", s.Minimum)
	setFloat(m, "maximum", s.Maximum)
	setFloat(m, "exclusiveMinimum", s.ExclusiveMinimum)
	setFloat(m, "exclusiveMaximum", s.ExclusiveMaximum)

	if s.Default != nil {
		m["default"] = s.Default
	}
	if s.Example != nil {
		m["example"] = s.Example
	}
	return m, nil
}

func setString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func setInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

func setFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
