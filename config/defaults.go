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

package config

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DefaultTagName holds a field's default value.
const DefaultTagName = "default"

var durationType = reflect.TypeFor[time.Duration]()

// Defaults is a [Source] built from the `default` tags of a struct, typed
// with cast so that later sources only need to override what they set.
// Put it first.
type Defaults struct {
	values map[string]any
	err    error
}

// DefaultsOf reads the default tags of v, a struct or pointer to one.
// Fields without a `config` key are skipped. A default that does not
// convert to its field type makes Load fail.
func DefaultsOf(v any) *Defaults {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return &Defaults{err: fmt.Errorf("defaults need a struct, got %T", v)}
	}

	d := &Defaults{values: make(map[string]any)}
	for i := range rt.NumField() {
		f := rt.Field(i)
		key, _, _ := strings.Cut(f.Tag.Get(TagName), ",")
		raw, ok := f.Tag.Lookup(DefaultTagName)
		if key == "" || key == "-" || !ok {
			continue
		}
		value, err := castDefault(f.Type, raw)
		if err != nil {
			d.err = NewFieldError("defaults", key, "load", err)
			return d
		}
		d.values[strings.ToLower(key)] = value
	}
	return d
}

// Load returns a fresh copy of the defaults.
func (d *Defaults) Load(context.Context) (map[string]any, error) {
	if d.err != nil {
		return nil, d.err
	}
	return maps.Clone(d.values), nil
}

func castDefault(t reflect.Type, raw string) (any, error) {
	if t == durationType {
		return cast.ToDurationE(raw)
	}
	switch t.Kind() {
	case reflect.Bool:
		return cast.ToBoolE(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64E(raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cast.ToUint64E(raw)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(raw)
	case reflect.String:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported default for %s", t)
	}
}
