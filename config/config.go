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
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"rivaas.dev/courier/config/codec"
	"rivaas.dev/courier/config/source"
)

// TagName is the struct tag holding a field's configuration key.
const TagName = "config"

// Source loads one layer of configuration. Keys are lowercased after
// loading, so sources may return any case.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Dumper writes the merged values somewhere.
type Dumper interface {
	Dump(ctx context.Context, values map[string]any) error
}

// Validator is implemented by bindings with checks that struct tags
// cannot express.
type Validator interface {
	Validate() error
}

// Config merges its sources in order, later sources overriding earlier
// ones, and optionally decodes the result into a bound struct.
type Config struct {
	mu       sync.RWMutex
	values   map[string]any
	sources  []Source
	dumpers  []Dumper
	binding  any
	validate *validator.Validate
}

// Option configures a [Config].
type Option func(*Config) error

// New creates a Config. Nothing is loaded until [Config.Load].
func New(opts ...Option) (*Config, error) {
	c := &Config{values: make(map[string]any)}
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if c.validate == nil {
		c.validate = NewValidate()
	}
	return c, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithSource appends src.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile appends a required file, its format taken from the extension.
func WithFile(path string) Option {
	return withFile(path, false)
}

// WithOptionalFile appends a file that is skipped when it does not exist.
func WithOptionalFile(path string) Option {
	return withFile(path, true)
}

func withFile(path string, optional bool) Option {
	return func(c *Config) error {
		format, err := detectFormat(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, format, optional)(c)
	}
}

// WithFileAs appends a file decoded with an explicit codec.
func WithFileAs(path string, format codec.Type, optional bool) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		var opts []source.FileOption
		if optional {
			opts = append(opts, source.Optional())
		}
		c.sources = append(c.sources, source.NewFile(path, decoder, opts...))
		return nil
	}
}

// WithDotEnv appends a dotenv file. A missing file is skipped.
func WithDotEnv(path string) Option {
	return WithFileAs(path, codec.TypeEnv, true)
}

// WithContent appends in-memory content.
func WithContent(data []byte, format codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFileContent(data, decoder))
		return nil
	}
}

// WithEnv appends the process environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return WithSource(source.NewEnv(prefix))
}

// WithBinding decodes the merged values into target, a pointer to a
// struct tagged with `config:"key"`, on every Load. Fields are validated
// with their `validate` tags, then through [Validator] if implemented.
func WithBinding(target any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(target)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("binding must be a non-nil pointer to a struct, got %T", target)
		}
		c.binding = target
		return nil
	}
}

// WithDumper appends a dumper run by [Config.Dump].
func WithDumper(d Dumper) Option {
	return func(c *Config) error {
		if d == nil {
			return errors.New("dumper cannot be nil")
		}
		c.dumpers = append(c.dumpers, d)
		return nil
	}
}

// WithValidate replaces the struct validator used for bindings.
func WithValidate(v *validator.Validate) Option {
	return func(c *Config) error {
		c.validate = v
		return nil
	}
}

// Load reads every source, merges them and binds the result. The stored
// values are only replaced when everything succeeds.
func (c *Config) Load(ctx context.Context) error {
	values, err := c.loadSources(ctx)
	if err != nil {
		return err
	}
	if c.binding != nil {
		if err = c.bind(values); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.values = values
	c.mu.Unlock()
	return nil
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	values := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conf, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err = mergo.Map(&values, normalizeMapKeys(conf), mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}
	return values, nil
}

func (c *Config) bind(values map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		Result:           c.binding,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return NewError("binding", "bind", err)
	}
	if err = decoder.Decode(values); err != nil {
		return NewError("binding", "bind", err)
	}

	if err = c.validate.Struct(c.binding); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return NewError("binding", "validate", err)
		}
		errs := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs = append(errs, NewFieldError("binding", fe.Field(), "validate", describeFieldError(fe)))
		}
		return errors.Join(errs...)
	}

	if v, ok := c.binding.(Validator); ok {
		if err = v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}
	return nil
}

// Values returns a copy of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// Dump hands the merged values to every dumper.
func (c *Config) Dump(ctx context.Context) error {
	values := c.Values()
	for i, d := range c.dumpers {
		if err := d.Dump(ctx, values); err != nil {
			return NewError(fmt.Sprintf("dumper[%d]", i), "dump", err)
		}
	}
	return nil
}

func normalizeMapKeys(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeMapKeys(nested)
		}
		normalized[strings.ToLower(k)] = v
	}
	return normalized
}
