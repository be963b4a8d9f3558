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
	"slices"
	"strings"
)

// Location is where a parameter is carried.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// Parameter declares a non-body input of an operation.
type Parameter struct {
	Name     string
	In       Location
	Required bool
	Type     Type
	Format   string

	Description     string
	Example         any
	Deprecated      bool
	AllowEmptyValue bool

	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Enum      []any
	Pattern   string
	Default   any
}

// PathParam declares a path parameter. Path parameters are always required.
func PathParam(name string, t Type) Parameter {
	return Parameter{Name: name, In: InPath, Required: true, Type: t}
}

// QueryParam declares an optional query parameter.
func QueryParam(name string, t Type) Parameter {
	return Parameter{Name: name, In: InQuery, Type: t}
}

// HeaderParam declares an optional header parameter.
func HeaderParam(name string, t Type) Parameter {
	return Parameter{Name: name, In: InHeader, Type: t}
}

// CookieParam declares an optional cookie parameter.
func CookieParam(name string, t Type) Parameter {
	return Parameter{Name: name, In: InCookie, Type: t}
}

// AsRequired marks the parameter required.
func (p Parameter) AsRequired() Parameter {
	p.Required = true
	return p
}

// WithDescription sets the description.
func (p Parameter) WithDescription(d string) Parameter {
	p.Description = d
	return p
}

// WithExample sets the example value.
func (p Parameter) WithExample(v any) Parameter {
	p.Example = v
	return p
}

// WithDefault sets the default value.
func (p Parameter) WithDefault(v any) Parameter {
	p.Default = v
	return p
}

// WithEnum restricts the parameter to the given values.
func (p Parameter) WithEnum(values ...any) Parameter {
	p.Enum = values
	return p
}

// WithRange sets inclusive numeric bounds.
func (p Parameter) WithRange(minimum, maximum float64) Parameter {
	p.Minimum = &minimum
	p.Maximum = &maximum
	return p
}

// WithLength sets string length bounds.
func (p Parameter) WithLength(minLength, maxLength int) Parameter {
	p.MinLength = &minLength
	p.MaxLength = &maxLength
	return p
}

// WithPattern sets a regular expression the value must match.
func (p Parameter) WithPattern(pattern string) Parameter {
	p.Pattern = pattern
	return p
}

// AsDeprecated marks the parameter deprecated.
func (p Parameter) AsDeprecated() Parameter {
	p.Deprecated = true
	return p
}

func (p Parameter) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidParameter)
	}
	if !slices.Contains([]Location{InPath, InQuery, InHeader, InCookie}, p.In) {
		return fmt.Errorf("%w: %q has unknown location %q", ErrInvalidParameter, p.Name, p.In)
	}
	if p.In == InPath && !p.Required {
		return fmt.Errorf("%w: path parameter %q must be required", ErrInvalidParameter, p.Name)
	}
	return nil
}

// ParameterObject is the contract form of a [Parameter].
type ParameterObject struct {
	Name            string         `json:"name"`
	In              Location       `json:"in"`
	Required        bool           `json:"required"`
	Description     string         `json:"description,omitempty"`
	Deprecated      bool           `json:"deprecated,omitempty"`
	AllowEmptyValue bool           `json:"allowEmptyValue,omitempty"`
	Example         any            `json:"example,omitempty"`
	Schema          map[string]any `json:"schema"`
}

func (p Parameter) object() ParameterObject {
	t := p.Type
	if t == "" {
		t = TypeString
	}
	schema := map[string]any{"type": string(t)}
	setString(schema, "format", p.Format)
	setString(schema, "pattern", p.Pattern)
	setInt(schema, "minLength", p.MinLength)
	setInt(schema, "maxLength", p.MaxLength)
	setFloat(schema, "minimum", p.Minimum)
	setFloat(schema, "maximum", p.Maximum)
	if len(p.Enum) > 0 {
		schema["enum"] = slices.Clone(p.Enum)
	}
	if p.Default != nil {
		schema["default"] = p.Default
	}

	return ParameterObject{
		Name:            p.Name,
		In:              p.In,
		Required:        p.Required,
		Description:     p.Description,
		Deprecated:      p.Deprecated,
		AllowEmptyValue: p.AllowEmptyValue,
		Example:         p.Example,
		Schema:          schema,
	}
}

// placeholders lists the {name} placeholders of a path template in order.
func placeholders(path string) []string {
	var names []string
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, path[open+1:open+end])
		path = path[open+end+1:]
	}
}
