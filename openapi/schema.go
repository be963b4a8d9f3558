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

// Type is a JSON Schema primitive type tag.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema describes the shape of a request or response body.
//
// Schemas are plain data supplied at registration time. A schema with a Name
// is hoisted into the document's shared components and referenced by name
// wherever it appears; unnamed schemas are inlined.
//
// Schemas are normalized once per pointer. Treat a Schema as immutable after
// it has been passed to a [Document] or a validator.
type Schema struct {
	// Name is the component name. Required for recursive schemas.
	Name string

	Type        Type
	Format      string
	Title       string
	Description string

	// Properties of an object, in declaration order.
	Properties []Property
	// Items of an array.
	Items *Schema
	// AdditionalProperties, when set, restricts unknown object keys.
	AdditionalProperties *bool

	Enum    []any
	Pattern string

	MinLength *int
	MaxLength *int
	MinItems  *int
	MaxItems  *int

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64

	Default  any
	Example  any
	Nullable bool

	// Ref points at another named schema, either one in Defs or a component
	// registered by an earlier operation.
	Ref string
	// Defs declares named schemas available to Ref.
	Defs map[string]*Schema

	// ErrorMessage replaces the validator's message for failures located at
	// this schema.
	ErrorMessage string
}

// Property is a named object member.
type Property struct {
	Name     string
	Schema   *Schema
	Required bool
}

// Object builds a named object schema.
func Object(name string, props ...Property) *Schema {
	return &Schema{Name: name, Type: TypeObject, Properties: props}
}

// ArrayOf builds an array schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// RefTo builds a schema referencing a named schema.
func RefTo(name string) *Schema {
	return &Schema{Ref: name}
}

// String, Integer, Number and Boolean build primitive schemas.
func String() *Schema  { return &Schema{Type: TypeString} }
func Integer() *Schema { return &Schema{Type: TypeInteger} }
func Number() *Schema  { return &Schema{Type: TypeNumber} }
func Boolean() *Schema { return &Schema{Type: TypeBoolean} }

// Field declares a required property.
func Field(name string, s *Schema) Property {
	return Property{Name: name, Schema: s, Required: true}
}

// OptionalField declares an optional property.
func OptionalField(name string, s *Schema) Property {
	return Property{Name: name, Schema: s}
}

// Ptr returns a pointer to v. It is handy for the constraint fields.
func Ptr[T any](v T) *T { return &v }

// Property looks up a property by name.
func (s *Schema) Property(name string) (*Schema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}
