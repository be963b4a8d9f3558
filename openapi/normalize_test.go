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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrimitives(t *testing.T) {
	t.Parallel()

	s := &Schema{
		Type:             TypeInteger,
		Description:      "amount",
		ExclusiveMinimum: Ptr(0.0),
		Maximum:          Ptr(100.0),
		Example:          5,
	}

	got, err := NewNormalizer().Normalize(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"type":             "integer",
		"description":      "amount",
		"exclusiveMinimum": 0.0,
		"maximum":          100.0,
		"example":          5,
	}, got)
}

func TestNormalizeObjectKeepsRequiredOrder(t *testing.T) {
	t.Parallel()

	s := &Schema{
		Type: TypeObject,
		Properties: []Property{
			Field("b", String()),
			OptionalField("c", Boolean()),
			Field("a", &Schema{Type: TypeString, Nullable: true, MinLength: Ptr(1)}),
		},
	}

	got, err := NewNormalizer().Normalize(s)
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "a"}, got["required"])

	props := got["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": []any{"string", "null"}, "minLength": 1}, props["a"])
	assert.Equal(t, map[string]any{"type": "boolean"}, props["c"])
}

func TestNormalizeHoistsNamedChildren(t *testing.T) {
	t.Parallel()

	address := Object("Address", Field("city", String()))
	person := Object("Person",
		Field("home", address),
		OptionalField("work", address),
		Field("tags", ArrayOf(String())),
	)

	got, err := NewNormalizer().Normalize(person)
	require.NoError(t, err)

	props := got["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Address"}, props["home"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Address"}, props["work"])

	defs := got["$defs"].(map[string]any)
	require.Contains(t, defs, "Address")
	assert.NotContains(t, defs, "Person")
}

func TestNormalizeIsMemoizedByIdentity(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	s := Object("Thing", Field("id", String()))

	first, err := n.Normalize(s)
	require.NoError(t, err)
	second, err := n.Normalize(s)
	require.NoError(t, err)

	assert.Equal(t, 1, n.Runs())
	assert.Equal(t, first, second)

	_, err = n.Normalize(Object("Thing", Field("id", String())))
	require.NoError(t, err)
	assert.Equal(t, 2, n.Runs(), "a different pointer is a different schema")
}

func TestNormalizeRecursiveNamedSchema(t *testing.T) {
	t.Parallel()

	node := &Schema{Name: "Node", Type: TypeObject}
	node.Properties = []Property{
		Field("value", Integer()),
		OptionalField("children", ArrayOf(node)),
	}

	got, err := NewNormalizer().Normalize(node)
	require.NoError(t, err)

	items := got["properties"].(map[string]any)["children"].(map[string]any)["items"]
	assert.Equal(t, map[string]any{"$ref": "#/$defs/Node"}, items)
	assert.Equal(t, map[string]any{"$ref": "#"}, got["$defs"].(map[string]any)["Node"])
}

func TestNormalizeRejectsUnnamedCycle(t *testing.T) {
	t.Parallel()

	loop := &Schema{Type: TypeObject}
	loop.Properties = []Property{OptionalField("self", loop)}

	_, err := NewNormalizer().Normalize(loop)
	require.ErrorIs(t, err, ErrUnnamedCycle)
}

func TestNormalizeNameConflict(t *testing.T) {
	t.Parallel()

	s := Object("Pair",
		Field("left", Object("Side", Field("x", Integer()))),
		Field("right", Object("Side", Field("y", String()))),
	)

	_, err := NewNormalizer().Normalize(s)
	require.ErrorIs(t, err, ErrSchemaConflict)
}

func TestNormalizeDefsAndRefs(t *testing.T) {
	t.Parallel()

	s := &Schema{
		Type:       TypeObject,
		Properties: []Property{Field("money", RefTo("Money"))},
		Defs: map[string]*Schema{
			"Money": {Type: TypeNumber, Minimum: Ptr(0.0)},
		},
	}

	got, err := NewNormalizer().Normalize(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "number", "minimum": 0.0}, got["$defs"].(map[string]any)["Money"])
}
