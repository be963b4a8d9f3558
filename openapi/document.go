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
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Version is the OpenAPI version written into every document.
const Version = "3.1.0"

const componentsPrefix = "#/components/schemas/"

// Names of the shared error components every operation references.
const (
	ErrorResponseSchema       = "ErrorResponse"
	ValidationErrorSchema     = "ValidationError"
	HTTPValidationErrorSchema = "HTTPValidationError"
)

// Info is the document's info object.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// OperationSpec is the registration-time metadata of one route.
type OperationSpec struct {
	Method      string
	Path        string
	Summary     string
	Description string
	OperationID string
	Tags        []string
	Deprecated  bool
	Parameters  []Parameter
	Request     *Schema
	Response    *Schema
}

// Operation is the contract entry for one (path, method).
type Operation struct {
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	OperationID string              `json:"operationId,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Deprecated  bool                `json:"deprecated,omitempty"`
	Parameters  []ParameterObject   `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// RequestBody is an operation's JSON request body.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// Response is an operation response entry.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// MediaType holds the schema of a body.
type MediaType struct {
	Schema map[string]any `json:"schema"`
}

// Document is the contract built up as routes register.
//
// Adding an operation never changes existing operations; it can only add
// shared component schemas. A Document is safe for concurrent use.
type Document struct {
	mu         sync.RWMutex
	info       Info
	paths      map[string]map[string]*Operation
	components map[string]any
	opIDs      map[string]string
	normalizer *Normalizer
}

// NewDocument creates a document holding only the shared error components.
func NewDocument(info Info) *Document {
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	return &Document{
		info:       info,
		paths:      make(map[string]map[string]*Operation),
		components: errorComponents(),
		opIDs:      make(map[string]string),
		normalizer: NewNormalizer(),
	}
}

// Normalizer returns the document's schema normalizer, so validators can
// share its memoized results.
func (d *Document) Normalizer() *Normalizer {
	return d.normalizer
}

func errorComponents() map[string]any {
	return map[string]any{
		ErrorResponseSchema: map[string]any{
			"type":        "object",
			"description": "Generic error. Structured details replace the object verbatim.",
			"properties": map[string]any{
				"error": map[string]any{"description": "Human-readable error detail."},
			},
			"required": []any{"error"},
		},
		ValidationErrorSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"field":     map[string]any{"type": "string"},
				"message":   map[string]any{"type": "string"},
				"validator": map[string]any{"type": "string"},
			},
			"required": []any{"field", "message", "validator"},
		},
		HTTPValidationErrorSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"details": map[string]any{
					"type":  "array",
					"items": map[string]any{keyRef: componentsPrefix + ValidationErrorSchema},
				},
				"body": map[string]any{"description": "The rejected request body."},
			},
			"required": []any{"details"},
		},
	}
}

// AddOperation synthesizes and stores the operation described by spec.
//
// On error the document is left unchanged.
func (d *Document) AddOperation(spec OperationSpec) error {
	method := strings.ToLower(spec.Method)
	if method == "" || spec.Path == "" {
		return fmt.Errorf("openapi: operation needs a method and a path")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.paths[spec.Path][method]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateOperation, strings.ToUpper(method), spec.Path)
	}

	opID := spec.OperationID
	if opID == "" {
		opID = d.uniqueOperationID(operationID(method, spec.Path))
	} else if owner, taken := d.opIDs[opID]; taken {
		return fmt.Errorf("%w: %q already used by %s", ErrDuplicateOperationID, opID, owner)
	}

	staged := make(map[string]any)
	op := &Operation{
		Summary:     spec.Summary,
		Description: spec.Description,
		OperationID: opID,
		Tags:        slices.Clone(spec.Tags),
		Deprecated:  spec.Deprecated,
		Responses:   standardResponses(),
	}

	params, err := d.parameters(spec)
	if err != nil {
		return err
	}
	op.Parameters = params

	if spec.Request != nil {
		schema, err := d.hoist(spec.Request, staged)
		if err != nil {
			return fmt.Errorf("request schema of %s %s: %w", spec.Method, spec.Path, err)
		}
		op.RequestBody = &RequestBody{
			Required: true,
			Content:  map[string]MediaType{"application/json": {Schema: schema}},
		}
	}

	ok := op.Responses["200"]
	if spec.Response != nil {
		schema, err := d.hoist(spec.Response, staged)
		if err != nil {
			return fmt.Errorf("response schema of %s %s: %w", spec.Method, spec.Path, err)
		}
		ok.Content = map[string]MediaType{"application/json": {Schema: schema}}
	}
	op.Responses["200"] = ok

	if err := d.checkRefs(op, staged); err != nil {
		return fmt.Errorf("%s %s: %w", spec.Method, spec.Path, err)
	}

	maps.Copy(d.components, staged)
	if d.paths[spec.Path] == nil {
		d.paths[spec.Path] = make(map[string]*Operation)
	}
	d.paths[spec.Path][method] = op
	d.opIDs[opID] = strings.ToUpper(method) + " " + spec.Path
	return nil
}

func (d *Document) parameters(spec OperationSpec) ([]ParameterObject, error) {
	declared := make(map[string]bool)
	var out []ParameterObject
	for _, p := range spec.Parameters {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if p.In == InPath {
			declared[p.Name] = true
		}
		out = append(out, p.object())
	}
	for _, name := range placeholders(spec.Path) {
		if !declared[name] {
			out = append(out, PathParam(name, TypeString).object())
		}
	}
	return out, nil
}

// hoist moves the $defs of a normalized schema, and the schema itself when
// it is named, into staged components. It returns the schema to embed in
// the operation.
func (d *Document) hoist(s *Schema, staged map[string]any) (map[string]any, error) {
	norm, err := d.normalizer.Normalize(s)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(norm))
	for k, v := range norm {
		if k != keyDefs {
			body[k] = v
		}
	}

	defs, _ := norm[keyDefs].(map[string]any)
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		if name == s.Name {
			// Self reference of a named root; the root body is the component.
			continue
		}
		if err := d.stage(staged, name, rewriteRefs(defs[name])); err != nil {
			return nil, err
		}
	}

	rewritten, _ := rewriteRefs(body).(map[string]any)
	if s.Name == "" {
		return rewritten, nil
	}
	if err := d.stage(staged, s.Name, rewritten); err != nil {
		return nil, err
	}
	return map[string]any{keyRef: componentsPrefix + s.Name}, nil
}

func (d *Document) stage(staged map[string]any, name string, schema any) error {
	if existing, ok := d.components[name]; ok {
		if !reflect.DeepEqual(existing, schema) {
			return fmt.Errorf("%w: %q", ErrSchemaConflict, name)
		}
		return nil
	}
	if existing, ok := staged[name]; ok && !reflect.DeepEqual(existing, schema) {
		return fmt.Errorf("%w: %q", ErrSchemaConflict, name)
	}
	staged[name] = schema
	return nil
}

func (d *Document) checkRefs(op *Operation, staged map[string]any) error {
	var refs []string
	collectRefs(op.RequestBody, &refs)
	collectRefs(op.Responses, &refs)
	for _, c := range staged {
		collectRefs(c, &refs)
	}
	for _, r := range refs {
		name, ok := strings.CutPrefix(r, componentsPrefix)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnresolvedRef, r)
		}
		if _, ok := d.components[name]; ok {
			continue
		}
		if _, ok := staged[name]; ok {
			continue
		}
		return fmt.Errorf("%w: %s", ErrUnresolvedRef, r)
	}
	return nil
}

// rewriteRefs returns a copy of v with "#/$defs/X" turned into
// "#/components/schemas/X".
func rewriteRefs(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if k == keyDefs {
				continue
			}
			if s, ok := child.(string); ok && k == keyRef {
				if name, found := strings.CutPrefix(s, defsPrefix); found {
					out[k] = componentsPrefix + name
					continue
				}
			}
			out[k] = rewriteRefs(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = rewriteRefs(child)
		}
		return out
	default:
		return v
	}
}

func collectRefs(v any, refs *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if s, ok := child.(string); ok && k == keyRef {
				*refs = append(*refs, s)
				continue
			}
			collectRefs(child, refs)
		}
	case []any:
		for _, child := range t {
			collectRefs(child, refs)
		}
	case *RequestBody:
		if t != nil {
			for _, mt := range t.Content {
				collectRefs(mt.Schema, refs)
			}
		}
	case map[string]Response:
		for _, r := range t {
			for _, mt := range r.Content {
				collectRefs(mt.Schema, refs)
			}
		}
	}
}

func standardResponses() map[string]Response {
	errorContent := func(name string) map[string]MediaType {
		return map[string]MediaType{
			"application/json": {Schema: map[string]any{keyRef: componentsPrefix + name}},
		}
	}
	return map[string]Response{
		"200": {Description: "Successful Response"},
		"400": {Description: http.StatusText(http.StatusBadRequest), Content: errorContent(ErrorResponseSchema)},
		"404": {Description: http.StatusText(http.StatusNotFound), Content: errorContent(ErrorResponseSchema)},
		"422": {Description: "Validation Error", Content: errorContent(HTTPValidationErrorSchema)},
		"500": {Description: http.StatusText(http.StatusInternalServerError), Content: errorContent(ErrorResponseSchema)},
	}
}

// uniqueOperationID suffixes a generated id with _2, _3, ... until it is
// free. Callers hold d.mu.
func (d *Document) uniqueOperationID(base string) string {
	if _, taken := d.opIDs[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		id := base + "_" + strconv.Itoa(n)
		if _, taken := d.opIDs[id]; !taken {
			return id
		}
	}
}

// operationID derives an id from the method and template. Placeholders are
// spelled "by_<name>" so /quotes/{id} and /quotes/id stay apart.
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		b.WriteByte('_')
		for _, r := range seg {
			switch {
			case r == '{':
				b.WriteString("by_")
			case r == '}':
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}

// Operation returns the stored operation for a path and method.
func (d *Document) Operation(method, path string) (*Operation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	op, ok := d.paths[path][strings.ToLower(method)]
	return op, ok
}

// Component returns a shared schema by name.
func (d *Document) Component(name string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.components[name]
	return c, ok
}

// ComponentNames lists the shared schema names in sorted order.
func (d *Document) ComponentNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.components))
}

type documentJSON struct {
	OpenAPI    string                           `json:"openapi"`
	Info       Info                             `json:"info"`
	Paths      map[string]map[string]*Operation `json:"paths"`
	Components map[string]any                   `json:"components"`
}

// MarshalJSON renders the full contract.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.Marshal(documentJSON{
		OpenAPI:    Version,
		Info:       d.info,
		Paths:      d.paths,
		Components: map[string]any{"schemas": d.components},
	})
}

// JSON renders the contract as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out strings.Builder
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	enc := json.NewEncoder(&out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(out.String()), nil
}

// YAML renders the contract as YAML.
func (d *Document) YAML() ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}
