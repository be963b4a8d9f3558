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

package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rivaas.dev/courier/openapi"
)

// Validator checks request bodies against schema descriptors.
//
// Compiled schemas are cached per *openapi.Schema. A Validator is safe for
// concurrent use.
type Validator struct {
	normalizer *openapi.Normalizer
	printer    *message.Printer

	mu       sync.RWMutex
	compiled map[*openapi.Schema]*jsonschema.Schema
	seq      int
}

// New returns a validator. Passing the contract document's normalizer lets
// validation reuse the normalized schemas; nil creates a private one.
func New(normalizer *openapi.Normalizer) *Validator {
	if normalizer == nil {
		normalizer = openapi.NewNormalizer()
	}
	return &Validator{
		normalizer: normalizer,
		printer:    message.NewPrinter(language.English),
		compiled:   make(map[*openapi.Schema]*jsonschema.Schema),
	}
}

// Compile prepares s for validation. Registration calls it so that broken
// schemas fail at startup.
func (v *Validator) Compile(s *openapi.Schema) error {
	_, err := v.schema(s)
	return err
}

func (v *Validator) schema(s *openapi.Schema) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[s]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if compiled, ok := v.compiled[s]; ok {
		return compiled, nil
	}

	norm, err := v.normalizer.Normalize(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}

	v.seq++
	url := "mem://schemas/" + strconv.Itoa(v.seq) + ".json"
	if s.Name != "" {
		url = "mem://schemas/" + s.Name + "-" + strconv.Itoa(v.seq) + ".json"
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}
	compiled, err = compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}

	v.compiled[s] = compiled
	return compiled, nil
}

// Validate checks body against s. It returns nil, a 422 application error
// listing every failed constraint, or an [ErrSchemaCompile] error.
func (v *Validator) Validate(s *openapi.Schema, body []byte) error {
	compiled, err := v.schema(s)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return Failed([]FieldError{{
			Field:     "body",
			Message:   "request body is required",
			Validator: "required",
		}}, nil)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return Failed([]FieldError{{
			Field:     "body",
			Message:   "invalid JSON: " + err.Error(),
			Validator: "json",
		}}, string(body))
	}

	err = compiled.Validate(inst)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var fields []FieldError
	v.collect(s, verr, &fields)

	var echo any
	if json.Unmarshal(body, &echo) != nil {
		echo = string(body)
	}
	return Failed(fields, echo)
}

// Bind validates body against s and decodes it into dst.
func (v *Validator) Bind(s *openapi.Schema, body []byte, dst any) error {
	if s != nil {
		if err := v.Validate(s, body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return Failed([]FieldError{{Field: "body", Message: err.Error(), Validator: "json"}}, string(body))
	}
	return nil
}

func (v *Validator) collect(s *openapi.Schema, verr *jsonschema.ValidationError, out *[]FieldError) {
	if len(verr.Causes) > 0 {
		for _, c := range verr.Causes {
			v.collect(s, c, out)
		}
		return
	}

	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, missing := range req.Missing {
			loc := append(append([]string{}, verr.InstanceLocation...), missing)
			*out = append(*out, FieldError{
				Field:     strings.Join(loc, "."),
				Message:   v.message(s, loc, "missing required property"),
				Validator: "required",
			})
		}
		return
	}

	validator := "schema"
	if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
		validator = kp[len(kp)-1]
	}
	field := strings.Join(verr.InstanceLocation, ".")
	if field == "" {
		field = validator
	}
	*out = append(*out, FieldError{
		Field:     field,
		Message:   v.message(s, verr.InstanceLocation, verr.ErrorKind.LocalizedString(v.printer)),
		Validator: validator,
	})
}

// message returns the ErrorMessage declared on the schema at loc, or def.
func (v *Validator) message(s *openapi.Schema, loc []string, def string) string {
	at := schemaAt(s, loc)
	if at != nil && at.ErrorMessage != "" {
		return at.ErrorMessage
	}
	if target := resolveRef(s, at); target != nil && target.ErrorMessage != "" {
		return target.ErrorMessage
	}
	return def
}

// maxRefHops bounds chains of references between definitions.
const maxRefHops = 16

// resolveRef follows s through references until it reaches a concrete
// schema. Names resolve against the schema's own Defs, then the root's Defs,
// then the root itself.
func resolveRef(root, s *openapi.Schema) *openapi.Schema {
	for range maxRefHops {
		if s == nil || s.Ref == "" {
			return s
		}
		next := s.Defs[s.Ref]
		if next == nil {
			next = root.Defs[s.Ref]
		}
		if next == nil && root.Name == s.Ref {
			next = root
		}
		s = next
	}
	return nil
}

func schemaAt(root *openapi.Schema, loc []string) *openapi.Schema {
	cur := root
	for _, part := range loc {
		cur = resolveRef(root, cur)
		if cur == nil {
			return nil
		}
		if cur.Items != nil {
			if _, err := strconv.Atoi(part); err == nil {
				cur = cur.Items
				continue
			}
		}
		next, ok := cur.Property(part)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}
