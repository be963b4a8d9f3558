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

package openapi_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"rivaas.dev/courier/openapi"
)

var _ = Describe("Document", func() {
	var doc *openapi.Document

	quote := openapi.Object("Quote",
		openapi.Field("id", openapi.String()),
		openapi.Field("company", openapi.String()),
		openapi.Field("final_quote", openapi.Number()),
	)

	BeforeEach(func() {
		doc = openapi.NewDocument(openapi.Info{Title: "Quotes"})
	})

	Describe("NewDocument", func() {
		It("starts with the shared error components", func() {
			Expect(doc.ComponentNames()).To(ConsistOf(
				openapi.ErrorResponseSchema,
				openapi.ValidationErrorSchema,
				openapi.HTTPValidationErrorSchema,
			))
		})
	})

	Describe("AddOperation", func() {
		It("writes the uniform responses", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{
				Method:  "GET",
				Path:    "/",
				Summary: "Hello",
				Tags:    []string{"misc"},
			})).To(Succeed())

			op, ok := doc.Operation("get", "/")
			Expect(ok).To(BeTrue())
			Expect(op.Summary).To(Equal("Hello"))
			Expect(op.Tags).To(Equal([]string{"misc"}))
			Expect(op.Responses).To(HaveKey("200"))
			Expect(op.Responses["422"].Content["application/json"].Schema).
				To(Equal(map[string]any{"$ref": "#/components/schemas/HTTPValidationError"}))
			for _, code := range []string{"400", "404", "500"} {
				Expect(op.Responses[code].Content["application/json"].Schema).
					To(Equal(map[string]any{"$ref": "#/components/schemas/ErrorResponse"}))
			}
			Expect(op.RequestBody).To(BeNil())
		})

		It("deduplicates a named schema shared by two routes", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/quotes/{id}", Response: quote})).To(Succeed())
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "POST", Path: "/quotes", Response: quote})).To(Succeed())

			names := doc.ComponentNames()
			count := 0
			for _, n := range names {
				if n == "Quote" {
					count++
				}
			}
			Expect(count).To(Equal(1))

			op, _ := doc.Operation("POST", "/quotes")
			Expect(op.Responses["200"].Content["application/json"].Schema).
				To(Equal(map[string]any{"$ref": "#/components/schemas/Quote"}))
		})

		It("hoists nested schemas and rewrites their references", func() {
			page := &openapi.Schema{
				Type: openapi.TypeObject,
				Properties: []openapi.Property{
					openapi.Field("items", openapi.ArrayOf(quote)),
					openapi.Field("total_items", openapi.Integer()),
				},
			}
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/quotes", Response: page})).To(Succeed())

			op, _ := doc.Operation("GET", "/quotes")
			schema := op.Responses["200"].Content["application/json"].Schema
			items := schema["properties"].(map[string]any)["items"].(map[string]any)
			Expect(items["items"]).To(Equal(map[string]any{"$ref": "#/components/schemas/Quote"}))
			Expect(schema).NotTo(HaveKey("$defs"))

			_, ok := doc.Component("Quote")
			Expect(ok).To(BeTrue())
		})

		It("adds a required request body", func() {
			req := openapi.Object("QuoteRequest",
				openapi.Field("company", openapi.String()),
				openapi.Field("value", &openapi.Schema{Type: openapi.TypeInteger, ExclusiveMinimum: openapi.Ptr(0.0)}),
			)
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "POST", Path: "/quotes", Request: req})).To(Succeed())

			op, _ := doc.Operation("POST", "/quotes")
			Expect(op.RequestBody).NotTo(BeNil())
			Expect(op.RequestBody.Required).To(BeTrue())
			Expect(op.RequestBody.Content["application/json"].Schema).
				To(Equal(map[string]any{"$ref": "#/components/schemas/QuoteRequest"}))
		})

		It("declares undeclared path placeholders as required strings", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{
				Method: "GET",
				Path:   "/users/{user}/quotes/{id}",
				Parameters: []openapi.Parameter{
					openapi.PathParam("id", openapi.TypeInteger).WithDescription("quote id"),
					openapi.QueryParam("verbose", openapi.TypeBoolean),
				},
			})).To(Succeed())

			op, _ := doc.Operation("GET", "/users/{user}/quotes/{id}")
			Expect(op.Parameters).To(HaveLen(3))
			Expect(op.Parameters[0].Name).To(Equal("id"))
			Expect(op.Parameters[0].Schema["type"]).To(Equal("integer"))
			Expect(op.Parameters[1].Required).To(BeFalse())
			Expect(op.Parameters[2].Name).To(Equal("user"))
			Expect(op.Parameters[2].Required).To(BeTrue())
		})

		It("rejects an optional path parameter", func() {
			p := openapi.PathParam("id", openapi.TypeString)
			p.Required = false
			err := doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/x/{id}", Parameters: []openapi.Parameter{p}})
			Expect(err).To(MatchError(openapi.ErrInvalidParameter))
		})

		It("rejects duplicates", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/a"})).To(Succeed())
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "get", Path: "/a"})).
				To(MatchError(openapi.ErrDuplicateOperation))
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/b", OperationID: "get_a"})).
				To(MatchError(openapi.ErrDuplicateOperationID))
		})

		It("keeps generated operation ids unique", func() {
			for _, path := range []string{"/quotes/{id}", "/quotes/id", "/a-b", "/a_b", "/a.b"} {
				Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: path})).To(Succeed())
			}
			ids := map[string]string{
				"/quotes/{id}": "get_quotes_by_id",
				"/quotes/id":   "get_quotes_id",
				"/a-b":         "get_a_b",
				"/a_b":         "get_a_b_2",
				"/a.b":         "get_a_b_3",
			}
			for path, want := range ids {
				op, ok := doc.Operation("GET", path)
				Expect(ok).To(BeTrue())
				Expect(op.OperationID).To(Equal(want), path)
			}
		})

		It("rejects a conflicting schema and leaves the document unchanged", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/quotes/{id}", Response: quote})).To(Succeed())

			other := openapi.Object("Quote", openapi.Field("id", openapi.Integer()))
			err := doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/other", Response: other})
			Expect(err).To(MatchError(openapi.ErrSchemaConflict))

			_, ok := doc.Operation("GET", "/other")
			Expect(ok).To(BeFalse())
		})

		It("rejects references to unknown schemas", func() {
			err := doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/ghost", Response: openapi.RefTo("Ghost")})
			Expect(err).To(MatchError(openapi.ErrUnresolvedRef))
		})

		It("resolves references to components registered earlier", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/quotes/{id}", Response: quote})).To(Succeed())
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/latest", Response: openapi.RefTo("Quote")})).To(Succeed())
		})

		It("never changes earlier operations", func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/a", Summary: "A"})).To(Succeed())
			before, err := json.Marshal(mustOp(doc, "GET", "/a"))
			Expect(err).NotTo(HaveOccurred())

			Expect(doc.AddOperation(openapi.OperationSpec{Method: "POST", Path: "/a", Response: quote})).To(Succeed())
			after, err := json.Marshal(mustOp(doc, "GET", "/a"))
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(MatchJSON(before))
		})
	})

	Describe("export", func() {
		BeforeEach(func() {
			Expect(doc.AddOperation(openapi.OperationSpec{Method: "GET", Path: "/quotes/{id}", Response: quote})).To(Succeed())
		})

		It("renders JSON", func() {
			raw, err := doc.JSON()
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]any
			Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
			Expect(decoded["openapi"]).To(Equal(openapi.Version))
			Expect(decoded["info"]).To(HaveKeyWithValue("title", "Quotes"))
			Expect(decoded["info"]).To(HaveKeyWithValue("version", "1.0.0"))
			Expect(decoded["paths"]).To(HaveKey("/quotes/{id}"))
			Expect(decoded["components"].(map[string]any)["schemas"]).To(HaveKey("Quote"))
		})

		It("renders YAML with the same content", func() {
			raw, err := doc.YAML()
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]any
			Expect(yaml.Unmarshal(raw, &decoded)).To(Succeed())
			Expect(decoded["openapi"]).To(Equal(openapi.Version))
			Expect(decoded["paths"]).To(HaveKey("/quotes/{id}"))
		})
	})
})

func mustOp(doc *openapi.Document, method, path string) *openapi.Operation {
	op, ok := doc.Operation(method, path)
	Expect(ok).To(BeTrue())
	return op
}
