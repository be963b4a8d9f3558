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

package quote

import (
	"context"
	"errors"
	"net/http"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/internal/store"
	"rivaas.dev/courier/openapi"
	"rivaas.dev/courier/response"
	"rivaas.dev/courier/router"
)

const tag = "quotes"

var (
	requestSchema = openapi.Object("QuoteRequest",
		openapi.Field("company", &openapi.Schema{Type: openapi.TypeString, MinLength: openapi.Ptr(1)}),
		openapi.Field("value", &openapi.Schema{
			Type:             openapi.TypeInteger,
			ExclusiveMinimum: openapi.Ptr(0.0),
			ErrorMessage:     "value must be greater than zero",
		}),
	)

	quoteSchema = openapi.Object("Quote",
		openapi.Field("id", openapi.String()),
		openapi.Field("company", openapi.String()),
		openapi.Field("final_quote", openapi.Number()),
		openapi.Field("created_at", &openapi.Schema{Type: openapi.TypeString, Format: "date-time"}),
		openapi.Field("updated_at", &openapi.Schema{Type: openapi.TypeString, Format: "date-time"}),
		openapi.Field("deleted", openapi.Boolean()),
	)

	pageSchema = openapi.Object("QuotePage",
		openapi.Field("data", openapi.ArrayOf(quoteSchema)),
		openapi.Field("page", openapi.Integer()),
		openapi.Field("limit", openapi.Integer()),
		openapi.Field("total_items", openapi.Integer()),
		openapi.Field("total_pages", openapi.Integer()),
	)
)

type listQuery struct {
	Page  int `query:"page" validate:"gte=1"`
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

// Register adds the quote routes to reg.
func Register(reg *router.Registry, svc *Service) error {
	idParam := openapi.PathParam("id", openapi.TypeString).WithDescription("Quote id")

	return errors.Join(
		reg.GET("/", hello, router.WithSummary("HelloWorld")),
		reg.POST("/quotes", svc.create,
			router.WithSummary("Create a quote"),
			router.WithTags(tag),
			router.WithRequestSchema(requestSchema),
			router.WithResponseSchema(quoteSchema),
		),
		reg.GET("/quotes", svc.list,
			router.WithSummary("List quotes"),
			router.WithTags(tag),
			router.WithParams(
				openapi.QueryParam("page", openapi.TypeInteger).WithDefault(1),
				openapi.QueryParam("limit", openapi.TypeInteger).WithDefault(10).WithRange(1, 100),
			),
			router.WithResponseSchema(pageSchema),
		),
		reg.GET("/quotes/{id}", svc.get,
			router.WithSummary("Get a quote"),
			router.WithTags(tag),
			router.WithParams(idParam),
			router.WithResponseSchema(quoteSchema),
		),
		reg.DELETE("/quotes/{id}", svc.delete,
			router.WithSummary("Delete a quote"),
			router.WithTags(tag),
			router.WithParams(idParam),
		),
		reg.GET("/exception", raise, router.WithSummary("Application error example")),
	)
}

func hello(context.Context, *router.Request) (*response.Response, error) {
	return response.JSON(map[string]string{"message": "HelloWorld"}), nil
}

func raise(context.Context, *router.Request) (*response.Response, error) {
	return nil, apperrors.New(http.StatusBadRequest, "Resource not found")
}

func (s *Service) create(ctx context.Context, req *router.Request) (*response.Response, error) {
	var body CreateRequest
	if err := req.Bind(ctx, &body); err != nil {
		return nil, err
	}
	q, err := s.Create(ctx, body)
	if err != nil {
		return nil, err
	}
	return response.JSON(q, response.WithStatus(http.StatusCreated)), nil
}

func (s *Service) get(ctx context.Context, req *router.Request) (*response.Response, error) {
	q, err := s.Get(ctx, req.Param("id"))
	if err != nil {
		return nil, notFound(err)
	}
	return response.JSON(q), nil
}

func (s *Service) list(ctx context.Context, req *router.Request) (*response.Response, error) {
	query := listQuery{Page: 1, Limit: 10}
	if err := req.BindQuery(&query); err != nil {
		return nil, err
	}
	page, err := s.List(ctx, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	return response.JSON(page), nil
}

func (s *Service) delete(ctx context.Context, req *router.Request) (*response.Response, error) {
	if err := s.Delete(ctx, req.Param("id")); err != nil {
		return nil, notFound(err)
	}
	return response.Text(nil, response.WithStatus(http.StatusNoContent)), nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.New(http.StatusNotFound, "Resource not found").WithCause(err)
	}
	return err
}
