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

// Package store persists JSON documents with soft deletion, in memory or
// in Postgres JSONB columns.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound is returned when a document does not exist or has been
	// soft deleted.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when saving a document whose id is taken.
	ErrConflict = errors.New("document already exists")

	// ErrInvalidPage is returned for a page or limit below 1.
	ErrInvalidPage = errors.New("page and limit must be at least 1")
)

// Document holds the bookkeeping fields every stored document carries.
// Embed it in the document type.
type Document struct {
	ID        string    `json:"id" msgpack:"id"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
	Deleted   bool      `json:"deleted" msgpack:"deleted"`
}

// Meta gives repositories access to the embedded [Document].
func (d *Document) Meta() *Document { return d }

// Entity is implemented by pointers to types embedding [Document].
type Entity interface {
	Meta() *Document
}

// Pointer constrains P to *T implementing [Entity].
type Pointer[T any] interface {
	*T
	Entity
}

// Page is one page of documents, newest last.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Repository stores documents of one collection.
type Repository[T any] interface {
	// Save inserts v, assigning an id when it has none and stamping
	// created_at and updated_at.
	Save(ctx context.Context, v *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	// FindAll lists live documents in creation order.
	FindAll(ctx context.Context, page, limit int) (*Page[T], error)
	SoftDelete(ctx context.Context, id string) error
}

// Option configures a repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the ULID generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp fills the bookkeeping fields of a document about to be inserted.
func (o options) stamp(d *Document) {
	now := o.now().UTC()
	if d.ID == "" {
		d.ID = o.newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	d.Deleted = false
}

func checkPage(page, limit int) error {
	if page < 1 || limit < 1 {
		return ErrInvalidPage
	}
	return nil
}

func totalPages(items, limit int) int {
	return (items + limit - 1) / limit
}
