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

package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process [Repository]. Documents are kept JSON encoded,
// so callers never share memory with the store.
type Memory[T any, P Pointer[T]] struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
	opts options
}

type memoryDoc struct {
	createdAt time.Time
	deleted   bool
	data      []byte
}

// NewMemory creates an empty Memory repository.
func NewMemory[T any, P Pointer[T]](opts ...Option) *Memory[T, P] {
	return &Memory[T, P]{docs: make(map[string]memoryDoc), opts: newOptions(opts)}
}

func (m *Memory[T, P]) Save(_ context.Context, v *T) error {
	meta := P(v).Meta()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.opts.stamp(meta)
	if _, taken := m.docs[meta.ID]; taken {
		return ErrConflict
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	m.docs[meta.ID] = memoryDoc{createdAt: meta.CreatedAt, data: data}
	return nil
}

func (m *Memory[T, P]) FindByID(_ context.Context, id string) (*T, error) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok || doc.deleted {
		return nil, ErrNotFound
	}
	return decode[T](doc.data)
}

func (m *Memory[T, P]) FindAll(_ context.Context, page, limit int) (*Page[T], error) {
	if err := checkPage(page, limit); err != nil {
		return nil, err
	}

	m.mu.RLock()
	type entry struct {
		id  string
		doc memoryDoc
	}
	live := make([]entry, 0, len(m.docs))
	for id, doc := range m.docs {
		if !doc.deleted {
			live = append(live, entry{id: id, doc: doc})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(live, func(a, b entry) int {
		if c := a.doc.createdAt.Compare(b.doc.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	result := &Page[T]{
		Data:       []T{},
		Page:       page,
		Limit:      limit,
		TotalItems: len(live),
		TotalPages: totalPages(len(live), limit),
	}
	start := (page - 1) * limit
	if start >= len(live) {
		return result, nil
	}
	for _, e := range live[start:min(start+limit, len(live))] {
		v, err := decode[T](e.doc.data)
		if err != nil {
			return nil, err
		}
		result.Data = append(result.Data, *v)
	}
	return result, nil
}

func (m *Memory[T, P]) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok || doc.deleted {
		return ErrNotFound
	}
	v, err := decode[T](doc.data)
	if err != nil {
		return err
	}
	meta := P(v).Meta()
	meta.Deleted = true
	meta.UpdatedAt = m.opts.now().UTC()
	if doc.data, err = json.Marshal(v); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	doc.deleted = true
	m.docs[id] = doc
	return nil
}

// Len counts stored documents, soft deleted ones included.
func (m *Memory[T, P]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func decode[T any](data []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return v, nil
}
