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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	// DSN is a postgres:// URL or key=value connection string.
	DSN string

	MaxConns        int32         // default 10
	MinConns        int32         // default 1
	MaxConnLifetime time.Duration // default 5m
}

func (c *PostgresConfig) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 5 * time.Minute
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted    BOOLEAN     NOT NULL DEFAULT FALSE,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_live_idx ON documents (collection, created_at, id) WHERE NOT deleted;
`

// OpenPostgres connects a pool, checks it with a ping and creates the
// documents table when missing.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err = pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return pool, nil
}

// Postgres is a [Repository] keeping one collection in the shared
// documents table, the document itself in a JSONB column.
type Postgres[T any, P Pointer[T]] struct {
	pool       *pgxpool.Pool
	collection string
	opts       options
}

// NewPostgres creates a repository for collection on a pool from
// [OpenPostgres].
func NewPostgres[T any, P Pointer[T]](pool *pgxpool.Pool, collection string, opts ...Option) *Postgres[T, P] {
	return &Postgres[T, P]{pool: pool, collection: collection, opts: newOptions(opts)}
}

func (s *Postgres[T, P]) Save(ctx context.Context, v *T) error {
	meta := P(v).Meta()
	s.opts.stamp(meta)

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at, deleted)
		 VALUES ($1, $2, $3, $4, $5, FALSE)`,
		s.collection, meta.ID, data, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *Postgres[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 AND NOT deleted`,
		s.collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return decode[T](data)
}

func (s *Postgres[T, P]) FindAll(ctx context.Context, page, limit int) (*Page[T], error) {
	if err := checkPage(page, limit); err != nil {
		return nil, err
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE collection = $1 AND NOT deleted`,
		s.collection,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND NOT deleted
		 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		s.collection, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}

	result := &Page[T]{
		Data:       make([]T, 0, len(raw)),
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages(total, limit),
	}
	for _, data := range raw {
		v, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		result.Data = append(result.Data, *v)
	}
	return result, nil
}

func (s *Postgres[T, P]) SoftDelete(ctx context.Context, id string) error {
	now := s.opts.now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET deleted = TRUE, updated_at = $3,
		     data = data || jsonb_build_object('deleted', TRUE, 'updated_at', $4::text)
		 WHERE collection = $1 AND id = $2 AND NOT deleted`,
		s.collection, id, now, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
