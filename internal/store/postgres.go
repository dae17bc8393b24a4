package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/config"
)

const documentsDDL = `
CREATE TABLE IF NOT EXISTS documents (
    path        TEXT PRIMARY KEY,
    doc         JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres backs the document store with a single JSONB table keyed by
// path.
type Postgres struct {
	pool      *pgxpool.Pool
	opTimeout time.Duration
}

// NewPostgres establishes a connection pool and ensures the documents
// table exists.
func NewPostgres(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresMaxConns > 0 {
		poolCfg.MaxConns = cfg.PostgresMaxConns
	}
	if cfg.PostgresMinConns > 0 {
		poolCfg.MinConns = cfg.PostgresMinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, documentsDDL); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres document store")
	return &Postgres{pool: pool, opTimeout: cfg.OpTimeout()}, nil
}

// Put inserts or replaces the document at path.
func (p *Postgres) Put(ctx context.Context, path string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return wrapErr("store put", err)
	}
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()

	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (path, doc, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		path, doc)
	return wrapErr("store put", err)
}

// PutIfAbsent inserts the document at path unless one already exists,
// relying on the primary key for atomicity.
func (p *Postgres) PutIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	doc, err := json.Marshal(value)
	if err != nil {
		return false, wrapErr("store put", err)
	}
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO documents (path, doc, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (path) DO NOTHING`,
		path, doc)
	if err != nil {
		return false, wrapErr("store put", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get fetches the document at path into out.
func (p *Postgres) Get(ctx context.Context, path string, out any) error {
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()

	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM documents WHERE path = $1`, path).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return wrapErr("store get", err)
	}
	return wrapErr("store get", json.Unmarshal(doc, out))
}

// Delete removes the document at path. Deleting a missing path is not
// an error.
func (p *Postgres) Delete(ctx context.Context, path string) error {
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path)
	return wrapErr("store delete", err)
}

// List decodes documents directly under prefix into out.
func (p *Postgres) List(ctx context.Context, prefix string, out any) error {
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT doc FROM documents WHERE path LIKE $1 ORDER BY path`, prefix+"/%")
	if err != nil {
		return wrapErr("store list", err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return wrapErr("store list", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return wrapErr("store list", err)
	}
	return decodeList(docs, out)
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := boundCtx(ctx, p.opTimeout)
	defer cancel()
	return wrapErr("store ping", p.pool.Ping(ctx))
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// decodeList re-marshals collected raw documents into the caller's
// slice in one pass.
func decodeList(docs []json.RawMessage, out any) error {
	joined, err := json.Marshal(docs)
	if err != nil {
		return wrapErr("store list", err)
	}
	return wrapErr("store list", json.Unmarshal(joined, out))
}
