// Package postgres implements storage.Store backed by PostgreSQL.
//
// Entries live in a single kv_entries table keyed by (namespace, key), so
// several desks or tenants can share one database without colliding.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/erpdesk/storage"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "erpdesk"

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	namespace string
}

var _ storage.Store = (*Store)(nil)

// New returns a Store backed by the given pgx connection pool.
func New(pool *pgxpool.Pool, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{pool: pool, namespace: namespace}
}

// NewFromDSN creates a connection pool from a DSN string, ensures the schema
// exists, and returns a new Store.
func NewFromDSN(ctx context.Context, dsn, namespace string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return New(pool, namespace), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`,
		s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	return upsert(ctx, s.pool, s.namespace, key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return deleteKey(ctx, s.pool, s.namespace, key)
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM kv_entries WHERE namespace = $1 AND key LIKE $2 ORDER BY key`,
		s.namespace, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Batch(ctx context.Context, fn func(tx storage.BatchTx) error) error {
	pgTx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer pgTx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgBatchTx{ctx: ctx, tx: pgTx, namespace: s.namespace}); err != nil {
		return err
	}
	return pgTx.Commit(ctx)
}

// ---------------------------------------------------------------------------
// BatchTx implementation
// ---------------------------------------------------------------------------

type pgBatchTx struct {
	ctx       context.Context
	tx        pgx.Tx
	namespace string
}

var _ storage.BatchTx = (*pgBatchTx)(nil)

func (btx *pgBatchTx) Put(key, value string) error {
	return upsert(btx.ctx, btx.tx, btx.namespace, key, value)
}

func (btx *pgBatchTx) Delete(key string) error {
	return deleteKey(btx.ctx, btx.tx, btx.namespace, key)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// execer abstracts both *pgxpool.Pool and pgx.Tx for shared statements.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsert(ctx context.Context, q execer, namespace, key, value string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO kv_entries (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = $3, updated_at = now()`,
		namespace, key, value)
	return err
}

func deleteKey(ctx context.Context, q execer, namespace, key string) error {
	tag, err := q.Exec(ctx,
		`DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`,
		namespace, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return nil
}

// escapeLike escapes LIKE metacharacters so prefix matches are literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
