// Package redis provides a Redis-backed storage.Store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jmcleod/erpdesk/storage"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "erpdesk:"

const scanBatchSize = 500

// Store implements storage.Store on top of a go-redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New returns a Store using client. An empty prefix selects DefaultPrefix.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// NewFromURL parses a redis:// or rediss:// URL, verifies connectivity with
// PING and returns a Store.
func NewFromURL(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return New(client, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return v, err
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix+prefix)+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	return keys, iter.Err()
}

// Batch collects the writes made by fn and applies them in one MULTI/EXEC.
// Keys deleted in the batch are WATCHed so a concurrent removal surfaces as
// ErrNotFound instead of a silent no-op.
func (s *Store) Batch(ctx context.Context, fn func(tx storage.BatchTx) error) error {
	btx := &redisBatchTx{}
	if err := fn(btx); err != nil {
		return err
	}
	if len(btx.ops) == 0 {
		return nil
	}

	var watched []string
	for _, op := range btx.ops {
		if op.delete {
			watched = append(watched, s.prefix+op.key)
		}
	}

	apply := func(tx *goredis.Tx) error {
		for _, k := range watched {
			n, err := tx.Exists(ctx, k).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%s: %w", strings.TrimPrefix(k, s.prefix), storage.ErrNotFound)
			}
		}
		_, err := tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			for _, op := range btx.ops {
				if op.delete {
					p.Del(ctx, s.prefix+op.key)
				} else {
					p.Set(ctx, s.prefix+op.key, op.value, 0)
				}
			}
			return nil
		})
		return err
	}
	return s.client.Watch(ctx, apply, watched...)
}

type batchOp struct {
	key    string
	value  string
	delete bool
}

type redisBatchTx struct {
	ops []batchOp
}

func (tx *redisBatchTx) Put(key, value string) error {
	tx.ops = append(tx.ops, batchOp{key: key, value: value})
	return nil
}

func (tx *redisBatchTx) Delete(key string) error {
	tx.ops = append(tx.ops, batchOp{key: key, delete: true})
	return nil
}

// escapeGlob escapes the glob metacharacters understood by SCAN MATCH.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
