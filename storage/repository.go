// Package storage provides the durable key/value abstraction used to persist
// client-side state such as the current session.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("stored value corrupt")
)

// BatchTx provides Put and Delete within an atomic transaction.
type BatchTx interface {
	Put(key, value string) error
	Delete(key string) error
}

// Store defines a durable string key/value store.
//
// Delete of a missing key returns ErrNotFound. Batch applies every write made
// through tx or none of them.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Batch(ctx context.Context, fn func(tx BatchTx) error) error
}

// IgnoreNotFound returns nil for ErrNotFound and err otherwise.
func IgnoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
