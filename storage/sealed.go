package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/erpdesk/internal/util"
)

const (
	sealedPrefix = "aes256gcm:"
	sealInfo     = "erpdesk/storage/seal/v1"
	sealAADTag   = "SEALED"
)

// Sealed wraps a Store and encrypts every value with AES-256-GCM, binding the
// entry key into the associated data so ciphertexts cannot be swapped
// between keys.
// The sealing key is held in a memguard Enclave and only opened per call.
type Sealed struct {
	inner Store
	key   *memguard.Enclave
}

var _ Store = (*Sealed)(nil)

// NewSealed derives the sealing key from seed with HKDF. An empty seed
// returns inner unchanged.
func NewSealed(inner Store, seed []byte) (Store, error) {
	if len(seed) == 0 {
		return inner, nil
	}
	k, err := util.HKDF(seed, nil, []byte(sealInfo))
	if err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}
	// NewEnclave wipes k.
	return &Sealed{inner: inner, key: memguard.NewEnclave(k)}, nil
}

func (s *Sealed) seal(key, value string) (string, error) {
	buf, err := s.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening seal key: %w", err)
	}
	defer buf.Destroy()

	ct, err := util.SealAESGCM([]byte(value), buf.Bytes(), util.AAD(sealAADTag, key))
	if err != nil {
		return "", err
	}
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(ct), nil
}

func (s *Sealed) open(key, stored string) (string, error) {
	enc, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return "", fmt.Errorf("%s: not sealed: %w", key, ErrCorrupt)
	}
	ct, err := base64.RawStdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, ErrCorrupt)
	}

	buf, err := s.key.Open()
	if err != nil {
		return "", fmt.Errorf("opening seal key: %w", err)
	}
	defer buf.Destroy()

	pt, err := util.OpenAESGCM(ct, buf.Bytes(), util.AAD(sealAADTag, key))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", key, ErrCorrupt, err)
	}
	defer util.WipeBytes(pt)
	return string(pt), nil
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	stored, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.open(key, stored)
}

func (s *Sealed) Put(ctx context.Context, key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *Sealed) Batch(ctx context.Context, fn func(tx BatchTx) error) error {
	return s.inner.Batch(ctx, func(tx BatchTx) error {
		return fn(&sealedBatchTx{s: s, tx: tx})
	})
}

type sealedBatchTx struct {
	s  *Sealed
	tx BatchTx
}

func (b *sealedBatchTx) Put(key, value string) error {
	sealed, err := b.s.seal(key, value)
	if err != nil {
		return err
	}
	return b.tx.Put(key, sealed)
}

func (b *sealedBatchTx) Delete(key string) error {
	return b.tx.Delete(key)
}
