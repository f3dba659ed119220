package api

import (
	"context"
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/storage"
)

const (
	auditKeyPrefix = "audit/"
	// maxPersistedAudit bounds the persisted trail; the oldest entries are
	// deleted past it.
	maxPersistedAudit = 1000
)

// auditStore persists audit entries as JSON. Keys are ULIDs stamped with the
// entry time, so a sorted prefix listing comes back oldest first.
type auditStore struct {
	store storage.Store

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newAuditStore(store storage.Store) *auditStore {
	return &auditStore{
		store:   store,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *auditStore) key(e erp.AuditLog) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return auditKeyPrefix + ulid.MustNew(ulid.Timestamp(e.At), s.entropy).String()
}

func (s *auditStore) append(ctx context.Context, e erp.AuditLog) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.key(e), string(data)); err != nil {
		return err
	}
	return s.prune(ctx)
}

func (s *auditStore) prune(ctx context.Context) error {
	keys, err := s.store.List(ctx, auditKeyPrefix)
	if err != nil {
		return err
	}
	excess := len(keys) - maxPersistedAudit
	if excess <= 0 {
		return nil
	}
	sort.Strings(keys)
	return s.store.Batch(ctx, func(tx storage.BatchTx) error {
		for _, k := range keys[:excess] {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// list returns the persisted entries oldest first. Entries that no longer
// decode are skipped.
func (s *auditStore) list(ctx context.Context) ([]erp.AuditLog, error) {
	keys, err := s.store.List(ctx, auditKeyPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	entries := make([]erp.AuditLog, 0, len(keys))
	for _, k := range keys {
		raw, err := s.store.Get(ctx, k)
		if err != nil {
			if storage.IgnoreNotFound(err) == nil {
				continue
			}
			return nil, err
		}
		var e erp.AuditLog
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RestoreAudit loads the persisted audit trail into the catalog. It returns
// the number of entries restored.
func (a *API) RestoreAudit(ctx context.Context) (int, error) {
	if a.auditStore == nil {
		return 0, nil
	}
	entries, err := a.auditStore.list(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading audit trail: %w", err)
	}
	for _, e := range entries {
		a.catalog.RecordAudit(e)
	}
	return len(entries), nil
}
