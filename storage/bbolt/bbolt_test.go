package bbolt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/erpdesk/storage"
)

func newTestDB(t *testing.T) (*bbolt.DB, func()) {
	t.Helper()
	f, err := os.CreateTemp("", "erpdesk-test-*.db")
	if err != nil {
		t.Fatalf("could not create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		os.Remove(path)
		t.Fatalf("could not open db: %v", err)
	}
	return db, func() {
		db.Close()
		os.Remove(path)
	}
}

func TestBBoltStore(t *testing.T) {
	db, cleanup := newTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := New(db, "")

	t.Run("GetBeforeBucketExists", func(t *testing.T) {
		_, err := s.Get(ctx, "session.identity")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put(ctx, "session.identity", `{"id":"7"}`); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(ctx, "session.identity")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != `{"id":"7"}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("List", func(t *testing.T) {
		s.Put(ctx, "session.last_activity", "1")
		s.Put(ctx, "unrelated", "1")
		keys, err := s.List(ctx, "session.")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("expected 2 keys, got %d: %v", len(keys), keys)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(ctx, "unrelated"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, "unrelated"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("BatchRollback", func(t *testing.T) {
		err := s.Batch(ctx, func(tx storage.BatchTx) error {
			tx.Put("session.identity", "changed")
			return errors.New("simulated error")
		})
		if err == nil {
			t.Fatal("expected error from Batch")
		}
		got, _ := s.Get(ctx, "session.identity")
		if got != `{"id":"7"}` {
			t.Errorf("expected rollback, got %q", got)
		}
	})

	t.Run("BatchDeleteBoth", func(t *testing.T) {
		err := s.Batch(ctx, func(tx storage.BatchTx) error {
			if err := tx.Delete("session.identity"); err != nil {
				return err
			}
			return tx.Delete("session.last_activity")
		})
		if err != nil {
			t.Fatalf("Batch failed: %v", err)
		}
		keys, _ := s.List(ctx, "session.")
		if len(keys) != 0 {
			t.Errorf("expected no session keys, got %v", keys)
		}
	})
}

func TestNewFromFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s1, err := NewFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	if err := s1.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s1.Close()

	s2, err := NewFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewFromFile (reopen): %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("expected persisted value, got %q, %v", got, err)
	}
}
