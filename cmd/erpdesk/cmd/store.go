package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/erpdesk/internal/config"
	"github.com/jmcleod/erpdesk/storage"
	bboltstore "github.com/jmcleod/erpdesk/storage/bbolt"
	"github.com/jmcleod/erpdesk/storage/memory"
	"github.com/jmcleod/erpdesk/storage/postgres"
	redisstore "github.com/jmcleod/erpdesk/storage/redis"
)

// Store namespaces. The CLI session and the server keep separate data so
// both can run against the same backend at once.
const (
	nsSession = "session"
	nsServer  = "server"
)

// openStore opens the configured backend under namespace, sealed when a seed
// is configured. The returned func releases it.
func openStore(ctx context.Context, sc config.StoreConfig, namespace string) (storage.Store, func(), error) {
	var (
		inner   storage.Store
		closeFn = func() {}
	)
	switch sc.Backend {
	case config.BackendMemory:
		inner = memory.New()
	case config.BackendBbolt:
		if err := os.MkdirAll(sc.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		s, err := bboltstore.NewFromFile(filepath.Join(sc.DataDir, namespace+".db"), &bbolt.Options{Timeout: 2 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		inner, closeFn = s, func() { s.Close() }
	case config.BackendPostgres:
		s, err := postgres.NewFromDSN(ctx, sc.PostgresDSN, postgres.DefaultNamespace+"/"+namespace)
		if err != nil {
			return nil, nil, err
		}
		inner, closeFn = s, s.Close
	case config.BackendRedis:
		s, err := redisstore.NewFromURL(ctx, sc.RedisURL, redisstore.DefaultPrefix+namespace+":")
		if err != nil {
			return nil, nil, err
		}
		inner, closeFn = s, func() { s.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}

	seed, err := sc.Seed()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	sealed, err := storage.NewSealed(inner, seed)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sealed, closeFn, nil
}
