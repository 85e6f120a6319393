// Package metadata provides the key/value store the service persists operator
// settings in and reads cluster state published by the cluster agent from.
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/utils"
)

// Store is a flat string key/value store. A missing key reads as "" with a
// nil error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetPrefix(ctx context.Context, prefix string) (map[string]string, error)

	// Lifecycle
	Close() error
}

// NewStore creates the backend selected by cfg.Store.Backend
func NewStore(cfg *config.Config) (Store, error) {
	switch utils.StoreBackend(cfg.Store.Backend) {
	case utils.StoreBackendEtcd:
		return NewEtcdStore(cfg.Etcd)
	case utils.StoreBackendRedis:
		return NewRedisStore(cfg.Redis)
	case utils.StoreBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// newCache is the read-through cache shared by remote backends
func newCache(ttl time.Duration) *KVCache {
	if ttl <= 0 {
		ttl = utils.DefaultCacheTTL
	}
	return NewKVCache(ttl, clockwork.NewRealClock())
}
