package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/clusterview/internal/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdStore implements Store using etcd with a read-through cache on Get
type EtcdStore struct {
	client *clientv3.Client
	cache  *KVCache
}

// NewEtcdStore creates a new etcd-backed store
func NewEtcdStore(cfg config.EtcdConfig) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return NewEtcdStoreWithClient(client, cfg.CacheTTL), nil
}

// NewEtcdStoreWithClient wraps an existing client
func NewEtcdStoreWithClient(client *clientv3.Client, cacheTTL time.Duration) *EtcdStore {
	return &EtcdStore{
		client: client,
		cache:  newCache(cacheTTL),
	}
}

// Get retrieves a value, serving from cache when possible. Missing keys read
// as "".
func (s *EtcdStore) Get(ctx context.Context, key string) (string, error) {
	return s.cache.Load(ctx, key, func(ctx context.Context) (string, error) {
		resp, err := s.client.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to get key: %w", err)
		}
		if len(resp.Kvs) == 0 {
			return "", nil
		}
		return string(resp.Kvs[0].Value), nil
	})
}

// Put stores a key-value pair
func (s *EtcdStore) Put(ctx context.Context, key, value string) error {
	if _, err := s.client.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	s.cache.Set(key, value)
	return nil
}

// Delete removes a key from etcd
func (s *EtcdStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	s.cache.Delete(key)
	return nil
}

// GetPrefix retrieves all keys with a given prefix. Prefix reads bypass the
// cache.
func (s *EtcdStore) GetPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get prefix: %w", err)
	}

	result := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		result[string(kv.Key)] = string(kv.Value)
	}

	return result, nil
}

// Close stops the cache and closes the client
func (s *EtcdStore) Close() error {
	s.cache.Stop()
	return s.client.Close()
}
