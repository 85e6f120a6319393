package fetch

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metadata"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/utils"
)

// ClusterData is one raw fetch result
type ClusterData struct {
	Nodes   []models.NodeRecord
	Shards  []models.ShardRecord
	Indices []models.IndexSummary
}

// Source fetches the current cluster state
type Source interface {
	Fetch(ctx context.Context) (*ClusterData, error)
}

// MetadataSource reads the cluster agent's payloads from the metadata store.
// Raw payloads are cached per scope until invalidated or expired.
type MetadataSource struct {
	store   metadata.Store
	cluster config.ClusterConfig
	cache   *metadata.KVCache
	logger  *logging.Logger
}

// NewMetadataSource creates a source for the configured cluster
func NewMetadataSource(store metadata.Store, cluster config.ClusterConfig, cacheCfg config.CacheConfig, clock clockwork.Clock, logger *logging.Logger) *MetadataSource {
	if logger == nil {
		logger = logging.NewNop()
	}
	ttl := cacheCfg.TTL
	if ttl <= 0 {
		ttl = utils.DefaultCacheTTL
	}
	return &MetadataSource{
		store:   store,
		cluster: cluster,
		cache:   metadata.NewKVCache(ttl, clock),
		logger:  logger.With("component", "fetch", "cluster", cluster.Name),
	}
}

// Fetch reads and decodes the nodes, shards and indices payloads
func (s *MetadataSource) Fetch(ctx context.Context) (*ClusterData, error) {
	if s.cluster.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cluster.FetchTimeout)
		defer cancel()
	}

	raw := make(map[string][]byte, len(utils.Scopes))
	for _, scope := range utils.Scopes {
		payload, err := s.read(ctx, scope)
		if err != nil {
			return nil, err
		}
		raw[scope] = payload
	}

	nodes, err := DecodeNodes(raw[utils.ScopeNodes])
	if err != nil {
		s.cache.Delete(utils.ScopeNodes)
		return nil, err
	}
	shards, err := DecodeShards(raw[utils.ScopeShards])
	if err != nil {
		s.cache.Delete(utils.ScopeShards)
		return nil, err
	}
	indices, err := DecodeIndices(raw[utils.ScopeIndices])
	if err != nil {
		s.cache.Delete(utils.ScopeIndices)
		return nil, err
	}

	s.logger.Debug("Fetched cluster state",
		"nodes", len(nodes),
		"shards", len(shards),
		"indices", len(indices))

	return &ClusterData{Nodes: nodes, Shards: shards, Indices: indices}, nil
}

func (s *MetadataSource) read(ctx context.Context, scope string) ([]byte, error) {
	value, err := s.cache.Load(ctx, scope, func(ctx context.Context) (string, error) {
		key := s.cluster.ScopeKey(scope)
		v, err := s.store.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", key, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Invalidate drops the cached payload for scope
func (s *MetadataSource) Invalidate(scope string) {
	s.cache.Delete(scope)
}

// InvalidateAll drops every cached payload
func (s *MetadataSource) InvalidateAll() {
	s.cache.Clear()
}

// Close stops the payload cache
func (s *MetadataSource) Close() {
	s.cache.Stop()
}
