package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// DispatchTimeout bounds publishing a single command to the queue
	DispatchTimeout = 10 * time.Second

	// PersistTimeout bounds writes of operator settings to the metadata store
	PersistTimeout = 5 * time.Second
)

// Collaborator Timeouts
const (
	// DefaultFetchTimeout bounds one topology fetch
	DefaultFetchTimeout = 10 * time.Second

	// DefaultStoreDialTimeout is the timeout for connecting to the metadata store
	DefaultStoreDialTimeout = 5 * time.Second

	// DefaultCacheTTL is how long fetched payloads stay cached between refreshes
	DefaultCacheTTL = 30 * time.Second

	// CacheCleanupInterval is how often expired cache entries are swept
	CacheCleanupInterval = time.Minute
)

// =============================================================================
// Refresh Constants
// =============================================================================

const (
	// DefaultRefreshInterval is used when no interval has been persisted
	DefaultRefreshInterval = 15 * time.Second

	// DefaultSettleWindow is how long the refresh clock reports Refreshing
	DefaultSettleWindow = 500 * time.Millisecond

	// MaxRefreshInterval caps operator-selected intervals
	MaxRefreshInterval = time.Hour

	// DefaultIntervalKey is the metadata key holding the selected interval
	DefaultIntervalKey = "/clusterview/settings/refresh_interval_ms"
)

// =============================================================================
// Fetch Scope Constants
// =============================================================================

// Cache scopes, one per fetched list
const (
	ScopeNodes   = "nodes"
	ScopeShards  = "shards"
	ScopeIndices = "indices"
)

// Scopes lists every fetch scope
var Scopes = []string{ScopeNodes, ScopeShards, ScopeIndices}

// IsScope reports whether s names a fetch scope
func IsScope(s string) bool {
	for _, scope := range Scopes {
		if scope == s {
			return true
		}
	}
	return false
}

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// =============================================================================
// Store Backend Constants
// =============================================================================

// StoreBackend selects the metadata key/value store
type StoreBackend string

const (
	StoreBackendEtcd   StoreBackend = "etcd"
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)
