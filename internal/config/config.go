package config

import (
	"fmt"
	"time"

	"github.com/soltixdb/clusterview/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Cluster    ClusterConfig    `mapstructure:"cluster"`
	Store      StoreConfig      `mapstructure:"store"`
	Etcd       EtcdConfig       `mapstructure:"etcd"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	Cache      CacheConfig      `mapstructure:"cache"`
	TimeSeries TimeSeriesConfig `mapstructure:"timeseries"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ClusterConfig identifies the managed cluster and where its state is read from
type ClusterConfig struct {
	Name         string        `mapstructure:"name"`          // Cluster name, used in keys and queue subjects
	KeyPrefix    string        `mapstructure:"key_prefix"`    // Prefix of the published node/shard/index lists
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // Timeout for one topology fetch
}

// StoreConfig selects the metadata key/value backend
type StoreConfig struct {
	Backend     string `mapstructure:"backend"`      // etcd (default), redis, memory
	IntervalKey string `mapstructure:"interval_key"` // Key holding the persisted refresh interval
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"` // Read-through cache TTL for etcd gets
}

// RedisConfig represents the redis metadata store configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig represents message queue configuration for command dispatch
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	SubjectPrefix string `mapstructure:"subject_prefix"` // Command subject prefix (default: "clusterview")
	StreamName    string `mapstructure:"stream_name"`    // JetStream stream holding commands (default: "CLUSTERVIEW")

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream key prefix (default: "stream")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// RefreshConfig configures the refresh clock
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval"`      // Fallback when nothing is persisted (default: 15s)
	SettleWindow time.Duration `mapstructure:"settle_window"` // Time spent in Refreshing after a trigger (default: 500ms)
}

// CacheConfig configures the fetch cache
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// TimeSeriesConfig configures the sample tracker
type TimeSeriesConfig struct {
	Capacity int `mapstructure:"capacity"` // Points kept per series (default: 20)
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen

	// Rotation, file output only
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Cluster.Validate(); err != nil {
		return fmt.Errorf("cluster config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	switch utils.StoreBackend(c.Store.Backend) {
	case utils.StoreBackendEtcd:
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	case utils.StoreBackendRedis:
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Refresh.Validate(); err != nil {
		return fmt.Errorf("refresh config: %w", err)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache config: cache.ttl must be positive")
	}

	if c.TimeSeries.Capacity < 1 {
		return fmt.Errorf("timeseries config: timeseries.capacity must be at least 1")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("read_timeout and write_timeout must not be negative")
	}

	return nil
}

// Validate validates cluster configuration
func (c *ClusterConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cluster.name is required")
	}

	if c.KeyPrefix == "" {
		return fmt.Errorf("cluster.key_prefix is required")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("cluster.fetch_timeout must be positive")
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch utils.StoreBackend(c.Backend) {
	case utils.StoreBackendEtcd, utils.StoreBackendRedis, utils.StoreBackendMemory:
	default:
		return fmt.Errorf("store.backend must be one of: etcd, redis, memory")
	}

	if c.IntervalKey == "" {
		return fmt.Errorf("store.interval_key is required")
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("etcd.cache_ttl must be positive")
	}

	return nil
}

// Validate validates redis configuration
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch utils.QueueType(c.Type) {
	case utils.QueueTypeNATS, utils.QueueTypeRedis, utils.QueueTypeMemory:
	case utils.QueueTypeKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.SubjectPrefix == "" {
		return fmt.Errorf("queue.subject_prefix is required")
	}

	return nil
}

// Validate validates refresh configuration
func (c *RefreshConfig) Validate() error {
	if c.Interval < 0 || c.Interval > utils.MaxRefreshInterval {
		return fmt.Errorf("refresh.interval must be between 0 and %s", utils.MaxRefreshInterval)
	}

	if c.SettleWindow <= 0 {
		return fmt.Errorf("refresh.settle_window must be positive")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation settings must not be negative")
	}

	return nil
}
