package config

import (
	"fmt"
	"time"

	"github.com/soltixdb/clusterview/internal/utils"
	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")                // Current directory
		v.AddConfigPath("./configs")        // Project configs directory
		v.AddConfigPath("./config")         // Alternative config directory
		v.AddConfigPath("/etc/clusterview") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. CLUSTERVIEW_QUEUE_TYPE
	v.SetEnvPrefix("CLUSTERVIEW")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	// Cluster defaults
	v.SetDefault("cluster.name", d.Cluster.Name)
	v.SetDefault("cluster.key_prefix", d.Cluster.KeyPrefix)
	v.SetDefault("cluster.fetch_timeout", d.Cluster.FetchTimeout)

	// Store defaults
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.interval_key", d.Store.IntervalKey)

	// Etcd defaults
	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout)
	v.SetDefault("etcd.cache_ttl", d.Etcd.CacheTTL)

	// Redis defaults
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.db", d.Redis.DB)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject_prefix", d.Queue.SubjectPrefix)
	v.SetDefault("queue.stream_name", d.Queue.StreamName)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.kafka_brokers", d.Queue.KafkaBrokers)

	// Refresh defaults
	v.SetDefault("refresh.interval", d.Refresh.Interval)
	v.SetDefault("refresh.settle_window", d.Refresh.SettleWindow)

	// Cache and time series defaults
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("timeseries.capacity", d.TimeSeries.Capacity)

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Cluster: ClusterConfig{
			Name:         "default",
			KeyPrefix:    "/clusterview/clusters",
			FetchTimeout: utils.DefaultFetchTimeout,
		},
		Store: StoreConfig{
			Backend:     string(utils.StoreBackendEtcd),
			IntervalKey: utils.DefaultIntervalKey,
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: utils.DefaultStoreDialTimeout,
			CacheTTL:    utils.DefaultCacheTTL,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Queue: QueueConfig{
			Type:          string(utils.QueueTypeNATS),
			URL:           "nats://localhost:4222",
			SubjectPrefix: "clusterview",
			StreamName:    "CLUSTERVIEW",
			RedisStream:   "stream",
			KafkaBrokers:  []string{"localhost:9092"},
		},
		Refresh: RefreshConfig{
			Interval:     utils.DefaultRefreshInterval,
			SettleWindow: utils.DefaultSettleWindow,
		},
		Cache: CacheConfig{
			TTL: utils.DefaultCacheTTL,
		},
		TimeSeries: TimeSeriesConfig{
			Capacity: 20,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "clusterview",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}
