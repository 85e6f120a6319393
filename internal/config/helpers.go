package config

import (
	"net"
	"path"
	"strconv"
	"strings"
)

// envKeyReplacer maps nested keys to environment names: queue.type -> QUEUE_TYPE
var envKeyReplacer = strings.NewReplacer(".", "_")

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// ScopeKey returns the metadata key under which the cluster agent publishes
// the list for scope, e.g. /clusterview/clusters/prod/nodes
func (c *ClusterConfig) ScopeKey(scope string) string {
	return path.Join(c.KeyPrefix, c.Name, scope)
}
