// Package config provides configuration management for the inventory-dashboard.
package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the default API server port.
	DefaultPort = 8080

	// DefaultNetBoxTimeout bounds one NetBox GraphQL request.
	DefaultNetBoxTimeout = 30 * time.Second

	// DefaultTopologyTTL is how long a built topology is served before a rebuild.
	DefaultTopologyTTL = 30 * time.Second

	// DefaultTopologyRefreshTimeout bounds one full fetch-and-build.
	DefaultTopologyRefreshTimeout = time.Minute

	// DefaultFilterCacheSize is the number of compiled device filters kept.
	DefaultFilterCacheSize = 256

	// DefaultMaxQueryLength bounds the raw query string of API requests.
	DefaultMaxQueryLength = 4096

	// DefaultGRPCMaxMessageSize is the default max message size for gRPC (4MB).
	DefaultGRPCMaxMessageSize int = 4 << 20 // 4194304 bytes
)

var (
	// ErrNoInventorySource is returned when neither NetBox nor an inventory file is configured.
	ErrNoInventorySource = errors.New("one of NETBOX_ENDPOINT or INVENTORY_FILE must be set")

	// ErrInvalidPort is returned when a port is outside 1-65535.
	ErrInvalidPort = errors.New("port must be between 1 and 65535")
)

// Config holds the application configuration.
type Config struct {
	// Port is the HTTP API server port.
	Port int

	// MgmtPort serves /health and /metrics.
	MgmtPort int

	// GRPCPort serves the gRPC health service.
	GRPCPort int

	// BindAddress is the address all servers listen on.
	BindAddress string

	NetBoxEndpoint string
	NetBoxToken    string
	NetBoxTimeout  time.Duration

	// InventoryFile replaces NetBox with a YAML or JSON inventory file.
	InventoryFile string

	TopologyTTL            time.Duration
	TopologyRefreshTimeout time.Duration

	// RouterOSTag is the device type tag slug marking RouterOS capable models.
	RouterOSTag string

	FilterCacheSize int

	// MaxQueryLength is the longest accepted raw query string, filters included.
	MaxQueryLength int

	LogLevel  string
	LogPretty bool

	AuthClientID string
	AuthIssuer   string
	AuthTokenURL string
	AuthURL      string

	// GRPCMaxMessageSize is the maximum message size for gRPC in bytes.
	GRPCMaxMessageSize int
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	port := getEnvIntOrDefault("PORT", DefaultPort)

	cfg := &Config{
		Port:                   port,
		MgmtPort:               getEnvIntOrDefault("MGMT_PORT", port+1000),
		GRPCPort:               getEnvIntOrDefault("GRPC_PORT", port+2000),
		BindAddress:            getEnvOrDefault("BIND_ADDRESS", "::"),
		NetBoxEndpoint:         os.Getenv("NETBOX_ENDPOINT"),
		NetBoxToken:            os.Getenv("NETBOX_TOKEN"),
		NetBoxTimeout:          getEnvDurationOrDefault("NETBOX_TIMEOUT", DefaultNetBoxTimeout),
		InventoryFile:          os.Getenv("INVENTORY_FILE"),
		TopologyTTL:            getEnvDurationOrDefault("TOPOLOGY_TTL", DefaultTopologyTTL),
		TopologyRefreshTimeout: getEnvDurationOrDefault("TOPOLOGY_REFRESH_TIMEOUT", DefaultTopologyRefreshTimeout),
		RouterOSTag:            getEnvOrDefault("ROUTEROS_TAG", "routeros"),
		FilterCacheSize:        getEnvIntOrDefault("FILTER_CACHE_SIZE", DefaultFilterCacheSize),
		MaxQueryLength:         getEnvIntOrDefault("MAX_QUERY_LENGTH", DefaultMaxQueryLength),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:              getEnvBoolOrDefault("LOG_PRETTY", false),
		AuthClientID:           os.Getenv("AUTH_CLIENT_ID"),
		AuthIssuer:             strings.TrimSuffix(os.Getenv("AUTH_ISSUER"), "/"),
		AuthTokenURL:           os.Getenv("AUTH_TOKEN_URL"),
		AuthURL:                os.Getenv("AUTH_URL"),
		GRPCMaxMessageSize:     getEnvIntOrDefault("GRPC_MAX_MESSAGE_SIZE", DefaultGRPCMaxMessageSize),
	}

	if cfg.AuthIssuer != "" {
		if cfg.AuthTokenURL == "" {
			cfg.AuthTokenURL = cfg.AuthIssuer + "/protocol/openid-connect/token"
		}
		if cfg.AuthURL == "" {
			cfg.AuthURL = cfg.AuthIssuer + "/protocol/openid-connect/auth"
		}
	}

	return cfg
}

// Validate checks that the configuration can start the service.
func (c *Config) Validate() error {
	if c.NetBoxEndpoint == "" && c.InventoryFile == "" {
		return ErrNoInventorySource
	}
	for _, p := range []int{c.Port, c.MgmtPort, c.GRPCPort} {
		if p < 1 || p > 65535 {
			return ErrInvalidPort
		}
	}
	return nil
}

// APIAddr is the listen address of the API server.
func (c *Config) APIAddr() string { return c.addr(c.Port) }

// MgmtAddr is the listen address of the management server.
func (c *Config) MgmtAddr() string { return c.addr(c.MgmtPort) }

// GRPCAddr is the listen address of the gRPC health server.
func (c *Config) GRPCAddr() string { return c.addr(c.GRPCPort) }

func (c *Config) addr(port int) string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(port))
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable value as int or the default if not set or invalid.
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("45s") and bare seconds ("45").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
