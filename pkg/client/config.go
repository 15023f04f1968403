package client

import "path/filepath"

// Config holds everything needed to stand up a client: the node endpoint and
// the on-disk layout under the config directory.
type Config struct {
	// URL is the node's websocket endpoint, e.g. "ws://127.0.0.1:9944".
	URL string
	// ConfigDir roots the keystore and offchain database. Empty means the
	// offchain store stays in memory and no device key can be persisted;
	// keystore writes fail rather than landing in the working directory.
	ConfigDir string
	// InMemoryStore keeps the offchain store in memory even when ConfigDir
	// is set.
	InMemoryStore bool
}

// KeystoreDir returns the directory the device key lives in, or "" when no
// ConfigDir is set. A dir-less keystore refuses to persist a key.
func (c *Config) KeystoreDir() string {
	if c.ConfigDir == "" {
		return ""
	}
	return filepath.Join(c.ConfigDir, "keystore")
}

// OffchainDir returns the offchain database path, or "" for an in-memory
// store.
func (c *Config) OffchainDir() string {
	if c.ConfigDir == "" || c.InMemoryStore {
		return ""
	}
	return filepath.Join(c.ConfigDir, "db")
}

type ConfigOption func(*Config)

func WithURL(url string) ConfigOption {
	return func(c *Config) {
		c.URL = url
	}
}

func WithConfigDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ConfigDir = dir
	}
}

func WithInMemoryStore() ConfigOption {
	return func(c *Config) {
		c.InMemoryStore = true
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
