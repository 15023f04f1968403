// Package client connects to a sunshine node and exposes the wallet and
// bounty service surface behind one binding client.
package client

import (
	"context"
)

// SunshineClient is a builder for the binding client.
type SunshineClient struct {
	config *Config
}

func NewSunshineClient(url string) *SunshineClient {
	return &SunshineClient{
		config: &Config{URL: url},
	}
}

// WithConfigDir roots the keystore and offchain database at dir.
func (c *SunshineClient) WithConfigDir(dir string) *SunshineClient {
	c.config.ConfigDir = dir
	return c
}

// WithInMemoryStore keeps the offchain store in memory.
func (c *SunshineClient) WithInMemoryStore() *SunshineClient {
	c.config.InMemoryStore = true
	return c
}

func (c *SunshineClient) Build(ctx context.Context) (*SunshineBindingClient, error) {
	client := NewClient(c.config)
	conn, err := client.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return NewSunshineBindingClient(c, conn)
}

func Connect(ctx context.Context, url string, opts ...ConfigOption) (*Connection, error) {
	allOpts := append([]ConfigOption{WithURL(url)}, opts...)
	config := NewConfig(allOpts...)
	client := NewClient(config)
	return client.Connect(ctx)
}
