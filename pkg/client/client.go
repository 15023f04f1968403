package client

import (
	"context"
	"fmt"

	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
)

type Client struct {
	config *Config
	conn   *rpc.Conn
}

func NewClient(config *Config) *Client {
	return &Client{
		config: config,
	}
}

func (c *Client) Connect(ctx context.Context) (*Connection, error) {
	conn, err := rpc.Dial(ctx, c.config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sunshine node: %w", err)
	}
	c.conn = conn
	return NewConnection(c, conn), nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type Connection struct {
	client *Client
	conn   *rpc.Conn
}

func NewConnection(client *Client, conn *rpc.Conn) *Connection {
	return &Connection{
		client: client,
		conn:   conn,
	}
}

func (c *Connection) RPCConn() *rpc.Conn {
	return c.conn
}
