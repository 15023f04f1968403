// Package rpc implements the JSON-RPC 2.0 websocket transport spoken by
// sunshine nodes. It multiplexes concurrent calls over one connection and
// routes server-push subscription notifications to their subscribers.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrConnClosed is returned for calls issued on a closed connection.
var ErrConnClosed = errors.New("rpc connection closed")

// notifyBuffer is the per-subscription channel depth. Slow consumers drop
// notifications rather than stall the read loop.
const notifyBuffer = 64

// Conn is a websocket JSON-RPC connection.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *response
	subs    map[string]*Subscription
	closed  bool

	done chan struct{}
}

// Dial connects to the node's websocket endpoint, e.g. "ws://127.0.0.1:9944".
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node at %s: %w", url, err)
	}

	c := &Conn{
		ws:      ws,
		pending: make(map[uint64]chan *response),
		subs:    make(map[string]*Subscription),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call performs a request and decodes the result into result. A nil result
// discards the response payload.
func (c *Conn) Call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	raw, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Conn) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	rawParams, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	ch := make(chan *response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	req := &request{JSONRPC: "2.0", ID: id, Method: method, Params: rawParams}
	if err := c.write(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send %s request: %w", method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrConnClosed
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrConnClosed
	}
}

// Subscription is a stream of server-push notifications.
type Subscription struct {
	// C delivers raw notification payloads until Unsubscribe or disconnect.
	C <-chan json.RawMessage

	conn        *Conn
	id          string
	unsubMethod string
	ch          chan json.RawMessage
	once        sync.Once
	closeOnce   sync.Once
}

func (s *Subscription) closeCh() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// ID returns the node-assigned subscription id.
func (s *Subscription) ID() string { return s.id }

// Unsubscribe tells the node to stop the stream and closes C.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		err = s.conn.Call(ctx, s.unsubMethod, nil, s.id)
		s.conn.mu.Lock()
		delete(s.conn.subs, s.id)
		s.conn.mu.Unlock()
		s.closeCh()
	})
	return err
}

// Subscribe issues subscribeMethod and routes matching notifications to the
// returned subscription until Unsubscribe is called.
func (c *Conn) Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params ...interface{}) (*Subscription, error) {
	raw, err := c.call(ctx, subscribeMethod, params)
	if err != nil {
		return nil, err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("failed to decode %s subscription id: %w", subscribeMethod, err)
	}

	ch := make(chan json.RawMessage, notifyBuffer)
	sub := &Subscription{conn: c, id: id, unsubMethod: unsubscribeMethod, ch: ch, C: ch}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return nil, ErrConnClosed
	}
	c.subs[id] = sub
	c.mu.Unlock()
	return sub, nil
}

// Close tears down the connection and fails every pending call.
func (c *Conn) Close() error {
	err := c.ws.Close()
	c.shutdown()
	return err
}

func (c *Conn) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown()
			return
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			log.Warn().Err(err).Msg("dropping malformed message from node")
			continue
		}

		switch {
		case resp.ID != nil:
			c.mu.Lock()
			ch, ok := c.pending[*resp.ID]
			delete(c.pending, *resp.ID)
			c.mu.Unlock()
			if ok {
				ch <- &resp
			}
		case resp.Params != nil:
			c.mu.Lock()
			sub, ok := c.subs[resp.Params.Subscription]
			c.mu.Unlock()
			if !ok {
				log.Debug().Msgf("notification for unknown subscription %s", resp.Params.Subscription)
				continue
			}
			select {
			case sub.ch <- resp.Params.Result:
			default:
				log.Warn().Msgf("subscription %s is not keeping up, dropping notification", sub.id)
			}
		default:
			log.Warn().Msg("dropping message that is neither response nor notification")
		}
	}
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	for id, sub := range c.subs {
		delete(c.subs, id)
		sub.closeCh()
	}
	c.mu.Unlock()
	close(c.done)
}
