// Package ffi is the string-bridge surface consumed by mobile and desktop
// embedders. Everything crosses the boundary as plain strings: ids and
// amounts come in as decimal text and are parsed here, scalar answers go out
// as decimal text, structured answers as JSON, and empty listings as "".
// Handles are cheap views over one shared binding client and are safe for
// concurrent use.
package ffi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sunshine-protocol/sunshine-go/pkg/client"
)

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("client is closed")

// FFI owns the binding client and hands out the per-area handles.
type FFI struct {
	mu     sync.RWMutex
	client *client.SunshineBindingClient

	Key    *Key
	Wallet *Wallet
	Bounty *Bounty
}

// New connects to the node at url and roots the keystore and offchain
// database under configDir.
func New(ctx context.Context, url, configDir string) (*FFI, error) {
	cl, err := client.NewSunshineClient(url).
		WithConfigDir(configDir).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(cl), nil
}

// Wrap adopts an already-built binding client. Used by tests and embedders
// that manage the client themselves.
func Wrap(cl *client.SunshineBindingClient) *FFI {
	return wrap(cl)
}

func wrap(cl *client.SunshineBindingClient) *FFI {
	f := &FFI{client: cl}
	f.Key = &Key{ffi: f}
	f.Wallet = &Wallet{ffi: f}
	f.Bounty = &Bounty{ffi: f}
	return f
}

// acquire pins the binding client for the duration of one bridge call. The
// caller must invoke release when done; Close waits for in-flight calls.
func (f *FFI) acquire() (*client.SunshineBindingClient, func(), error) {
	f.mu.RLock()
	if f.client == nil {
		f.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return f.client, f.mu.RUnlock, nil
}

// Close tears down the connection and local stores.
func (f *FFI) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		f.client.Close()
		f.client = nil
	}
}

// parseID decodes a decimal id string crossing the bridge.
func parseID(s, what string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", what, s, err)
	}
	return id, nil
}

// parseAmount decodes a balance amount crossing the bridge. Amounts are
// decimal strings and must be whole non-negative numbers.
func parseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	if d.Sign() < 0 || !d.IsInteger() {
		return 0, fmt.Errorf("bad amount %q: must be a whole non-negative number", s)
	}
	n := d.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("bad amount %q: out of range", s)
	}
	return n.Uint64(), nil
}
