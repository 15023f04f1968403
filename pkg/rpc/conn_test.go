package rpc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/internal/sandbox"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
)

func dialTestNode(t *testing.T) *rpc.Conn {
	t.Helper()
	node, err := sandbox.Start(sandbox.NewLedger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { node.Close() })

	conn, err := rpc.Dial(context.Background(), node.URL())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCall(t *testing.T) {
	conn := dialTestNode(t)
	ctx := context.Background()

	var header model.Header
	require.NoError(t, conn.Call(ctx, "chain_getHeader", &header))
	require.Zero(t, header.Number)
	require.NotEmpty(t, header.Hash)

	// Discarding the result is allowed.
	require.NoError(t, conn.Call(ctx, "chain_getHeader", nil))
}

func TestCallMethodNotFound(t *testing.T) {
	conn := dialTestNode(t)

	err := conn.Call(context.Background(), "no_suchMethod", nil)
	var rpcErr *rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, rpc.CodeMethodNotFound, rpcErr.Code)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	conn := dialTestNode(t)
	ctx := context.Background()

	sub, err := conn.Subscribe(ctx, "chain_subscribeNewHeads", "chain_unsubscribeNewHeads")
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID())

	require.NoError(t, sub.Unsubscribe(ctx))
	_, open := <-sub.C
	require.False(t, open, "channel must close on unsubscribe")

	// Unsubscribing twice is a no-op.
	require.NoError(t, sub.Unsubscribe(ctx))
}

func TestCallAfterClose(t *testing.T) {
	conn := dialTestNode(t)
	require.NoError(t, conn.Close())

	err := conn.Call(context.Background(), "chain_getHeader", nil)
	require.ErrorIs(t, err, rpc.ErrConnClosed)
}
