package chain_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
	"github.com/sunshine-protocol/sunshine-go/pkg/testutil"
)

func TestMain(m *testing.M) {
	if err := testutil.Setup(context.Background()); err != nil {
		os.Exit(1)
	}
	code := m.Run()
	testutil.Teardown()
	os.Exit(code)
}

func TestRuntimeAndHeader(t *testing.T) {
	ctx := context.Background()
	cl := testutil.GetClient()

	version, err := cl.Chain.RuntimeVersion(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, version.SpecName)

	require.NoError(t, cl.ValidateRuntime(ctx, version.SpecName))
	err = cl.ValidateRuntime(ctx, "some-other-runtime")
	var mismatch *model.RuntimeMismatchError
	require.ErrorAs(t, err, &mismatch)

	header, err := cl.Chain.Header(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, header.Hash)
}

func TestSignAndSubmit(t *testing.T) {
	ctx := context.Background()
	cl := testutil.GetClient()
	charlie := testutil.DevKey("Charlie")
	alice := testutil.DevKey("Alice")

	before, err := cl.Chain.Account(ctx, charlie.AccountID())
	require.NoError(t, err)

	call, err := model.NewCall(model.ModuleBalances, "transfer",
		model.TransferArgs{To: alice.AccountID(), Amount: 10})
	require.NoError(t, err)

	result, err := cl.Chain.SignAndSubmit(ctx, charlie, call)
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)

	after, err := cl.Chain.Account(ctx, charlie.AccountID())
	require.NoError(t, err)
	require.Equal(t, before.Nonce+1, after.Nonce)
	require.Equal(t, before.Free-10, after.Free)
}

func TestModuleErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	cl := testutil.GetClient()
	charlie := testutil.DevKey("Charlie")

	call, err := model.NewCall(model.ModuleBounty, "contribute_to_bounty",
		model.ContributeToBountyArgs{BountyID: 424242, Amount: 10})
	require.NoError(t, err)

	_, err = cl.Chain.SignAndSubmit(ctx, charlie, call)
	var rpcErr *rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, rpc.CodeModuleError, rpcErr.Code)
	require.Contains(t, rpcErr.Message, "BountyDNE")
}

func TestSubscribeHeads(t *testing.T) {
	ctx := context.Background()
	cl := testutil.GetClient()
	charlie := testutil.DevKey("Charlie")
	alice := testutil.DevKey("Alice")

	sub, err := cl.Chain.SubscribeHeads(ctx)
	require.NoError(t, err)
	defer sub.Unsubscribe(ctx)

	call, err := model.NewCall(model.ModuleBalances, "transfer",
		model.TransferArgs{To: alice.AccountID(), Amount: 1})
	require.NoError(t, err)
	result, err := cl.Chain.SignAndSubmit(ctx, charlie, call)
	require.NoError(t, err)

	select {
	case header := <-sub.C:
		require.Equal(t, result.Block.Number, header.Number)
		require.Equal(t, result.Block.Hash, header.Hash)
	case <-time.After(5 * time.Second):
		t.Fatal("no head notification within deadline")
	}
}

// A consumer that stops draining C must not pin the relay goroutine forever
// once it unsubscribes.
func TestSubscribeHeadsAbandonedConsumer(t *testing.T) {
	ctx := context.Background()
	cl := testutil.GetClient()
	charlie := testutil.DevKey("Charlie")
	alice := testutil.DevKey("Alice")

	before := runtime.NumGoroutine()

	sub, err := cl.Chain.SubscribeHeads(ctx)
	require.NoError(t, err)

	// Land two blocks without ever reading from sub.C, parking the relay on
	// its send.
	for i := 0; i < 2; i++ {
		call, err := model.NewCall(model.ModuleBalances, "transfer",
			model.TransferArgs{To: alice.AccountID(), Amount: 1})
		require.NoError(t, err)
		_, err = cl.Chain.SignAndSubmit(ctx, charlie, call)
		require.NoError(t, err)
	}

	require.NoError(t, sub.Unsubscribe(ctx))

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 5*time.Second, 10*time.Millisecond, "relay goroutine did not exit after unsubscribe")
}
