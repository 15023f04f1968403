package ffi_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/client"
	"github.com/sunshine-protocol/sunshine-go/pkg/ffi"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
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

// newFFI builds a bridge with its own keystore, signing as the given dev
// account.
func newFFI(t *testing.T, dev string) *ffi.FFI {
	t.Helper()
	cl, err := client.NewSunshineClient(testutil.GetNodeURL()).
		WithConfigDir(t.TempDir()).
		WithInMemoryStore().
		Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(cl.Close)

	f := ffi.Wrap(cl)
	if dev != "" {
		_, err = f.Key.Set("test password", "//"+dev, "", false)
		require.NoError(t, err)
	}
	return f
}

func TestKeyAndWallet(t *testing.T) {
	ctx := context.Background()
	f := newFFI(t, "")

	exists, err := f.Key.Exists()
	require.NoError(t, err)
	require.False(t, exists)

	uid, err := f.Key.Set("test password", "//Alice", "", false)
	require.NoError(t, err)
	require.Equal(t, testutil.DevKey("Alice").AccountID(), uid)

	// A second Set without force must refuse to overwrite.
	_, err = f.Key.Set("test password", "//Bob", "", false)
	require.ErrorIs(t, err, model.ErrKeystoreExists)

	exists, err = f.Key.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, f.Key.Lock())
	_, err = f.Wallet.Transfer(ctx, testutil.DevKey("Bob").AccountID(), "1000")
	require.ErrorIs(t, err, model.ErrKeystoreLocked)

	// UID stays readable while locked.
	got, err := f.Key.UID()
	require.NoError(t, err)
	require.Equal(t, uid, got)

	require.ErrorIs(t, f.Key.Unlock("not the password"), model.ErrWrongPassword)
	require.NoError(t, f.Key.Unlock("test password"))

	before, err := f.Wallet.Balance(ctx, "")
	require.NoError(t, err)

	after, err := f.Wallet.Transfer(ctx, testutil.DevKey("Bob").AccountID(), "1000")
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	bobBalance, err := f.Wallet.Balance(ctx, testutil.DevKey("Bob").AccountID())
	require.NoError(t, err)
	require.NotEmpty(t, bobBalance)
}

func TestBountyFlow(t *testing.T) {
	ctx := context.Background()
	f := newFFI(t, "Bob")

	id, err := f.Bounty.Post(ctx, "sunshine-protocol", "sunshine", 7, "400")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	raw, err := f.Bounty.Get(ctx, id)
	require.NoError(t, err)
	var info model.BountyInformation
	require.NoError(t, json.Unmarshal([]byte(raw), &info))
	require.Equal(t, "sunshine-protocol", info.RepoOwner)
	require.Equal(t, "sunshine", info.RepoName)
	require.Equal(t, uint64(7), info.IssueNumber)
	require.Equal(t, uint64(400), info.Total)

	open, err := f.Bounty.OpenBounties(ctx, "1")
	require.NoError(t, err)
	require.Contains(t, open, `"repo_name":"sunshine"`)

	total, err := f.Bounty.Contribute(ctx, id, "100")
	require.NoError(t, err)
	require.Equal(t, "500", total)

	contributions, err := f.Bounty.BountyContributions(ctx, id)
	require.NoError(t, err)
	var listed []model.ContributionInformation
	require.NoError(t, json.Unmarshal([]byte(contributions), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, uint64(500), listed[0].Total)

	mine, err := f.Bounty.AccountContributions(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, mine)

	subID, err := f.Bounty.Submit(ctx, id, "sunshine-protocol", "sunshine", 8, "500")
	require.NoError(t, err)

	subRaw, err := f.Bounty.GetSubmission(ctx, subID)
	require.NoError(t, err)
	var sub model.BountySubmissionInformation
	require.NoError(t, json.Unmarshal([]byte(subRaw), &sub))
	require.Equal(t, id, sub.BountyID)
	require.Equal(t, uint64(8), sub.IssueNumber)
	require.True(t, sub.AwaitingReview)

	openSubs, err := f.Bounty.OpenBountySubmissions(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, openSubs)

	remaining, err := f.Bounty.Approve(ctx, subID)
	require.NoError(t, err)
	require.Equal(t, "0", remaining)

	// The drained bounty leaves every listing.
	open, err = f.Bounty.OpenBounties(ctx, "1")
	require.NoError(t, err)
	require.Empty(t, open)
	mine, err = f.Bounty.AccountContributions(ctx, "")
	require.NoError(t, err)
	require.Empty(t, mine)

	subRaw, err = f.Bounty.GetSubmission(ctx, subID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(subRaw), &sub))
	require.False(t, sub.AwaitingReview)
	require.True(t, sub.Approved)
}

// Malformed ids and amounts must fail at the bridge without touching the
// node or the keystore.
func TestBadIDsAndAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFFI(t, "Alice")

	_, err := f.Bounty.Get(ctx, "not-a-number")
	require.ErrorContains(t, err, "bad bounty id")

	_, err = f.Bounty.Approve(ctx, "-1")
	require.ErrorContains(t, err, "bad submission id")

	_, err = f.Bounty.Post(ctx, "sunshine-protocol", "sunshine", 7, "4x0")
	require.ErrorContains(t, err, "bad amount")

	_, err = f.Bounty.Contribute(ctx, "1", "10.5")
	require.ErrorContains(t, err, "bad amount")

	_, err = f.Wallet.Transfer(ctx, testutil.DevKey("Bob").AccountID(), "-100")
	require.ErrorContains(t, err, "bad amount")

	_, err = f.Wallet.Transfer(ctx, testutil.DevKey("Bob").AccountID(), "99999999999999999999999999")
	require.ErrorContains(t, err, "out of range")
}

func TestClosedBridge(t *testing.T) {
	ctx := context.Background()
	cl, err := client.NewSunshineClient(testutil.GetNodeURL()).
		WithConfigDir(t.TempDir()).
		WithInMemoryStore().
		Build(ctx)
	require.NoError(t, err)

	f := ffi.Wrap(cl)
	f.Close()

	_, err = f.Key.Exists()
	require.ErrorIs(t, err, ffi.ErrClosed)
	_, err = f.Wallet.Balance(ctx, "")
	require.ErrorIs(t, err, ffi.ErrClosed)
	_, err = f.Bounty.Get(ctx, "1")
	require.ErrorIs(t, err, ffi.ErrClosed)
}
