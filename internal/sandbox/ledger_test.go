package sandbox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

func devKey(t *testing.T, name string) *keystore.DeviceKey {
	t.Helper()
	key, err := keystore.DeviceKeyFromSURI("//" + name)
	require.NoError(t, err)
	return key
}

func signedCall(t *testing.T, key *keystore.DeviceKey, nonce uint64, module, method string, args interface{}) *model.Extrinsic {
	t.Helper()
	call, err := model.NewCall(module, method, args)
	require.NoError(t, err)
	ext := &model.Extrinsic{Signer: key.AccountID(), Nonce: nonce, Call: call}
	payload, err := ext.SigningBytes()
	require.NoError(t, err)
	sig, err := key.Sign(payload)
	require.NoError(t, err)
	ext.Signature = hex.EncodeToString(sig)
	return ext
}

func requireModuleError(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	modErr, ok := err.(*ModuleError)
	require.True(t, ok, "expected module error, got %v", err)
	require.Equal(t, reason, modErr.Reason)
}

func TestTransfer(t *testing.T) {
	alice := devKey(t, "Alice")
	bob := devKey(t, "Bob")
	ledger := NewLedger(map[string]uint64{alice.AccountID(): 1000})

	result, err := ledger.Apply(signedCall(t, alice, 0, model.ModuleBalances, "transfer",
		model.TransferArgs{To: bob.AccountID(), Amount: 300}))
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Block.Number)

	ev, err := result.Transfer()
	require.NoError(t, err)
	require.Equal(t, alice.AccountID(), ev.From)
	require.Equal(t, bob.AccountID(), ev.To)
	require.Equal(t, uint64(300), ev.Amount)

	require.Equal(t, uint64(700), ledger.Account(alice.AccountID()).Free)
	require.Equal(t, uint64(300), ledger.Account(bob.AccountID()).Free)
	require.Equal(t, uint64(1), ledger.Account(alice.AccountID()).Nonce)

	_, err = ledger.Apply(signedCall(t, bob, 0, model.ModuleBalances, "transfer",
		model.TransferArgs{To: alice.AccountID(), Amount: 5000}))
	requireModuleError(t, err, ReasonInsufficientBalance)
	require.Equal(t, uint64(300), ledger.Account(bob.AccountID()).Free, "failed transfer must not move funds")
}

func TestBadNonceAndSignature(t *testing.T) {
	alice := devKey(t, "Alice")
	bob := devKey(t, "Bob")
	ledger := NewLedger(map[string]uint64{alice.AccountID(): 1000})

	args := model.TransferArgs{To: bob.AccountID(), Amount: 1}

	_, err := ledger.Apply(signedCall(t, alice, 7, model.ModuleBalances, "transfer", args))
	requireModuleError(t, err, ReasonBadNonce)

	// Bob signs but claims to be Alice.
	forged := signedCall(t, bob, 0, model.ModuleBalances, "transfer", args)
	forged.Signer = alice.AccountID()
	_, err = ledger.Apply(forged)
	requireModuleError(t, err, ReasonBadSignature)

	require.Zero(t, ledger.Header().Number, "rejected extrinsics must not produce blocks")
}

func TestBountyLifecycle(t *testing.T) {
	alice := devKey(t, "Alice")
	bob := devKey(t, "Bob")
	charlie := devKey(t, "Charlie")
	ledger := NewLedger(map[string]uint64{
		alice.AccountID():   1000,
		bob.AccountID():     1000,
		charlie.AccountID(): 1000,
	})

	result, err := ledger.Apply(signedCall(t, alice, 0, model.ModuleBounty, "post_bounty",
		model.PostBountyArgs{Info: "cid-bounty", Amount: 400}))
	require.NoError(t, err)
	posted, err := result.BountyPosted()
	require.NoError(t, err)
	require.Equal(t, uint64(1), posted.ID)
	require.Equal(t, uint64(400), posted.Amount)
	require.Equal(t, "cid-bounty", posted.Description)
	require.Equal(t, uint64(600), ledger.Account(alice.AccountID()).Free, "deposit is reserved on post")

	// Posting records the depositer's own contribution.
	contrib := ledger.Contribution(1, alice.AccountID())
	require.NotNil(t, contrib)
	require.Equal(t, uint64(400), contrib.Total)

	result, err = ledger.Apply(signedCall(t, bob, 0, model.ModuleBounty, "contribute_to_bounty",
		model.ContributeToBountyArgs{BountyID: 1, Amount: 100}))
	require.NoError(t, err)
	raised, err := result.BountyRaiseContribution()
	require.NoError(t, err)
	require.Equal(t, uint64(100), raised.NewAmount)
	require.Equal(t, uint64(500), raised.Total, "event total includes the new contribution")

	result, err = ledger.Apply(signedCall(t, charlie, 0, model.ModuleBounty, "submit_for_bounty",
		model.SubmitForBountyArgs{BountyID: 1, SubmissionRef: "cid-submission", Amount: 500}))
	require.NoError(t, err)
	submitted, err := result.BountySubmissionPosted()
	require.NoError(t, err)
	require.Equal(t, uint64(1), submitted.ID)
	require.Equal(t, "cid-bounty", submitted.BountyRef)
	require.Equal(t, "cid-submission", submitted.SubmissionRef)

	open := ledger.OpenSubmissions(1)
	require.Len(t, open, 1)
	require.True(t, open[0].State.AwaitingReview())

	// Only the depositer can approve.
	_, err = ledger.Apply(signedCall(t, bob, 1, model.ModuleBounty, "approve_bounty_submission",
		model.ApproveBountySubmissionArgs{SubmissionID: 1}))
	requireModuleError(t, err, ReasonNotAuthorizedToApprove)

	result, err = ledger.Apply(signedCall(t, alice, 1, model.ModuleBounty, "approve_bounty_submission",
		model.ApproveBountySubmissionArgs{SubmissionID: 1}))
	require.NoError(t, err)
	paid, err := result.BountyPaymentExecuted()
	require.NoError(t, err)
	require.Equal(t, uint64(0), paid.NewTotal)
	require.Equal(t, charlie.AccountID(), paid.Submitter)
	require.Equal(t, uint64(1500), ledger.Account(charlie.AccountID()).Free)

	// Drained bounty leaves the open set; the submission stays queryable.
	require.Nil(t, ledger.Bounty(1))
	require.Empty(t, ledger.OpenBounties(1))
	sub := ledger.Submission(1)
	require.NotNil(t, sub)
	require.False(t, sub.AwaitingReview())

	_, err = ledger.Apply(signedCall(t, alice, 2, model.ModuleBounty, "approve_bounty_submission",
		model.ApproveBountySubmissionArgs{SubmissionID: 1}))
	requireModuleError(t, err, ReasonSubmissionNotAwaitingReview)
}

func TestSubmissionBounds(t *testing.T) {
	alice := devKey(t, "Alice")
	bob := devKey(t, "Bob")
	ledger := NewLedger(map[string]uint64{alice.AccountID(): 1000, bob.AccountID(): 1000})

	_, err := ledger.Apply(signedCall(t, alice, 0, model.ModuleBounty, "post_bounty",
		model.PostBountyArgs{Info: "cid", Amount: 200}))
	require.NoError(t, err)

	_, err = ledger.Apply(signedCall(t, bob, 0, model.ModuleBounty, "submit_for_bounty",
		model.SubmitForBountyArgs{BountyID: 1, SubmissionRef: "cid-sub", Amount: 201}))
	requireModuleError(t, err, ReasonSubmissionExceedsTotal)

	_, err = ledger.Apply(signedCall(t, bob, 0, model.ModuleBounty, "submit_for_bounty",
		model.SubmitForBountyArgs{BountyID: 99, SubmissionRef: "cid-sub", Amount: 10}))
	requireModuleError(t, err, ReasonBountyDNE)

	_, err = ledger.Apply(signedCall(t, bob, 0, model.ModuleBounty, "contribute_to_bounty",
		model.ContributeToBountyArgs{BountyID: 1, Amount: 0}))
	requireModuleError(t, err, ReasonDepositMustBePositive)
}

func TestQueryOrdering(t *testing.T) {
	alice := devKey(t, "Alice")
	bob := devKey(t, "Bob")
	ledger := NewLedger(map[string]uint64{alice.AccountID(): 1000, bob.AccountID(): 1000})

	for i, amount := range []uint64{50, 60, 70} {
		_, err := ledger.Apply(signedCall(t, alice, uint64(i), model.ModuleBounty, "post_bounty",
			model.PostBountyArgs{Info: "cid", Amount: amount}))
		require.NoError(t, err)
	}
	_, err := ledger.Apply(signedCall(t, bob, 0, model.ModuleBounty, "contribute_to_bounty",
		model.ContributeToBountyArgs{BountyID: 2, Amount: 25}))
	require.NoError(t, err)

	open := ledger.OpenBounties(60)
	require.Len(t, open, 2)
	require.Equal(t, uint64(2), open[0].ID)
	require.Equal(t, uint64(85), open[0].State.Total)
	require.Equal(t, uint64(3), open[1].ID)

	mine := ledger.AccountContributions(alice.AccountID())
	require.Len(t, mine, 3)
	require.Equal(t, uint64(1), mine[0].BountyID)
	require.Equal(t, uint64(3), mine[2].BountyID)

	all := ledger.BountyContributions(2)
	require.Len(t, all, 2)
	require.Nil(t, ledger.Contribution(2, "nobody"))
}
