// Package bounty implements the bounty module client: posting and funding
// bounties, submitting work, approving payouts, and the storage queries
// behind them. Bounty and submission bodies live in the offchain store; the
// chain only carries their content ids.
package bounty

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/offchain"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
	"github.com/sunshine-protocol/sunshine-go/pkg/service/chain"
)

type BountyService interface {
	// Dispatchables.
	PostBounty(ctx context.Context, signer chain.Signer, issue model.GithubIssue, amount uint64) (uint64, error)
	ContributeToBounty(ctx context.Context, signer chain.Signer, bountyID, amount uint64) (uint64, error)
	SubmitForBounty(ctx context.Context, signer chain.Signer, bountyID uint64, issue model.GithubIssue, amount uint64) (uint64, error)
	ApproveBountySubmission(ctx context.Context, signer chain.Signer, submissionID uint64) (uint64, error)

	// Storage queries.
	Bounty(ctx context.Context, id uint64) (*model.BountyState, error)
	Submission(ctx context.Context, id uint64) (*model.SubmissionState, error)
	Contribution(ctx context.Context, bountyID uint64, account string) (*model.Contribution, error)
	OpenBounties(ctx context.Context, min uint64) ([]model.IdentifiedBounty, error)
	OpenSubmissions(ctx context.Context, bountyID uint64) ([]model.IdentifiedSubmission, error)
	BountyContributions(ctx context.Context, bountyID uint64) ([]model.Contribution, error)
	AccountContributions(ctx context.Context, account string) ([]model.Contribution, error)

	// Hydrated views joining chain state with offchain bodies.
	BountyInformation(ctx context.Context, id uint64) (*model.BountyInformation, error)
	SubmissionInformation(ctx context.Context, id uint64) (*model.BountySubmissionInformation, error)
	OpenBountyInformation(ctx context.Context, min uint64) ([]model.BountyInformation, error)
	OpenSubmissionInformation(ctx context.Context, bountyID uint64) ([]model.BountySubmissionInformation, error)
}

type bountyService struct {
	conn  *rpc.Conn
	chain chain.ChainService
	store *offchain.Store
}

func NewBountyServiceClient(conn *rpc.Conn, chainSvc chain.ChainService, store *offchain.Store) *bountyService {
	return &bountyService{conn: conn, chain: chainSvc, store: store}
}

// PostBounty stores the issue body offchain, posts the bounty on chain with
// the initial deposit, and returns the new bounty id.
func (b *bountyService) PostBounty(ctx context.Context, signer chain.Signer, issue model.GithubIssue, amount uint64) (uint64, error) {
	cid, err := b.store.Put(ctx, issue)
	if err != nil {
		return 0, err
	}
	call, err := model.NewCall(model.ModuleBounty, "post_bounty", model.PostBountyArgs{Info: cid.String(), Amount: amount})
	if err != nil {
		return 0, err
	}
	result, err := b.chain.SignAndSubmit(ctx, signer, call)
	if err != nil {
		return 0, err
	}
	ev, err := result.BountyPosted()
	if err != nil {
		return 0, err
	}
	log.Info().Msgf("posted bounty %d with deposit %d", ev.ID, ev.Amount)
	return ev.ID, nil
}

// ContributeToBounty adds funds to an open bounty and returns its new total.
func (b *bountyService) ContributeToBounty(ctx context.Context, signer chain.Signer, bountyID, amount uint64) (uint64, error) {
	call, err := model.NewCall(model.ModuleBounty, "contribute_to_bounty", model.ContributeToBountyArgs{BountyID: bountyID, Amount: amount})
	if err != nil {
		return 0, err
	}
	result, err := b.chain.SignAndSubmit(ctx, signer, call)
	if err != nil {
		return 0, err
	}
	ev, err := result.BountyRaiseContribution()
	if err != nil {
		return 0, err
	}
	return ev.Total, nil
}

// SubmitForBounty stores the submission body offchain, submits it for review,
// and returns the new submission id.
func (b *bountyService) SubmitForBounty(ctx context.Context, signer chain.Signer, bountyID uint64, issue model.GithubIssue, amount uint64) (uint64, error) {
	cid, err := b.store.Put(ctx, issue)
	if err != nil {
		return 0, err
	}
	call, err := model.NewCall(model.ModuleBounty, "submit_for_bounty", model.SubmitForBountyArgs{
		BountyID:      bountyID,
		SubmissionRef: cid.String(),
		Amount:        amount,
	})
	if err != nil {
		return 0, err
	}
	result, err := b.chain.SignAndSubmit(ctx, signer, call)
	if err != nil {
		return 0, err
	}
	ev, err := result.BountySubmissionPosted()
	if err != nil {
		return 0, err
	}
	log.Info().Msgf("submitted for bounty %d as submission %d", ev.BountyID, ev.ID)
	return ev.ID, nil
}

// ApproveBountySubmission pays out a submission and returns the bounty's
// remaining total.
func (b *bountyService) ApproveBountySubmission(ctx context.Context, signer chain.Signer, submissionID uint64) (uint64, error) {
	call, err := model.NewCall(model.ModuleBounty, "approve_bounty_submission", model.ApproveBountySubmissionArgs{SubmissionID: submissionID})
	if err != nil {
		return 0, err
	}
	result, err := b.chain.SignAndSubmit(ctx, signer, call)
	if err != nil {
		return 0, err
	}
	ev, err := result.BountyPaymentExecuted()
	if err != nil {
		return 0, err
	}
	log.Info().Msgf("approved submission %d, paid %d to %s", ev.SubmissionID, ev.Amount, ev.Submitter)
	return ev.NewTotal, nil
}

func (b *bountyService) Bounty(ctx context.Context, id uint64) (*model.BountyState, error) {
	var state *model.BountyState
	if err := b.conn.Call(ctx, "bounty_bounty", &state, id); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &model.BountyNotFoundError{ID: id}
	}
	return state, nil
}

func (b *bountyService) Submission(ctx context.Context, id uint64) (*model.SubmissionState, error) {
	var state *model.SubmissionState
	if err := b.conn.Call(ctx, "bounty_submission", &state, id); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &model.SubmissionNotFoundError{ID: id}
	}
	return state, nil
}

func (b *bountyService) Contribution(ctx context.Context, bountyID uint64, account string) (*model.Contribution, error) {
	var contribution *model.Contribution
	if err := b.conn.Call(ctx, "bounty_contribution", &contribution, bountyID, account); err != nil {
		return nil, err
	}
	if contribution == nil {
		return nil, &model.ContributionNotFoundError{BountyID: bountyID, Account: account}
	}
	return contribution, nil
}

func (b *bountyService) OpenBounties(ctx context.Context, min uint64) ([]model.IdentifiedBounty, error) {
	var bounties []model.IdentifiedBounty
	if err := b.conn.Call(ctx, "bounty_openBounties", &bounties, min); err != nil {
		return nil, err
	}
	return bounties, nil
}

func (b *bountyService) OpenSubmissions(ctx context.Context, bountyID uint64) ([]model.IdentifiedSubmission, error) {
	var submissions []model.IdentifiedSubmission
	if err := b.conn.Call(ctx, "bounty_openSubmissions", &submissions, bountyID); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (b *bountyService) BountyContributions(ctx context.Context, bountyID uint64) ([]model.Contribution, error) {
	var contributions []model.Contribution
	if err := b.conn.Call(ctx, "bounty_contributions", &contributions, bountyID); err != nil {
		return nil, err
	}
	return contributions, nil
}

func (b *bountyService) AccountContributions(ctx context.Context, account string) ([]model.Contribution, error) {
	var contributions []model.Contribution
	if err := b.conn.Call(ctx, "bounty_accountContributions", &contributions, account); err != nil {
		return nil, err
	}
	return contributions, nil
}
