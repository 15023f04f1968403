package bounty

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/pkg/codec"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

func (b *bountyService) issueFor(ctx context.Context, ref string) (*model.GithubIssue, error) {
	var issue model.GithubIssue
	if err := b.store.Get(ctx, codec.Cid(ref), &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func bountyInformation(id uint64, state *model.BountyState, issue *model.GithubIssue) *model.BountyInformation {
	return &model.BountyInformation{
		ID:          strconv.FormatUint(id, 10),
		RepoOwner:   issue.RepoOwner,
		RepoName:    issue.RepoName,
		IssueNumber: issue.IssueNumber,
		Depositer:   state.Depositer,
		Total:       state.Total,
	}
}

func submissionInformation(id uint64, state *model.SubmissionState, issue *model.GithubIssue) *model.BountySubmissionInformation {
	return &model.BountySubmissionInformation{
		ID:             strconv.FormatUint(id, 10),
		RepoOwner:      issue.RepoOwner,
		RepoName:       issue.RepoName,
		IssueNumber:    issue.IssueNumber,
		BountyID:       strconv.FormatUint(state.BountyID, 10),
		Submitter:      state.Submitter,
		Amount:         state.Amount,
		AwaitingReview: state.AwaitingReview(),
		Approved:       state.State == model.SubmissionApproved,
	}
}

// BountyInformation joins a bounty's chain state with its offchain issue body.
func (b *bountyService) BountyInformation(ctx context.Context, id uint64) (*model.BountyInformation, error) {
	state, err := b.Bounty(ctx, id)
	if err != nil {
		return nil, err
	}
	issue, err := b.issueFor(ctx, state.Info)
	if err != nil {
		return nil, err
	}
	return bountyInformation(id, state, issue), nil
}

// SubmissionInformation joins a submission's chain state with its offchain
// body.
func (b *bountyService) SubmissionInformation(ctx context.Context, id uint64) (*model.BountySubmissionInformation, error) {
	state, err := b.Submission(ctx, id)
	if err != nil {
		return nil, err
	}
	issue, err := b.issueFor(ctx, state.Submission)
	if err != nil {
		return nil, err
	}
	return submissionInformation(id, state, issue), nil
}

// OpenBountyInformation hydrates every open bounty with total >= min. Bounties
// whose bodies cannot be resolved are logged and skipped rather than failing
// the whole listing.
func (b *bountyService) OpenBountyInformation(ctx context.Context, min uint64) ([]model.BountyInformation, error) {
	open, err := b.OpenBounties(ctx, min)
	if err != nil {
		return nil, err
	}
	out := make([]model.BountyInformation, 0, len(open))
	for _, entry := range open {
		issue, err := b.issueFor(ctx, entry.State.Info)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping bounty %d with unresolvable body", entry.ID)
			continue
		}
		out = append(out, *bountyInformation(entry.ID, entry.State, issue))
	}
	return out, nil
}

// OpenSubmissionInformation hydrates every submission awaiting review on one
// bounty, skipping entries with unresolvable bodies.
func (b *bountyService) OpenSubmissionInformation(ctx context.Context, bountyID uint64) ([]model.BountySubmissionInformation, error) {
	open, err := b.OpenSubmissions(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	out := make([]model.BountySubmissionInformation, 0, len(open))
	for _, entry := range open {
		issue, err := b.issueFor(ctx, entry.State.Submission)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping submission %d with unresolvable body", entry.ID)
			continue
		}
		out = append(out, *submissionInformation(entry.ID, entry.State, issue))
	}
	return out, nil
}
