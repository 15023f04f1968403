package ffi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

// Bounty exposes the bounty module over the bridge. Ids and amounts come in
// as decimal strings; structured results cross as JSON and empty listings
// as "".
type Bounty struct {
	ffi *FFI
}

// Get returns the bounty as JSON, joined with its offchain issue body.
func (b *Bounty) Get(ctx context.Context, bountyID string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	info, err := cl.Bounty.BountyInformation(ctx, id)
	if err != nil {
		return "", err
	}
	return toJSON(info)
}

// Post opens a bounty on a github issue with an initial deposit and returns
// the new bounty id.
func (b *Bounty) Post(ctx context.Context, repoOwner, repoName string, issueNumber uint64, amount string) (string, error) {
	deposit, err := parseAmount(amount)
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	signer, err := cl.Signer()
	if err != nil {
		return "", err
	}
	issue := model.GithubIssue{RepoOwner: repoOwner, RepoName: repoName, IssueNumber: issueNumber}
	id, err := cl.Bounty.PostBounty(ctx, signer, issue, deposit)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}

// Contribute adds funds to a bounty and returns its new total.
func (b *Bounty) Contribute(ctx context.Context, bountyID, amount string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	contribution, err := parseAmount(amount)
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	signer, err := cl.Signer()
	if err != nil {
		return "", err
	}
	total, err := cl.Bounty.ContributeToBounty(ctx, signer, id, contribution)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(total, 10), nil
}

// Submit offers work on a bounty for review and returns the submission id.
func (b *Bounty) Submit(ctx context.Context, bountyID, repoOwner, repoName string, issueNumber uint64, amount string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	ask, err := parseAmount(amount)
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	signer, err := cl.Signer()
	if err != nil {
		return "", err
	}
	issue := model.GithubIssue{RepoOwner: repoOwner, RepoName: repoName, IssueNumber: issueNumber}
	subID, err := cl.Bounty.SubmitForBounty(ctx, signer, id, issue, ask)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(subID, 10), nil
}

// Approve pays out a submission and returns the bounty's remaining total.
func (b *Bounty) Approve(ctx context.Context, submissionID string) (string, error) {
	id, err := parseID(submissionID, "submission id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	signer, err := cl.Signer()
	if err != nil {
		return "", err
	}
	total, err := cl.Bounty.ApproveBountySubmission(ctx, signer, id)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(total, 10), nil
}

// GetSubmission returns the submission as JSON, joined with its offchain body.
func (b *Bounty) GetSubmission(ctx context.Context, submissionID string) (string, error) {
	id, err := parseID(submissionID, "submission id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	info, err := cl.Bounty.SubmissionInformation(ctx, id)
	if err != nil {
		return "", err
	}
	return toJSON(info)
}

// GetContribution returns the account's running contribution to a bounty as
// JSON. An empty account means the device key.
func (b *Bounty) GetContribution(ctx context.Context, bountyID, account string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	if account == "" {
		account, err = cl.Keystore.AccountID()
		if err != nil {
			return "", err
		}
	}
	contribution, err := cl.Bounty.Contribution(ctx, id, account)
	if err != nil {
		return "", err
	}
	return toJSON(model.ContributionInformation{
		ID:      strconv.FormatUint(contribution.BountyID, 10),
		Account: contribution.Account,
		Total:   contribution.Total,
	})
}

// OpenBounties lists open bounties with total >= min as JSON, or "" when
// there are none.
func (b *Bounty) OpenBounties(ctx context.Context, min string) (string, error) {
	floor, err := parseAmount(min)
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	open, err := cl.Bounty.OpenBountyInformation(ctx, floor)
	if err != nil {
		return "", err
	}
	if len(open) == 0 {
		return "", nil
	}
	return toJSON(open)
}

// OpenBountySubmissions lists a bounty's submissions awaiting review as JSON,
// or "" when there are none.
func (b *Bounty) OpenBountySubmissions(ctx context.Context, bountyID string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	open, err := cl.Bounty.OpenSubmissionInformation(ctx, id)
	if err != nil {
		return "", err
	}
	if len(open) == 0 {
		return "", nil
	}
	return toJSON(open)
}

// BountyContributions lists every contribution to a bounty as JSON, or ""
// when there are none.
func (b *Bounty) BountyContributions(ctx context.Context, bountyID string) (string, error) {
	id, err := parseID(bountyID, "bounty id")
	if err != nil {
		return "", err
	}
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	contributions, err := cl.Bounty.BountyContributions(ctx, id)
	if err != nil {
		return "", err
	}
	return contributionsJSON(contributions)
}

// AccountContributions lists the account's contributions across open bounties
// as JSON, or "" when there are none. An empty account means the device key.
func (b *Bounty) AccountContributions(ctx context.Context, account string) (string, error) {
	cl, release, err := b.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	if account == "" {
		account, err = cl.Keystore.AccountID()
		if err != nil {
			return "", err
		}
	}
	contributions, err := cl.Bounty.AccountContributions(ctx, account)
	if err != nil {
		return "", err
	}
	return contributionsJSON(contributions)
}

func contributionsJSON(contributions []model.Contribution) (string, error) {
	if len(contributions) == 0 {
		return "", nil
	}
	out := make([]model.ContributionInformation, len(contributions))
	for i, c := range contributions {
		out[i] = model.ContributionInformation{
			ID:      strconv.FormatUint(c.BountyID, 10),
			Account: c.Account,
			Total:   c.Total,
		}
	}
	return toJSON(out)
}

func toJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
