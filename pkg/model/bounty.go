package model

// GithubIssue is the off-chain body of bounty posts and submissions. The chain
// only ever sees its content identifier.
type GithubIssue struct {
	RepoOwner   string `json:"repo_owner" cbor:"repo_owner"`
	RepoName    string `json:"repo_name" cbor:"repo_name"`
	IssueNumber uint64 `json:"issue_number" cbor:"issue_number"`
}

// BountyState is the on-chain record of a bounty.
type BountyState struct {
	Info      string `json:"info"`
	Depositer string `json:"depositer"`
	Total     uint64 `json:"total"`
}

// SubmissionStatus tracks the review state of a bounty submission.
type SubmissionStatus string

const (
	SubmissionAwaitingReview SubmissionStatus = "AwaitingReview"
	SubmissionApproved       SubmissionStatus = "ApprovedAndExecuted"
)

// SubmissionState is the on-chain record of a bounty submission.
type SubmissionState struct {
	BountyID   uint64           `json:"bounty_id"`
	Submission string           `json:"submission"`
	Submitter  string           `json:"submitter"`
	Amount     uint64           `json:"amount"`
	State      SubmissionStatus `json:"state"`
}

// AwaitingReview reports whether the submission can still be approved.
func (s *SubmissionState) AwaitingReview() bool {
	return s.State == SubmissionAwaitingReview
}

// Contribution is an account's running total contributed to one bounty.
type Contribution struct {
	BountyID uint64 `json:"bounty_id"`
	Account  string `json:"account"`
	Total    uint64 `json:"total"`
}

// IdentifiedBounty pairs a bounty id with its state in list queries.
type IdentifiedBounty struct {
	ID    uint64       `json:"id"`
	State *BountyState `json:"state"`
}

// IdentifiedSubmission pairs a submission id with its state in list queries.
type IdentifiedSubmission struct {
	ID    uint64           `json:"id"`
	State *SubmissionState `json:"state"`
}

// BountyInformation is the hydrated, binding-friendly view of a bounty: the
// on-chain state joined with its off-chain body.
type BountyInformation struct {
	ID          string `json:"id"`
	RepoOwner   string `json:"repo_owner"`
	RepoName    string `json:"repo_name"`
	IssueNumber uint64 `json:"issue_number"`
	Depositer   string `json:"depositer"`
	Total       uint64 `json:"total"`
}

// BountySubmissionInformation is the hydrated view of a submission.
type BountySubmissionInformation struct {
	ID             string `json:"id"`
	RepoOwner      string `json:"repo_owner"`
	RepoName       string `json:"repo_name"`
	IssueNumber    uint64 `json:"issue_number"`
	BountyID       string `json:"bounty_id"`
	Submitter      string `json:"submitter"`
	Amount         uint64 `json:"amount"`
	AwaitingReview bool   `json:"awaiting_review"`
	Approved       bool   `json:"approved"`
}

// ContributionInformation is the binding-friendly view of a contribution.
type ContributionInformation struct {
	ID      string `json:"id"`
	Account string `json:"account"`
	Total   uint64 `json:"total"`
}
