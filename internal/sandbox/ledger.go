// Package sandbox hosts an in-process sunshine dev node: the bounty module
// state machine plus the websocket JSON-RPC surface a real node serves.
// Integration tests and local development run against it instead of a
// containerized chain.
package sandbox

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

// ModuleError is a dispatch failure raised by a runtime module.
type ModuleError struct {
	Module string `json:"module"`
	Reason string `json:"reason"`
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Module, e.Reason)
}

// Module error reasons.
const (
	ReasonInsufficientBalance         = "InsufficientBalance"
	ReasonBadNonce                    = "BadNonce"
	ReasonBadSignature                = "BadSignature"
	ReasonDepositMustBePositive       = "DepositMustBePositive"
	ReasonBountyDNE                   = "BountyDNE"
	ReasonSubmissionDNE               = "SubmissionDNE"
	ReasonSubmissionExceedsTotal      = "SubmissionExceedsTotal"
	ReasonSubmissionNotAwaitingReview = "SubmissionNotAwaitingReview"
	ReasonNotAuthorizedToApprove      = "NotAuthorizedToApprove"
	ReasonUnknownCall                 = "UnknownCall"
)

type account struct {
	nonce uint64
	free  uint64
}

// Ledger is the chain state behind the sandbox node. One block is produced
// per accepted extrinsic; finality is instant.
type Ledger struct {
	mu sync.Mutex

	accounts      map[string]*account
	bounties      map[uint64]*model.BountyState
	submissions   map[uint64]*model.SubmissionState
	contributions map[uint64]map[string]uint64

	nextBountyID     uint64
	nextSubmissionID uint64

	head model.Header
}

// NewLedger creates a ledger with the given genesis balances.
func NewLedger(genesis map[string]uint64) *Ledger {
	l := &Ledger{
		accounts:         make(map[string]*account),
		bounties:         make(map[uint64]*model.BountyState),
		submissions:      make(map[uint64]*model.SubmissionState),
		contributions:    make(map[uint64]map[string]uint64),
		nextBountyID:     1,
		nextSubmissionID: 1,
	}
	for addr, free := range genesis {
		l.accounts[addr] = &account{free: free}
	}
	l.head = model.Header{Number: 0, Hash: blockHash("genesis", 0), Parent: ""}
	return l
}

// Header returns the current finalized head.
func (l *Ledger) Header() model.Header {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// Account returns the system view of addr. Unknown accounts are empty, not
// errors.
func (l *Ledger) Account(addr string) model.AccountInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return model.AccountInfo{}
	}
	return model.AccountInfo{Nonce: acc.nonce, Free: acc.free}
}

// Apply verifies and executes one extrinsic, producing a new block.
func (l *Ledger) Apply(ext *model.Extrinsic) (*model.ExtrinsicResult, error) {
	payload, err := ext.SigningBytes()
	if err != nil {
		return nil, &ModuleError{Module: "System", Reason: ReasonBadSignature}
	}
	sig, err := hex.DecodeString(ext.Signature)
	if err != nil {
		return nil, &ModuleError{Module: "System", Reason: ReasonBadSignature}
	}
	if err := keystore.VerifySignature(ext.Signer, payload, sig); err != nil {
		return nil, &ModuleError{Module: "System", Reason: ReasonBadSignature}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	signer := l.account(ext.Signer)
	if ext.Nonce != signer.nonce {
		return nil, &ModuleError{Module: "System", Reason: ReasonBadNonce}
	}

	events, err := l.dispatch(ext.Signer, ext.Call)
	if err != nil {
		return nil, err
	}

	signer.nonce++
	l.head = model.Header{
		Number: l.head.Number + 1,
		Hash:   blockHash(l.head.Hash, l.head.Number+1),
		Parent: l.head.Hash,
	}
	return &model.ExtrinsicResult{Block: l.head, Events: events}, nil
}

func (l *Ledger) account(addr string) *account {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{}
		l.accounts[addr] = acc
	}
	return acc
}

func (l *Ledger) dispatch(signer string, call model.Call) ([]model.Event, error) {
	switch {
	case call.Module == model.ModuleBalances && call.Method == "transfer":
		var args model.TransferArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &ModuleError{Module: model.ModuleBalances, Reason: ReasonUnknownCall}
		}
		return l.transfer(signer, args)
	case call.Module == model.ModuleBounty && call.Method == "post_bounty":
		var args model.PostBountyArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonUnknownCall}
		}
		return l.postBounty(signer, args)
	case call.Module == model.ModuleBounty && call.Method == "contribute_to_bounty":
		var args model.ContributeToBountyArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonUnknownCall}
		}
		return l.contributeToBounty(signer, args)
	case call.Module == model.ModuleBounty && call.Method == "submit_for_bounty":
		var args model.SubmitForBountyArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonUnknownCall}
		}
		return l.submitForBounty(signer, args)
	case call.Module == model.ModuleBounty && call.Method == "approve_bounty_submission":
		var args model.ApproveBountySubmissionArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonUnknownCall}
		}
		return l.approveBountySubmission(signer, args)
	default:
		return nil, &ModuleError{Module: call.Module, Reason: ReasonUnknownCall}
	}
}

func (l *Ledger) transfer(signer string, args model.TransferArgs) ([]model.Event, error) {
	from := l.account(signer)
	if from.free < args.Amount {
		return nil, &ModuleError{Module: model.ModuleBalances, Reason: ReasonInsufficientBalance}
	}
	from.free -= args.Amount
	l.account(args.To).free += args.Amount

	ev, err := model.NewEvent(model.ModuleBalances, model.EventTransfer, model.TransferEvent{
		From: signer, To: args.To, Amount: args.Amount,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

func (l *Ledger) postBounty(signer string, args model.PostBountyArgs) ([]model.Event, error) {
	if args.Amount == 0 {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonDepositMustBePositive}
	}
	depositer := l.account(signer)
	if depositer.free < args.Amount {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonInsufficientBalance}
	}
	depositer.free -= args.Amount

	id := l.nextBountyID
	l.nextBountyID++
	l.bounties[id] = &model.BountyState{Info: args.Info, Depositer: signer, Total: args.Amount}
	l.contributions[id] = map[string]uint64{signer: args.Amount}

	ev, err := model.NewEvent(model.ModuleBounty, model.EventBountyPosted, model.BountyPostedEvent{
		Depositer: signer, Amount: args.Amount, ID: id, Description: args.Info,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

func (l *Ledger) contributeToBounty(signer string, args model.ContributeToBountyArgs) ([]model.Event, error) {
	bounty, ok := l.bounties[args.BountyID]
	if !ok {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonBountyDNE}
	}
	if args.Amount == 0 {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonDepositMustBePositive}
	}
	contributor := l.account(signer)
	if contributor.free < args.Amount {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonInsufficientBalance}
	}
	contributor.free -= args.Amount
	bounty.Total += args.Amount
	l.contributions[args.BountyID][signer] += args.Amount

	ev, err := model.NewEvent(model.ModuleBounty, model.EventBountyRaiseContribution, model.BountyRaiseContributionEvent{
		Contributor: signer,
		NewAmount:   args.Amount,
		BountyID:    args.BountyID,
		Total:       bounty.Total,
		BountyRef:   bounty.Info,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

func (l *Ledger) submitForBounty(signer string, args model.SubmitForBountyArgs) ([]model.Event, error) {
	bounty, ok := l.bounties[args.BountyID]
	if !ok {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonBountyDNE}
	}
	if args.Amount == 0 {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonDepositMustBePositive}
	}
	if args.Amount > bounty.Total {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonSubmissionExceedsTotal}
	}

	id := l.nextSubmissionID
	l.nextSubmissionID++
	l.submissions[id] = &model.SubmissionState{
		BountyID:   args.BountyID,
		Submission: args.SubmissionRef,
		Submitter:  signer,
		Amount:     args.Amount,
		State:      model.SubmissionAwaitingReview,
	}

	ev, err := model.NewEvent(model.ModuleBounty, model.EventBountySubmissionPosted, model.BountySubmissionPostedEvent{
		Submitter:     signer,
		BountyID:      args.BountyID,
		Amount:        args.Amount,
		ID:            id,
		BountyRef:     bounty.Info,
		SubmissionRef: args.SubmissionRef,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

func (l *Ledger) approveBountySubmission(signer string, args model.ApproveBountySubmissionArgs) ([]model.Event, error) {
	sub, ok := l.submissions[args.SubmissionID]
	if !ok {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonSubmissionDNE}
	}
	if !sub.AwaitingReview() {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonSubmissionNotAwaitingReview}
	}
	bounty, ok := l.bounties[sub.BountyID]
	if !ok {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonBountyDNE}
	}
	if signer != bounty.Depositer {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonNotAuthorizedToApprove}
	}
	if sub.Amount > bounty.Total {
		return nil, &ModuleError{Module: model.ModuleBounty, Reason: ReasonSubmissionExceedsTotal}
	}

	bounty.Total -= sub.Amount
	l.account(sub.Submitter).free += sub.Amount
	sub.State = model.SubmissionApproved

	newTotal := bounty.Total
	if newTotal == 0 {
		// Drained bounties leave the open set; submissions stay queryable.
		delete(l.bounties, sub.BountyID)
		delete(l.contributions, sub.BountyID)
	}

	ev, err := model.NewEvent(model.ModuleBounty, model.EventBountyPaymentExecuted, model.BountyPaymentExecutedEvent{
		BountyID:      sub.BountyID,
		NewTotal:      newTotal,
		SubmissionID:  args.SubmissionID,
		Amount:        sub.Amount,
		Submitter:     sub.Submitter,
		BountyRef:     bounty.Info,
		SubmissionRef: sub.Submission,
	})
	if err != nil {
		return nil, err
	}
	return []model.Event{ev}, nil
}

// Bounty returns the state for id, or nil when it does not exist.
func (l *Ledger) Bounty(id uint64) *model.BountyState {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bounties[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

// Submission returns the state for id, or nil when it does not exist.
func (l *Ledger) Submission(id uint64) *model.SubmissionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.submissions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// Contribution returns the running contribution by account to bounty id, or
// nil when there is none.
func (l *Ledger) Contribution(id uint64, acct string) *model.Contribution {
	l.mu.Lock()
	defer l.mu.Unlock()
	total, ok := l.contributions[id][acct]
	if !ok {
		return nil
	}
	return &model.Contribution{BountyID: id, Account: acct, Total: total}
}

// OpenBounties lists bounties with total >= min, ordered by id.
func (l *Ledger) OpenBounties(min uint64) []model.IdentifiedBounty {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.IdentifiedBounty
	for id, b := range l.bounties {
		if b.Total >= min {
			cp := *b
			out = append(out, model.IdentifiedBounty{ID: id, State: &cp})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OpenSubmissions lists submissions awaiting review for one bounty, ordered
// by id.
func (l *Ledger) OpenSubmissions(bountyID uint64) []model.IdentifiedSubmission {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.IdentifiedSubmission
	for id, s := range l.submissions {
		if s.BountyID == bountyID && s.AwaitingReview() {
			cp := *s
			out = append(out, model.IdentifiedSubmission{ID: id, State: &cp})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BountyContributions lists all contributions to one bounty, ordered by
// account.
func (l *Ledger) BountyContributions(bountyID uint64) []model.Contribution {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Contribution
	for acct, total := range l.contributions[bountyID] {
		out = append(out, model.Contribution{BountyID: bountyID, Account: acct, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// AccountContributions lists the account's contributions across all open
// bounties, ordered by bounty id.
func (l *Ledger) AccountContributions(acct string) []model.Contribution {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Contribution
	for id, byAcct := range l.contributions {
		if total, ok := byAcct[acct]; ok {
			out = append(out, model.Contribution{BountyID: id, Account: acct, Total: total})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BountyID < out[j].BountyID })
	return out
}

func blockHash(parent string, number uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], number)
	h := sha256.Sum256(append([]byte(parent), buf[:]...))
	return "0x" + hex.EncodeToString(h[:])
}
