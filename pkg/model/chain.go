package model

import (
	"encoding/json"
	"fmt"
)

// Header describes a finalized block.
type Header struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
	Parent string `json:"parent"`
}

// AccountInfo is the system-level view of an account.
type AccountInfo struct {
	Nonce uint64 `json:"nonce"`
	Free  uint64 `json:"free"`
}

// RuntimeVersion identifies the node runtime.
type RuntimeVersion struct {
	SpecName    string `json:"spec_name"`
	SpecVersion uint32 `json:"spec_version"`
}

// Call is a module dispatch. Args is the JSON encoding of one of the typed
// argument structs below; it is kept raw so the bytes that were signed travel
// through unchanged.
type Call struct {
	Module string          `json:"module"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// SigningPayload is the exact structure hashed and signed for an extrinsic.
// Field order matters: both the client and the node marshal this struct to
// produce the signed bytes.
type SigningPayload struct {
	Signer string `json:"signer"`
	Nonce  uint64 `json:"nonce"`
	Call   Call   `json:"call"`
}

// Extrinsic is a signed call ready for submission.
type Extrinsic struct {
	Signer    string `json:"signer"`
	Nonce     uint64 `json:"nonce"`
	Call      Call   `json:"call"`
	Signature string `json:"signature"`
}

// SigningBytes returns the canonical bytes covered by the signature.
func (e *Extrinsic) SigningBytes() ([]byte, error) {
	return json.Marshal(SigningPayload{Signer: e.Signer, Nonce: e.Nonce, Call: e.Call})
}

// Event is one runtime event emitted while applying an extrinsic.
type Event struct {
	Module string          `json:"module"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
}

// ExtrinsicResult reports the block an extrinsic landed in and the events it
// produced.
type ExtrinsicResult struct {
	Block  Header  `json:"block"`
	Events []Event `json:"events"`
}

// Call argument shapes, one per dispatchable. These are what Call.Args decodes
// to on the node side.

type TransferArgs struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type PostBountyArgs struct {
	Info   string `json:"info"`
	Amount uint64 `json:"amount"`
}

type ContributeToBountyArgs struct {
	BountyID uint64 `json:"bounty_id"`
	Amount   uint64 `json:"amount"`
}

type SubmitForBountyArgs struct {
	BountyID      uint64 `json:"bounty_id"`
	SubmissionRef string `json:"submission_ref"`
	Amount        uint64 `json:"amount"`
}

type ApproveBountySubmissionArgs struct {
	SubmissionID uint64 `json:"submission_id"`
}

// NewCall marshals args into a Call for the given module dispatch.
func NewCall(module, method string, args interface{}) (Call, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Call{}, fmt.Errorf("failed to encode %s.%s args: %w", module, method, err)
	}
	return Call{Module: module, Method: method, Args: raw}, nil
}

// Typed events mirroring the bounty module's event set.

type TransferEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BountyPostedEvent struct {
	Depositer   string `json:"depositer"`
	Amount      uint64 `json:"amount"`
	ID          uint64 `json:"id"`
	Description string `json:"description"`
}

type BountyRaiseContributionEvent struct {
	Contributor string `json:"contributor"`
	NewAmount   uint64 `json:"new_amount"`
	BountyID    uint64 `json:"bounty_id"`
	Total       uint64 `json:"total"`
	BountyRef   string `json:"bounty_ref"`
}

type BountySubmissionPostedEvent struct {
	Submitter     string `json:"submitter"`
	BountyID      uint64 `json:"bounty_id"`
	Amount        uint64 `json:"amount"`
	ID            uint64 `json:"id"`
	BountyRef     string `json:"bounty_ref"`
	SubmissionRef string `json:"submission_ref"`
}

type BountyPaymentExecutedEvent struct {
	BountyID      uint64 `json:"bounty_id"`
	NewTotal      uint64 `json:"new_total"`
	SubmissionID  uint64 `json:"submission_id"`
	Amount        uint64 `json:"amount"`
	Submitter     string `json:"submitter"`
	BountyRef     string `json:"bounty_ref"`
	SubmissionRef string `json:"submission_ref"`
}

// Event names as emitted by the node.
const (
	ModuleBalances = "Balances"
	ModuleBounty   = "Bounty"

	EventTransfer                = "Transfer"
	EventBountyPosted            = "BountyPosted"
	EventBountyRaiseContribution = "BountyRaiseContribution"
	EventBountySubmissionPosted  = "BountySubmissionPosted"
	EventBountyPaymentExecuted   = "BountyPaymentExecuted"
)

// NewEvent marshals data into an Event. Used by the node when applying calls.
func NewEvent(module, name string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s.%s event: %w", module, name, err)
	}
	return Event{Module: module, Name: name, Data: raw}, nil
}

func (r *ExtrinsicResult) decodeEvent(module, name string, out interface{}) error {
	for _, ev := range r.Events {
		if ev.Module == module && ev.Name == name {
			if err := json.Unmarshal(ev.Data, out); err != nil {
				return fmt.Errorf("failed to decode %s.%s event: %w", module, name, err)
			}
			return nil
		}
	}
	return &EventNotFoundError{Module: module, Name: name}
}

// Transfer extracts the transfer event from the result.
func (r *ExtrinsicResult) Transfer() (*TransferEvent, error) {
	var ev TransferEvent
	if err := r.decodeEvent(ModuleBalances, EventTransfer, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// BountyPosted extracts the bounty-posted event from the result.
func (r *ExtrinsicResult) BountyPosted() (*BountyPostedEvent, error) {
	var ev BountyPostedEvent
	if err := r.decodeEvent(ModuleBounty, EventBountyPosted, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// BountyRaiseContribution extracts the contribution event from the result.
func (r *ExtrinsicResult) BountyRaiseContribution() (*BountyRaiseContributionEvent, error) {
	var ev BountyRaiseContributionEvent
	if err := r.decodeEvent(ModuleBounty, EventBountyRaiseContribution, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// BountySubmissionPosted extracts the submission event from the result.
func (r *ExtrinsicResult) BountySubmissionPosted() (*BountySubmissionPostedEvent, error) {
	var ev BountySubmissionPostedEvent
	if err := r.decodeEvent(ModuleBounty, EventBountySubmissionPosted, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// BountyPaymentExecuted extracts the payout event from the result.
func (r *ExtrinsicResult) BountyPaymentExecuted() (*BountyPaymentExecutedEvent, error) {
	var ev BountyPaymentExecutedEvent
	if err := r.decodeEvent(ModuleBounty, EventBountyPaymentExecuted, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
