package model

import (
	"errors"
	"fmt"
)

// Keystore sentinel errors.
var (
	ErrKeystoreLocked        = errors.New("keystore is locked")
	ErrKeystoreUninitialized = errors.New("keystore has no device key")
	ErrKeystoreExists        = errors.New("device key already set")
	ErrNoKeystoreDir         = errors.New("keystore has no directory to persist to")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrWrongPassword         = errors.New("wrong password")
	ErrInvalidMnemonic       = errors.New("invalid mnemonic")
)

// EventNotFoundError is returned when an extrinsic result does not carry the
// expected event.
type EventNotFoundError struct {
	Module string
	Name   string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("failed to find %s.%s event", e.Module, e.Name)
}

// BountyNotFoundError reports a query for a bounty id with no on-chain state.
type BountyNotFoundError struct {
	ID uint64
}

func (e *BountyNotFoundError) Error() string {
	return fmt.Sprintf("bounty %d does not exist", e.ID)
}

// SubmissionNotFoundError reports a query for a submission id with no
// on-chain state.
type SubmissionNotFoundError struct {
	ID uint64
}

func (e *SubmissionNotFoundError) Error() string {
	return fmt.Sprintf("submission %d does not exist", e.ID)
}

// RuntimeMismatchError is returned when the connected node runs a different
// runtime than the client was built against.
type RuntimeMismatchError struct {
	NodeSpec     string
	ExpectedSpec string
}

func (e *RuntimeMismatchError) Error() string {
	return fmt.Sprintf("node runs runtime %q, client expects %q", e.NodeSpec, e.ExpectedSpec)
}

// ContributionNotFoundError reports a missing (bounty, account) contribution.
type ContributionNotFoundError struct {
	BountyID uint64
	Account  string
}

func (e *ContributionNotFoundError) Error() string {
	return fmt.Sprintf("no contribution by %s to bounty %d", e.Account, e.BountyID)
}
