// internal/domain/mintsession/errors.go
package mintsession

import (
	"errors"
	"fmt"
)

// ------------------------------------------------------
// Error taxonomy
// ------------------------------------------------------
//
// Eligibility blockers are verdict data, never errors. Only the I/O
// boundaries raise faults: the gateway handshake, the minting program
// and the wallet adapter. None of them is retried automatically; every
// retry is a new explicit user action.

var (
	// ErrConfigUnavailable means the guard configuration is missing or
	// malformed. The UI renders it as UNAVAILABLE.
	ErrConfigUnavailable = errors.New("mintsession: guard configuration unavailable")

	// ErrMintInFlight rejects a second mint attempt while one is
	// submitting for the same session.
	ErrMintInFlight = errors.New("mintsession: a mint is already in flight")

	// ErrUserRejected means the wallet declined to sign. The UI returns
	// silently to idle without an alert.
	ErrUserRejected = errors.New("mintsession: user rejected signing")
)

// GatewayError is a failed or timed-out identity-gateway handshake. The
// mint attempt is aborted; the user may retry.
type GatewayError struct {
	Reason string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mintsession: gateway handshake failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mintsession: gateway handshake failed: %s", e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ProgramError is an on-chain rejection, surfaced verbatim to the user.
// No automatic retry: the authoritative state may have changed.
type ProgramError struct {
	Message string
}

func (e *ProgramError) Error() string {
	return "mintsession: program rejected mint: " + e.Message
}

// PartialError reports a sequential multi-unit submission that failed
// partway. Settled holds the receipts of units actually minted; partial
// success is never swallowed silently.
type PartialError struct {
	Settled []Receipt
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("mintsession: %d unit(s) settled before failure: %v", len(e.Settled), e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
