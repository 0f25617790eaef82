// internal/application/mint/orchestrator.go
package mint

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"storefront/internal/domain/mintsession"
)

// ============================================================
// Orchestrator
// ============================================================
//
// Per-request state machine:
//
//	Idle → AwaitingGatewayToken (only with a gatekeeper guard)
//	     → Submitting → Settled | Failed
//
// Idle is the entry state; Settled and Failed are terminal for the
// request. Only one attempt may be in flight per wallet session (the
// wallet's signing capability is a shared resource), so a state flag
// under a mutex serializes Mint calls.

// Phase is the orchestrator's current state.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingGatewayToken Phase = "awaiting-gateway-token"
	PhaseSubmitting           Phase = "submitting"
	PhaseSettled              Phase = "settled"
	PhaseFailed               Phase = "failed"
)

const defaultGatewayTimeout = 90 * time.Second

// Orchestrator drives one wallet session's mint attempts against the
// external minting program.
type Orchestrator struct {
	program Program
	gateway GatewayTokenSource

	// needsGateway mirrors the verdict's HasGatekeeper for the active
	// group; set per session by the storefront service.
	needsGateway bool

	gatewayTimeout time.Duration

	// onFirstSettled fires when the newly settled batch is recorded as
	// the session's initial batch (a UI nicety, not correctness).
	onFirstSettled func([]mintsession.Receipt)

	mu       sync.Mutex
	phase    Phase
	inFlight bool
	minted   []mintsession.Receipt
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGatewayTimeout overrides the handshake timeout.
func WithGatewayTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.gatewayTimeout = d }
}

// WithFirstSettledHook installs the first-settlement callback.
func WithFirstSettledHook(fn func([]mintsession.Receipt)) Option {
	return func(o *Orchestrator) { o.onFirstSettled = fn }
}

// NewOrchestrator wires the orchestrator to its program and gateway
// boundaries. gateway may be nil when no gatekeeper guard is active.
func NewOrchestrator(program Program, gateway GatewayTokenSource, needsGateway bool, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		program:        program,
		gateway:        gateway,
		needsGateway:   needsGateway,
		gatewayTimeout: defaultGatewayTimeout,
		phase:          PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phase returns the current state (for UI polling).
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Minted returns the receipts settled so far in this session.
func (o *Orchestrator) Minted() []mintsession.Receipt {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]mintsession.Receipt, len(o.minted))
	copy(out, o.minted)
	return out
}

// Mint executes one mint request end to end and returns the settled
// receipts. A second call while one is in flight fails with
// ErrMintInFlight. A user-rejected signature returns the session to
// idle with ErrUserRejected and no recorded receipts.
func (o *Orchestrator) Mint(ctx context.Context, req mintsession.Request) ([]mintsession.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if o.program == nil {
		return nil, mintsession.ErrConfigUnavailable
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, mintsession.ErrMintInFlight
	}
	o.inFlight = true
	o.phase = PhaseIdle
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	// Gateway handshake first: the mint suspends until the token goes
	// active or the handshake fails. An abandoned wait (ctx cancelled,
	// user navigated away) must never resume the mint.
	if o.needsGateway {
		if err := o.awaitGatewayToken(ctx, req.Wallet); err != nil {
			o.setPhase(PhaseFailed)
			return nil, err
		}
	}

	o.setPhase(PhaseSubmitting)

	receipts, err := o.submit(ctx, req)
	if err != nil {
		if errors.Is(err, mintsession.ErrUserRejected) {
			// Silent return to idle, no alert spam.
			o.setPhase(PhaseIdle)
			return nil, err
		}
		o.setPhase(PhaseFailed)
		return nil, err
	}

	o.record(receipts)
	o.setPhase(PhaseSettled)
	log.Printf("[mint_orchestrator] settled units=%d group=%q wallet=%s",
		len(receipts), req.GroupLabel, maskShort(req.Wallet))
	return receipts, nil
}

func (o *Orchestrator) awaitGatewayToken(ctx context.Context, wallet string) error {
	if o.gateway == nil {
		return &mintsession.GatewayError{Reason: "no gateway configured"}
	}

	o.setPhase(PhaseAwaitingGatewayToken)

	ctx, cancel := context.WithTimeout(ctx, o.gatewayTimeout)
	defer cancel()

	statuses, err := o.gateway.RequestToken(ctx, wallet)
	if err != nil {
		return &mintsession.GatewayError{Reason: "token request failed", Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return &mintsession.GatewayError{Reason: "handshake abandoned or timed out", Err: ctx.Err()}
		case st, ok := <-statuses:
			if !ok {
				return &mintsession.GatewayError{Reason: "status stream closed before token became active"}
			}
			switch st {
			case GatewayActive:
				log.Printf("[mint_orchestrator] gateway token active wallet=%s", maskShort(wallet))
				return nil
			case GatewayNotRequested, GatewayRefreshRequired, GatewayUnknown:
				// keep waiting
			}
		}
	}
}

// submit builds one program instruction per unit and sends them: a
// single atomic transaction when the program supports batching, else a
// sequence where a failure partway reports the settled count.
func (o *Orchestrator) submit(ctx context.Context, req mintsession.Request) ([]mintsession.Receipt, error) {
	if o.program.SupportsBatch() {
		return o.program.MintBatch(ctx, req)
	}

	receipts := make([]mintsession.Receipt, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		r, err := o.program.MintOne(ctx, req, i)
		if err != nil {
			if len(receipts) > 0 {
				// Units already settled on chain: record them and report
				// the partial outcome, never swallow it.
				o.record(receipts)
				return receipts, &mintsession.PartialError{Settled: receipts, Err: err}
			}
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func (o *Orchestrator) record(receipts []mintsession.Receipt) {
	o.mu.Lock()
	first := len(o.minted) == 0
	o.minted = append(o.minted, receipts...)
	hook := o.onFirstSettled
	o.mu.Unlock()

	if first && hook != nil {
		hook(receipts)
	}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// maskShort shortens addresses/signatures for logs.
func maskShort(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
