// internal/application/storefront/service.go
package storefront

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/eligibility"
	"storefront/internal/domain/guard"
	"storefront/internal/domain/mintsession"
	"storefront/internal/domain/pricing"
)

// ============================================================
// Ports (chain-read boundaries for the storefront service)
// ============================================================

// MachineState is the snapshot of the candy machine + candy guard
// accounts taken once per session/refresh.
type MachineState struct {
	Config         guard.Config
	ItemsAvailable uint64
	ItemsRedeemed  uint64
}

// Remaining is the unminted supply.
func (s MachineState) Remaining() uint64 {
	if s.ItemsRedeemed >= s.ItemsAvailable {
		return 0
	}
	return s.ItemsAvailable - s.ItemsRedeemed
}

// MachineReader fetches the machine snapshot from the chain.
type MachineReader interface {
	FetchState(ctx context.Context) (MachineState, error)
}

// WalletReader builds the wallet context the evaluator consumes. The
// rule set tells the reader which token mints, collections and counters
// are worth fetching.
type WalletReader interface {
	ReadContext(ctx context.Context, wallet string, rules guard.RuleSet) (eligibility.WalletContext, error)
}

// ============================================================
// Recompute (pure)
// ============================================================

// Recompute derives the verdict and aggregated prices for one wallet
// snapshot. The host calls it whenever the context changes; there is no
// hidden dependency tracking and no memoization.
func Recompute(rules guard.RuleSet, wctx eligibility.WalletContext, now time.Time, quantity int) (eligibility.Verdict, pricing.Prices) {
	return eligibility.Evaluate(rules, wctx, now), pricing.Aggregate(rules, quantity)
}

// ============================================================
// Service
// ============================================================

// State is the full UI state for one wallet and group: everything the
// storefront needs to render the mint button, stepper and price lines.
type State struct {
	GroupLabel     string              `json:"groupLabel"`
	ItemsAvailable uint64              `json:"itemsAvailable"`
	ItemsRedeemed  uint64              `json:"itemsRedeemed"`
	ItemsRemaining uint64              `json:"itemsRemaining"`
	SolBalance     float64             `json:"solBalance"`
	Verdict        eligibility.Verdict `json:"verdict"`
	Prices         pricing.Prices      `json:"prices"`
	TotalSOL       float64             `json:"totalSol"`
	Mintable       bool                `json:"mintable"`
	SoldOut        bool                `json:"soldOut"`
}

// Service assembles UI state from authoritative chain/wallet reads. All
// derived entities are session-scoped and rebuilt on every call.
type Service struct {
	machine      MachineReader
	wallets      WalletReader
	allow        map[string]*allowlist.Tree // group label → allow-list
	defaultLabel string
	now          func() time.Time
}

// NewService wires the storefront service. allow maps group labels to
// their allow-list trees (may be nil/empty).
func NewService(machine MachineReader, wallets WalletReader, allow map[string]*allowlist.Tree, defaultLabel string) *Service {
	if defaultLabel == "" {
		defaultLabel = guard.DefaultLabel
	}
	return &Service{
		machine:      machine,
		wallets:      wallets,
		allow:        allow,
		defaultLabel: defaultLabel,
		now:          time.Now,
	}
}

// State computes the current UI state for wallet under the given group
// label (empty label falls back to the configured default group).
func (s *Service) State(ctx context.Context, wallet, label string, quantity int) (*State, error) {
	if s == nil || s.machine == nil || s.wallets == nil {
		return nil, mintsession.ErrConfigUnavailable
	}
	label = s.effectiveLabel(label)
	if quantity < 1 {
		quantity = 1
	}

	machine, err := s.machine.FetchState(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mintsession.ErrConfigUnavailable, err)
	}

	rules := guard.Resolve(machine.Config, label)

	wctx, err := s.wallets.ReadContext(ctx, wallet, rules)
	if err != nil {
		return nil, fmt.Errorf("storefront: read wallet context: %w", err)
	}

	// The machine-wide redeemed count doubles as the global counter for
	// the redeemed-amount guard.
	if wctx.GlobalRedeemed == nil {
		redeemed := machine.ItemsRedeemed
		wctx.GlobalRedeemed = &redeemed
	}

	// Attach the allow-list proof when a list is loaded for the group.
	if tree, ok := s.allow[label]; ok && tree != nil && wctx.AllowProof == nil {
		if proof, perr := tree.Proof(wallet); perr == nil {
			wctx.AllowProof = proof
		}
	}

	verdict, prices := Recompute(rules, wctx, s.now(), quantity)

	return &State{
		GroupLabel:     label,
		ItemsAvailable: machine.ItemsAvailable,
		ItemsRedeemed:  machine.ItemsRedeemed,
		ItemsRemaining: machine.Remaining(),
		SolBalance:     float64(wctx.Lamports) / float64(guard.LamportsPerSOL),
		Verdict:        verdict,
		Prices:         prices,
		TotalSOL:       prices.TotalSOL(quantity),
		Mintable:       verdict.Mintable() && machine.Remaining() > 0,
		SoldOut:        machine.Remaining() == 0,
	}, nil
}

// Rules resolves the effective rule set for a label (used by the mint
// handler to pass guard context to the program adapter).
func (s *Service) Rules(ctx context.Context, label string) (guard.RuleSet, error) {
	machine, err := s.machine.FetchState(ctx)
	if err != nil {
		return guard.RuleSet{}, fmt.Errorf("%w: %v", mintsession.ErrConfigUnavailable, err)
	}
	return guard.Resolve(machine.Config, s.effectiveLabel(label)), nil
}

// Proof returns the allow-list proof for wallet in the labeled group,
// or nil when none applies.
func (s *Service) Proof(label, wallet string) allowlist.Proof {
	tree, ok := s.allow[s.effectiveLabel(label)]
	if !ok || tree == nil {
		return nil
	}
	proof, err := tree.Proof(wallet)
	if err != nil {
		return nil
	}
	return proof
}

func (s *Service) effectiveLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return s.defaultLabel
	}
	return label
}
