// internal/domain/eligibility/evaluate.go
package eligibility

import (
	"fmt"
	"strconv"
	"time"

	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/guard"
)

// Evaluate derives the eligibility verdict for one effective rule set
// against a wallet snapshot at the given instant.
//
// Every check is independent and evaluation never short-circuits: the
// UI must be able to show all blocking reasons at once. The function is
// pure; identical (rules, ctx, now) always yields an identical verdict.
func Evaluate(rules guard.RuleSet, ctx WalletContext, now time.Time) Verdict {
	v := Verdict{
		IsStarted:           true,
		IsEnded:             false,
		CanPayFor:           UnlimitedMintable,
		IsWalletWhitelisted: true,
		Messages:            []string{},
	}

	// Time window. Boundary rule: startDate == now is started,
	// endDate == now is ended.
	if g := rules.StartDate; g != nil && now.Before(g.Date) {
		v.IsStarted = false
		v.Messages = append(v.Messages, "Mint has not started yet")
	}
	if g := rules.EndDate; g != nil && !now.Before(g.Date) {
		v.IsEnded = true
		v.Messages = append(v.Messages, "Mint has ended")
	}

	// Per-wallet mint limit.
	if g := rules.MintLimit; g != nil {
		remaining := uint64(0)
		if g.Limit > ctx.RedeemedByWallet {
			remaining = g.Limit - ctx.RedeemedByWallet
		}
		if remaining == 0 {
			v.IsLimitReached = true
			v.Messages = append(v.Messages, "Mint limit for this wallet is reached")
		}
		v.CanPayFor = capCeiling(v.CanPayFor, remaining)
	}

	// Machine-wide redeemed-amount limit. Missing global data defaults
	// to unbounded.
	if g := rules.RedeemedAmount; g != nil && ctx.GlobalRedeemed != nil {
		remaining := uint64(0)
		if g.Maximum > *ctx.GlobalRedeemed {
			remaining = g.Maximum - *ctx.GlobalRedeemed
		}
		if remaining == 0 {
			v.IsLimitReached = true
			v.Messages = append(v.Messages, "All items for this group are redeemed")
		}
		v.CanPayFor = capCeiling(v.CanPayFor, remaining)
	}

	// Allow-list membership. Failure blocks with its own message and
	// leaves every other check untouched.
	if g := rules.AllowList; g != nil {
		if ctx.AllowProof == nil || !allowlist.Verify(g.MerkleRoot, ctx.Wallet, ctx.AllowProof) {
			v.IsWalletWhitelisted = false
			v.Messages = append(v.Messages, "Wallet is not whitelisted for this group")
		}
	}

	// Address gate: only one wallet may mint in this group.
	if g := rules.AddressGate; g != nil && ctx.Wallet != g.Address {
		v.IsWalletWhitelisted = false
		v.CanPayFor = 0
		v.Messages = append(v.Messages, "Wallet address is not allowed to mint in this group")
	}

	// Payment / holding guards. Deficits contribute messages (scale of
	// one item); evaluation keeps collecting.
	if g := rules.SolPayment; g != nil && ctx.Lamports < g.Lamports {
		v.Messages = append(v.Messages,
			fmt.Sprintf("Not enough SOL: %s required", solDisplay(g.Lamports)))
	}
	if g := rules.TokenPayment; g != nil && ctx.TokenBalances[g.Mint] < g.Amount {
		v.Messages = append(v.Messages,
			fmt.Sprintf("Not enough %s to pay: %s required",
				tokenName(g.Symbol, g.Mint), tokenDisplay(g.Amount, g.Decimals)))
	}
	if g := rules.TokenBurn; g != nil && ctx.TokenBalances[g.Mint] < g.Amount {
		v.Messages = append(v.Messages,
			fmt.Sprintf("Not enough %s to burn: %s required",
				tokenName(g.Symbol, g.Mint), tokenDisplay(g.Amount, g.Decimals)))
	}
	if g := rules.TokenGate; g != nil && ctx.TokenBalances[g.Mint] < g.Amount {
		v.Messages = append(v.Messages,
			fmt.Sprintf("Wallet does not hold the required %s", tokenName(g.Symbol, g.Mint)))
	}

	// NFT guards additionally imply a quantity ceiling: each unit in a
	// request consumes one eligible NFT per guard kind, so the owned
	// count bounds CanPayFor.
	if g := rules.NFTPayment; g != nil {
		owned := ctx.ownedInCollection(g.RequiredCollection)
		if owned == 0 {
			v.Messages = append(v.Messages, "No NFT of the required collection to pay with")
		}
		v.CanPayFor = capCeiling(v.CanPayFor, owned)
	}
	if g := rules.NFTBurn; g != nil {
		owned := ctx.ownedInCollection(g.RequiredCollection)
		if owned == 0 {
			v.Messages = append(v.Messages, "No NFT of the required collection to burn")
		}
		v.CanPayFor = capCeiling(v.CanPayFor, owned)
	}
	if g := rules.NFTGate; g != nil {
		owned := ctx.ownedInCollection(g.RequiredCollection)
		if owned == 0 {
			v.Messages = append(v.Messages, "No NFT of the required collection is held")
		}
		v.CanPayFor = capCeiling(v.CanPayFor, owned)
	}

	// Gatekeeper does not block here; it tells the orchestrator that a
	// token handshake must complete before submission.
	if rules.Gatekeeper != nil {
		v.HasGatekeeper = true
	}

	return v
}

// capCeiling lowers current to remaining, floored at 0.
func capCeiling(current int, remaining uint64) int {
	if remaining >= uint64(current) {
		return current
	}
	return int(remaining)
}

func solDisplay(lamports uint64) string {
	return strconv.FormatFloat(float64(lamports)/float64(guard.LamportsPerSOL), 'f', -1, 64) + " SOL"
}

func tokenDisplay(amount uint64, decimals uint8) string {
	d := float64(1)
	for i := uint8(0); i < decimals; i++ {
		d *= 10
	}
	return strconv.FormatFloat(float64(amount)/d, 'f', -1, 64)
}

func tokenName(symbol, mint string) string {
	if symbol != "" {
		return "$" + symbol
	}
	if len(mint) > 8 {
		return mint[:4] + "…" + mint[len(mint)-4:]
	}
	return mint
}
