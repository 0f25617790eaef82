// internal/domain/eligibility/evaluate_test.go
package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/guard"
)

var evalNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func uptr(v uint64) *uint64 { return &v }

func TestEmptyRuleSetIsUnrestricted(t *testing.T) {
	v := Evaluate(guard.RuleSet{}, WalletContext{Wallet: "Wa11etAAAA"}, evalNow)

	assert.True(t, v.IsStarted)
	assert.False(t, v.IsEnded)
	assert.False(t, v.IsLimitReached)
	assert.True(t, v.IsWalletWhitelisted)
	assert.False(t, v.HasGatekeeper)
	assert.Equal(t, UnlimitedMintable, v.CanPayFor)
	assert.Empty(t, v.Messages)
	assert.True(t, v.Mintable())
}

func TestEvaluateIsPure(t *testing.T) {
	rules := guard.RuleSet{
		StartDate:  &guard.StartDateGuard{Date: evalNow.Add(-time.Hour)},
		SolPayment: &guard.SolPaymentGuard{Lamports: 2 * guard.LamportsPerSOL},
		MintLimit:  &guard.MintLimitGuard{ID: 0, Limit: 5},
	}
	ctx := WalletContext{
		Wallet:           "Wa11etAAAA",
		Lamports:         1 * guard.LamportsPerSOL,
		RedeemedByWallet: 2,
	}

	first := Evaluate(rules, ctx, evalNow)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Evaluate(rules, ctx, evalNow))
	}
}

func TestStartDateBoundary(t *testing.T) {
	start := evalNow
	rules := guard.RuleSet{StartDate: &guard.StartDateGuard{Date: start}}

	// now == startDate counts as started
	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, start)
	assert.True(t, v.IsStarted)
	assert.True(t, v.Mintable())

	// one instant earlier does not
	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, start.Add(-time.Nanosecond))
	assert.False(t, v.IsStarted)
	assert.False(t, v.Mintable())
	assert.Contains(t, v.Messages, "Mint has not started yet")
}

func TestEndDateBoundary(t *testing.T) {
	end := evalNow
	rules := guard.RuleSet{EndDate: &guard.EndDateGuard{Date: end}}

	// now == endDate counts as ended
	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, end)
	assert.True(t, v.IsEnded)
	assert.False(t, v.Mintable())

	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, end.Add(-time.Nanosecond))
	assert.False(t, v.IsEnded)
}

func TestMintLimitRemaining(t *testing.T) {
	rules := guard.RuleSet{MintLimit: &guard.MintLimitGuard{ID: 0, Limit: 3}}

	// one below the limit: exactly one more unit
	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA", RedeemedByWallet: 2}, evalNow)
	assert.False(t, v.IsLimitReached)
	assert.Equal(t, 1, v.CanPayFor)
	assert.True(t, v.Mintable())

	// at the limit: blocked
	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA", RedeemedByWallet: 3}, evalNow)
	assert.True(t, v.IsLimitReached)
	assert.Equal(t, 0, v.CanPayFor)
	assert.False(t, v.Mintable())
	assert.Contains(t, v.Messages, "Mint limit for this wallet is reached")
}

func TestRedeemedAmountGuard(t *testing.T) {
	rules := guard.RuleSet{RedeemedAmount: &guard.RedeemedAmountGuard{Maximum: 100}}

	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA", GlobalRedeemed: uptr(98)}, evalNow)
	assert.Equal(t, 2, v.CanPayFor)

	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA", GlobalRedeemed: uptr(100)}, evalNow)
	assert.True(t, v.IsLimitReached)
	assert.False(t, v.Mintable())

	// missing global data defaults to unbounded
	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, evalNow)
	assert.Equal(t, UnlimitedMintable, v.CanPayFor)
	assert.True(t, v.Mintable())
}

func TestAllowListGuard(t *testing.T) {
	tree, err := allowlist.NewTree([]string{"Wa11etAAAA", "Wa11etBBBB", "Wa11etCCCC"})
	require.NoError(t, err)
	rules := guard.RuleSet{AllowList: &guard.AllowListGuard{MerkleRoot: tree.Root()}}

	proof, err := tree.Proof("Wa11etAAAA")
	require.NoError(t, err)

	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA", AllowProof: proof}, evalNow)
	assert.True(t, v.IsWalletWhitelisted)
	assert.True(t, v.Mintable())

	// no proof
	v = Evaluate(rules, WalletContext{Wallet: "Wa11etZZZZ"}, evalNow)
	assert.False(t, v.IsWalletWhitelisted)
	assert.False(t, v.Mintable())
	assert.Contains(t, v.Messages, "Wallet is not whitelisted for this group")
	// other checks stay untouched
	assert.True(t, v.IsStarted)
	assert.Equal(t, UnlimitedMintable, v.CanPayFor)
}

func TestAddressGateGuard(t *testing.T) {
	rules := guard.RuleSet{AddressGate: &guard.AddressGateGuard{Address: "Wa11etAAAA"}}

	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, evalNow)
	assert.True(t, v.Mintable())

	v = Evaluate(rules, WalletContext{Wallet: "Wa11etBBBB"}, evalNow)
	assert.False(t, v.IsWalletWhitelisted)
	assert.Equal(t, 0, v.CanPayFor)
	assert.False(t, v.Mintable())
}

func TestPaymentDeficitsCollectMessages(t *testing.T) {
	rules := guard.RuleSet{
		SolPayment:   &guard.SolPaymentGuard{Lamports: 2 * guard.LamportsPerSOL},
		TokenPayment: &guard.TokenPaymentGuard{Amount: 500, Decimals: 2, Symbol: "BONK", Mint: "BonkMint"},
		TokenBurn:    &guard.TokenBurnGuard{Amount: 100, Decimals: 2, Symbol: "BONK", Mint: "BonkMint"},
		TokenGate:    &guard.TokenGateGuard{Amount: 50, Symbol: "WLT", Mint: "GateMint"},
	}
	ctx := WalletContext{
		Wallet:        "Wa11etAAAA",
		Lamports:      1 * guard.LamportsPerSOL,
		TokenBalances: map[string]uint64{"BonkMint": 10},
	}

	v := Evaluate(rules, ctx, evalNow)

	// every deficit is reported, nothing short-circuits
	assert.Len(t, v.Messages, 4)
	assert.Contains(t, v.Messages, "Not enough SOL: 2 SOL required")
	assert.Contains(t, v.Messages, "Not enough $BONK to pay: 5 required")
	assert.Contains(t, v.Messages, "Not enough $BONK to burn: 1 required")
	assert.Contains(t, v.Messages, "Wallet does not hold the required $WLT")
	assert.False(t, v.Mintable())
}

func TestNFTGuardsCapQuantity(t *testing.T) {
	rules := guard.RuleSet{NFTBurn: &guard.NFTBurnGuard{RequiredCollection: "C011AAAA"}}

	ctx := WalletContext{
		Wallet: "Wa11etAAAA",
		NFTs: []OwnedNFT{
			{Mint: "NftAAAA", Collection: "C011AAAA"},
			{Mint: "NftBBBB", Collection: "C011AAAA"},
			{Mint: "NftCCCC", Collection: "C011BBBB"},
		},
	}
	v := Evaluate(rules, ctx, evalNow)
	assert.Equal(t, 2, v.CanPayFor)
	assert.True(t, v.Mintable())

	// zero owned blocks with a message
	v = Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, evalNow)
	assert.Equal(t, 0, v.CanPayFor)
	assert.Contains(t, v.Messages, "No NFT of the required collection to burn")
	assert.False(t, v.Mintable())
}

func TestGatekeeperFlagsButDoesNotBlock(t *testing.T) {
	rules := guard.RuleSet{Gatekeeper: &guard.GatekeeperGuard{Network: "CaptchaNet", ExpireOnUse: true}}

	v := Evaluate(rules, WalletContext{Wallet: "Wa11etAAAA"}, evalNow)
	assert.True(t, v.HasGatekeeper)
	assert.True(t, v.Mintable())
}
