// internal/domain/pricing/aggregate_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/guard"
)

func TestAggregateScalesPaymentByQuantity(t *testing.T) {
	rules := guard.RuleSet{
		SolPayment: &guard.SolPaymentGuard{Lamports: 690_000_000},
	}

	p := Aggregate(rules, 3)

	require.Len(t, p.Payment, 1)
	assert.Equal(t, KindNative, p.Payment[0].Kind)
	assert.Equal(t, "SOL", p.Payment[0].Label)
	// aggregation stays in lamports, so the float is exact
	assert.Equal(t, 2.07, p.Payment[0].Amount)
}

func TestTotalSOLIncludesNetworkFee(t *testing.T) {
	rules := guard.RuleSet{
		SolPayment: &guard.SolPaymentGuard{Lamports: 690_000_000},
	}

	p := Aggregate(rules, 2)

	// 2 × 0.69 + 2 × 0.012
	assert.Equal(t, 1.404, p.TotalSOL(2))
}

func TestFreeMintStillPaysNetworkFee(t *testing.T) {
	p := Aggregate(guard.RuleSet{}, 1)

	assert.Empty(t, p.Payment)
	assert.Equal(t, 0.012, p.TotalSOL(1))
}

func TestDuplicateAssetKeepsMaximumNotSum(t *testing.T) {
	rules := guard.RuleSet{
		TokenPayment: &guard.TokenPaymentGuard{Amount: 3, Decimals: 0, Symbol: "BONK", Mint: "BonkMint"},
		TokenBurn:    &guard.TokenBurnGuard{Amount: 7, Decimals: 0, Symbol: "BONK", Mint: "BonkMint"},
	}

	p := Aggregate(rules, 1)

	// one line, max requirement, first-seen bucket
	require.Len(t, p.Payment, 1)
	assert.Empty(t, p.Burn)
	assert.Equal(t, 7.0, p.Payment[0].Amount)
	assert.Equal(t, "$BONK", p.Payment[0].Label)
}

func TestGateLinesNeverScale(t *testing.T) {
	rules := guard.RuleSet{
		TokenGate: &guard.TokenGateGuard{Amount: 5, Decimals: 0, Symbol: "WLT", Mint: "GateMint"},
		NFTGate:   &guard.NFTGateGuard{RequiredCollection: "C011AAAA"},
	}

	p := Aggregate(rules, 4)

	require.Len(t, p.Gate, 2)
	assert.Equal(t, 5.0, p.Gate[0].Amount)
	assert.Equal(t, 1.0, p.Gate[1].Amount)
}

func TestNFTGuardsCountItems(t *testing.T) {
	rules := guard.RuleSet{
		NFTPayment: &guard.NFTPaymentGuard{RequiredCollection: "C011AAAA", Destination: "DestAAAA"},
		NFTBurn:    &guard.NFTBurnGuard{RequiredCollection: "C011BBBB"},
	}

	p := Aggregate(rules, 2)

	require.Len(t, p.Payment, 1)
	require.Len(t, p.Burn, 1)
	assert.Equal(t, 2.0, p.Payment[0].Amount)
	assert.Equal(t, 2.0, p.Burn[0].Amount)
	assert.Equal(t, KindNFTPayment, p.Payment[0].Kind)
	assert.Equal(t, KindNFTBurn, p.Burn[0].Kind)
}

func TestBotTaxExcludedFromTotals(t *testing.T) {
	rules := guard.RuleSet{
		SolPayment: &guard.SolPaymentGuard{Lamports: 690_000_000},
		BotTax:     &guard.BotTaxGuard{Lamports: 133_700_000, LastInstruction: true},
	}

	p := Aggregate(rules, 1)

	assert.Equal(t, 0.1337, p.BotTaxSOL)
	require.Len(t, p.Payment, 1)
	assert.Equal(t, 0.702, p.TotalSOL(1))
}

func TestTokenDecimalsScaleDisplay(t *testing.T) {
	rules := guard.RuleSet{
		TokenPayment: &guard.TokenPaymentGuard{Amount: 1_500_000, Decimals: 6, Symbol: "USDC", Mint: "UsdcMint"},
	}

	p := Aggregate(rules, 2)

	require.Len(t, p.Payment, 1)
	assert.Equal(t, 3.0, p.Payment[0].Amount)
	assert.Equal(t, "$USDC", p.Payment[0].Label)
}

func TestQuantityFloorsAtOne(t *testing.T) {
	rules := guard.RuleSet{SolPayment: &guard.SolPaymentGuard{Lamports: guard.LamportsPerSOL}}

	p := Aggregate(rules, 0)

	require.Len(t, p.Payment, 1)
	assert.Equal(t, 1.0, p.Payment[0].Amount)
}
