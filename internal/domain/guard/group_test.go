// internal/domain/guard/group_test.go
package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Default: RuleSet{
			StartDate:  &StartDateGuard{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
			SolPayment: &SolPaymentGuard{Lamports: 690_000_000, Destination: "DestAAAA"},
			BotTax:     &BotTaxGuard{Lamports: 133_700_000, LastInstruction: true},
		},
		Groups: []Group{
			{
				Label: "Owner",
				Guards: RuleSet{
					SolPayment: &SolPaymentGuard{Lamports: 10_000_000, Destination: "DestBBBB"},
					MintLimit:  &MintLimitGuard{ID: 1, Limit: 2},
				},
			},
			{
				Label: "Bonk",
				Guards: RuleSet{
					TokenPayment: &TokenPaymentGuard{Amount: 1_000_000, Mint: "BonkMint", DestinationATA: "BonkATA"},
				},
			},
		},
	}
}

func TestResolveEmptyLabelFallsBackToDefault(t *testing.T) {
	cfg := testConfig()

	for _, label := range []string{"", "  ", DefaultLabel} {
		rules := Resolve(cfg, label)
		require.NotNil(t, rules.SolPayment, "label %q", label)
		assert.Equal(t, uint64(690_000_000), rules.SolPayment.Lamports)
		assert.Nil(t, rules.MintLimit)
	}
}

func TestResolveUnknownLabelFallsBackToDefault(t *testing.T) {
	rules := Resolve(testConfig(), "NoSuchGroup")

	require.NotNil(t, rules.SolPayment)
	assert.Equal(t, uint64(690_000_000), rules.SolPayment.Lamports)
}

func TestResolveOverridesByPresence(t *testing.T) {
	rules := Resolve(testConfig(), "Owner")

	// Overridden kind wins.
	require.NotNil(t, rules.SolPayment)
	assert.Equal(t, uint64(10_000_000), rules.SolPayment.Lamports)
	assert.Equal(t, "DestBBBB", rules.SolPayment.Destination)

	// Kinds absent from the group inherit the default.
	require.NotNil(t, rules.StartDate)
	require.NotNil(t, rules.BotTax)

	// Kinds only the group has are added.
	require.NotNil(t, rules.MintLimit)
	assert.Equal(t, uint64(2), rules.MintLimit.Limit)
}

func TestResolveGroupAddsKindDefaultLacks(t *testing.T) {
	rules := Resolve(testConfig(), "Bonk")

	require.NotNil(t, rules.TokenPayment)
	assert.Equal(t, "BonkMint", rules.TokenPayment.Mint)
	// default payment still applies alongside
	require.NotNil(t, rules.SolPayment)
	assert.Equal(t, uint64(690_000_000), rules.SolPayment.Lamports)
}

func TestResolveMissingConfigIsUnrestricted(t *testing.T) {
	rules := Resolve(Config{}, "anything")

	assert.True(t, rules.Empty())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"Owner", "Bonk"}, testConfig().Labels())
}
