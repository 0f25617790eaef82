// internal/infra/solana/candy_machine_test.go
package solana

import (
	"context"
	"testing"
	"time"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/guard"
)

// fakeRPC serves canned account data keyed by address.
type fakeRPC struct {
	balances map[string]uint64
	accounts map[string][]byte
	tokens     GetTokenAccountsByOwnerResult
	tokenCalls int
	calls      map[string]int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		balances: map[string]uint64{},
		accounts: map[string][]byte{},
		calls:    map[string]int{},
	}
}

func (f *fakeRPC) GetBalance(_ context.Context, address string) (uint64, error) {
	return f.balances[address], nil
}

func (f *fakeRPC) GetTokenAccountsByOwner(context.Context, string, string) (GetTokenAccountsByOwnerResult, error) {
	f.tokenCalls++
	return f.tokens, nil
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, address string) ([]byte, bool, error) {
	f.calls[address]++
	data, ok := f.accounts[address]
	return data, ok, nil
}

// anchorAccount prepends a dummy 8-byte discriminator to a borsh body.
func anchorAccount(t *testing.T, body any) []byte {
	t.Helper()
	raw, err := borsh.Serialize(body)
	require.NoError(t, err)
	return append([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0}, raw...)
}

func TestFetchStateDecodesMachineAndGuard(t *testing.T) {
	rpc := newFakeRPC()

	rpc.accounts["MachineAAAA"] = anchorAccount(t, candyMachineAccount{
		ItemsRedeemed: 40,
		Data: candyMachineData{
			ItemsAvailable:       100,
			Symbol:               "DROP",
			SellerFeeBasisPoints: 500,
			IsMutable:            true,
		},
	})

	bonkMint := [32]byte{7, 7, 7}
	rpc.accounts["GuardAAAA"] = anchorAccount(t, candyGuardAccount{
		Guards: guardSetData{
			SolPayment: &solPaymentData{Lamports: 690_000_000, Destination: [32]byte{1}},
			BotTax:     &botTaxData{Lamports: 133_700_000, LastInstruction: true},
		},
		Groups: []guardGroupData{{
			Label: "Bonk",
			Guards: guardSetData{
				TokenPayment: &tokenPaymentData{Amount: 5_000_000, Mint: bonkMint, DestinationATA: [32]byte{2}},
			},
		}},
	})

	// SPL mint account: decimals live at offset 44.
	mintAccount := make([]byte, 82)
	mintAccount[44] = 6
	rpc.accounts[pubkeyBase58(bonkMint)] = mintAccount

	c := NewCandyMachineClient(rpc, "MachineAAAA", "GuardAAAA",
		map[string]string{pubkeyBase58(bonkMint): "BONK"})

	st, err := c.FetchState(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(100), st.ItemsAvailable)
	assert.Equal(t, uint64(40), st.ItemsRedeemed)
	assert.Equal(t, uint64(60), st.Remaining())

	require.NotNil(t, st.Config.Default.SolPayment)
	assert.Equal(t, uint64(690_000_000), st.Config.Default.SolPayment.Lamports)
	require.NotNil(t, st.Config.Default.BotTax)

	rules := guard.Resolve(st.Config, "Bonk")
	require.NotNil(t, rules.TokenPayment)
	assert.Equal(t, uint64(5_000_000), rules.TokenPayment.Amount)
	assert.Equal(t, uint8(6), rules.TokenPayment.Decimals)
	assert.Equal(t, "BONK", rules.TokenPayment.Symbol)
}

func TestFetchStateCachesWithinTTL(t *testing.T) {
	rpc := newFakeRPC()
	rpc.accounts["MachineAAAA"] = anchorAccount(t, candyMachineAccount{
		Data: candyMachineData{ItemsAvailable: 10},
	})

	c := NewCandyMachineClient(rpc, "MachineAAAA", "", nil)
	c.TTL = time.Minute

	_, err := c.FetchState(context.Background())
	require.NoError(t, err)
	_, err = c.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rpc.calls["MachineAAAA"])

	c.Invalidate()
	_, err = c.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rpc.calls["MachineAAAA"])
}

func TestFetchStateMissingMachine(t *testing.T) {
	c := NewCandyMachineClient(newFakeRPC(), "MachineAAAA", "", nil)

	_, err := c.FetchState(context.Background())
	assert.Error(t, err)
}

func TestGuardConfigRoundTrip(t *testing.T) {
	// What the provision CLI writes, the storefront must read back.
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	in := guard.RuleSet{
		StartDate:  &guard.StartDateGuard{Date: start},
		SolPayment: &guard.SolPaymentGuard{Lamports: 100, Destination: pubkeyBase58([32]byte{9})},
		MintLimit:  &guard.MintLimitGuard{ID: 3, Limit: 7},
		AllowList:  &guard.AllowListGuard{MerkleRoot: [32]byte{5, 5}},
	}

	out := guardSetFromRules(in).toRuleSet(nil)

	require.NotNil(t, out.StartDate)
	assert.True(t, out.StartDate.Date.Equal(start))
	require.NotNil(t, out.SolPayment)
	assert.Equal(t, in.SolPayment.Destination, out.SolPayment.Destination)
	require.NotNil(t, out.MintLimit)
	assert.Equal(t, uint64(7), out.MintLimit.Limit)
	require.NotNil(t, out.AllowList)
	assert.Equal(t, in.AllowList.MerkleRoot, out.AllowList.MerkleRoot)
	assert.Nil(t, out.TokenPayment)
}
