// internal/application/storefront/service_test.go
package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/eligibility"
	"storefront/internal/domain/guard"
	"storefront/internal/domain/mintsession"
)

type fakeMachine struct {
	state MachineState
	err   error
	calls int
}

func (f *fakeMachine) FetchState(context.Context) (MachineState, error) {
	f.calls++
	return f.state, f.err
}

type fakeWallets struct {
	ctx eligibility.WalletContext
	err error
}

func (f *fakeWallets) ReadContext(_ context.Context, wallet string, _ guard.RuleSet) (eligibility.WalletContext, error) {
	out := f.ctx
	out.Wallet = wallet
	return out, f.err
}

func fixedNow(s *Service) {
	s.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
}

func TestStateHappyPath(t *testing.T) {
	machine := &fakeMachine{state: MachineState{
		Config: guard.Config{
			Default: guard.RuleSet{SolPayment: &guard.SolPaymentGuard{Lamports: 690_000_000}},
		},
		ItemsAvailable: 100,
		ItemsRedeemed:  40,
	}}
	wallets := &fakeWallets{ctx: eligibility.WalletContext{Lamports: 5 * guard.LamportsPerSOL}}

	svc := NewService(machine, wallets, nil, "")
	fixedNow(svc)

	st, err := svc.State(context.Background(), "Wa11etAAAA", "", 2)
	require.NoError(t, err)

	assert.Equal(t, guard.DefaultLabel, st.GroupLabel)
	assert.Equal(t, uint64(60), st.ItemsRemaining)
	assert.Equal(t, 5.0, st.SolBalance)
	assert.True(t, st.Verdict.Mintable())
	assert.True(t, st.Mintable)
	assert.False(t, st.SoldOut)
	require.Len(t, st.Prices.Payment, 1)
	assert.Equal(t, 1.38, st.Prices.Payment[0].Amount)
	assert.Equal(t, 1.404, st.TotalSOL)
}

func TestStateMachineErrorIsConfigUnavailable(t *testing.T) {
	machine := &fakeMachine{err: errors.New("rpc: connection refused")}
	svc := NewService(machine, &fakeWallets{}, nil, "")

	_, err := svc.State(context.Background(), "Wa11etAAAA", "", 1)
	assert.ErrorIs(t, err, mintsession.ErrConfigUnavailable)
}

func TestStateSoldOut(t *testing.T) {
	machine := &fakeMachine{state: MachineState{
		ItemsAvailable: 10,
		ItemsRedeemed:  10,
	}}
	svc := NewService(machine, &fakeWallets{}, nil, "")
	fixedNow(svc)

	st, err := svc.State(context.Background(), "Wa11etAAAA", "", 1)
	require.NoError(t, err)

	assert.True(t, st.SoldOut)
	assert.False(t, st.Mintable)
	assert.Equal(t, uint64(0), st.ItemsRemaining)
}

func TestStateAttachesAllowProof(t *testing.T) {
	tree, err := allowlist.NewTree([]string{"Wa11etAAAA", "Wa11etBBBB"})
	require.NoError(t, err)

	machine := &fakeMachine{state: MachineState{
		Config: guard.Config{
			Groups: []guard.Group{{
				Label:  "Owner",
				Guards: guard.RuleSet{AllowList: &guard.AllowListGuard{MerkleRoot: tree.Root()}},
			}},
		},
		ItemsAvailable: 10,
	}}
	svc := NewService(machine, &fakeWallets{}, map[string]*allowlist.Tree{"Owner": tree}, "")
	fixedNow(svc)

	st, err := svc.State(context.Background(), "Wa11etAAAA", "Owner", 1)
	require.NoError(t, err)
	assert.True(t, st.Verdict.IsWalletWhitelisted)

	st, err = svc.State(context.Background(), "Wa11etZZZZ", "Owner", 1)
	require.NoError(t, err)
	assert.False(t, st.Verdict.IsWalletWhitelisted)
}

func TestStateFillsGlobalRedeemedFromMachine(t *testing.T) {
	machine := &fakeMachine{state: MachineState{
		Config: guard.Config{
			Default: guard.RuleSet{RedeemedAmount: &guard.RedeemedAmountGuard{Maximum: 50}},
		},
		ItemsAvailable: 100,
		ItemsRedeemed:  50,
	}}
	svc := NewService(machine, &fakeWallets{}, nil, "")
	fixedNow(svc)

	st, err := svc.State(context.Background(), "Wa11etAAAA", "", 1)
	require.NoError(t, err)

	assert.True(t, st.Verdict.IsLimitReached)
	assert.False(t, st.Mintable)
}

func TestRulesResolvesGroup(t *testing.T) {
	machine := &fakeMachine{state: MachineState{
		Config: guard.Config{
			Default: guard.RuleSet{SolPayment: &guard.SolPaymentGuard{Lamports: 100}},
			Groups: []guard.Group{{
				Label:  "Owner",
				Guards: guard.RuleSet{SolPayment: &guard.SolPaymentGuard{Lamports: 1}},
			}},
		},
	}}
	svc := NewService(machine, &fakeWallets{}, nil, "")

	rules, err := svc.Rules(context.Background(), "Owner")
	require.NoError(t, err)
	require.NotNil(t, rules.SolPayment)
	assert.Equal(t, uint64(1), rules.SolPayment.Lamports)
}

func TestProofForUnknownWalletIsNil(t *testing.T) {
	tree, err := allowlist.NewTree([]string{"Wa11etAAAA"})
	require.NoError(t, err)

	svc := NewService(&fakeMachine{}, &fakeWallets{}, map[string]*allowlist.Tree{"Owner": tree}, "")

	assert.NotNil(t, svc.Proof("Owner", "Wa11etAAAA"))
	assert.Nil(t, svc.Proof("Owner", "Wa11etZZZZ"))
	assert.Nil(t, svc.Proof("NoList", "Wa11etAAAA"))
}
