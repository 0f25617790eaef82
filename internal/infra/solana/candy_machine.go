// internal/infra/solana/candy_machine.go
package solana

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"storefront/internal/application/storefront"
	"storefront/internal/domain/guard"
)

// CandyMachineClient reads the candy machine and candy guard accounts
// and exposes them as a storefront.MachineReader. The snapshot is
// cached for a short TTL: guard groups are read-only per session, and
// every refresh is a full re-read from the chain.
type CandyMachineClient struct {
	RPC       RPCClient
	MachineID string
	GuardID   string

	// Symbols maps token mint → display symbol (decimals are read from
	// the chain).
	Symbols map[string]string

	TTL time.Duration

	mu        sync.Mutex
	cached    *storefront.MachineState
	fetchedAt time.Time
}

var _ storefront.MachineReader = (*CandyMachineClient)(nil)

// NewCandyMachineClient wires the reader for one machine/guard pair.
func NewCandyMachineClient(rpc RPCClient, machineID, guardID string, symbols map[string]string) *CandyMachineClient {
	return &CandyMachineClient{
		RPC:       rpc,
		MachineID: strings.TrimSpace(machineID),
		GuardID:   strings.TrimSpace(guardID),
		Symbols:   symbols,
		TTL:       15 * time.Second,
	}
}

// FetchState implements storefront.MachineReader.
func (c *CandyMachineClient) FetchState(ctx context.Context) (storefront.MachineState, error) {
	if c == nil || c.RPC == nil {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: not configured")
	}
	if c.MachineID == "" {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: machine id is empty")
	}

	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.TTL {
		st := *c.cached
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	st, err := c.fetch(ctx)
	if err != nil {
		return storefront.MachineState{}, err
	}

	c.mu.Lock()
	c.cached = &st
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return st, nil
}

// Invalidate drops the cached snapshot (called after a settled mint so
// the redeemed count refreshes).
func (c *CandyMachineClient) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *CandyMachineClient) fetch(ctx context.Context) (storefront.MachineState, error) {
	raw, ok, err := c.RPC.GetAccountInfo(ctx, c.MachineID)
	if err != nil {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: fetch machine: %w", err)
	}
	if !ok {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: machine account %s not found", c.MachineID)
	}

	var machine candyMachineAccount
	if err := decodeAccount(raw, &machine); err != nil {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: machine account: %w", err)
	}

	st := storefront.MachineState{
		ItemsAvailable: machine.Data.ItemsAvailable,
		ItemsRedeemed:  machine.ItemsRedeemed,
	}

	// A machine without a guard account resolves to "no guards active".
	if c.GuardID == "" {
		log.Printf("[candy_machine] no guard account configured; serving unrestricted config")
		return st, nil
	}

	graw, ok, err := c.RPC.GetAccountInfo(ctx, c.GuardID)
	if err != nil {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: fetch guard: %w", err)
	}
	if !ok {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: guard account %s not found", c.GuardID)
	}

	var guardAcc candyGuardAccount
	if err := decodeAccount(graw, &guardAcc); err != nil {
		return storefront.MachineState{}, fmt.Errorf("candy machine client: guard account: %w", err)
	}

	tokens, err := c.tokenMetas(ctx, guardAcc)
	if err != nil {
		return storefront.MachineState{}, err
	}

	st.Config = guard.Config{Default: guardAcc.Guards.toRuleSet(tokens)}
	for _, g := range guardAcc.Groups {
		st.Config.Groups = append(st.Config.Groups, guard.Group{
			Label:  g.Label,
			Guards: g.Guards.toRuleSet(tokens),
		})
	}

	log.Printf("[candy_machine] fetched machine=%s redeemed=%d/%d groups=%d",
		maskShort(c.MachineID), st.ItemsRedeemed, st.ItemsAvailable, len(st.Config.Groups))
	return st, nil
}

// tokenMetas reads the decimals of every token mint referenced by a
// guard (SPL mint account layout keeps decimals at offset 44) and joins
// them with the configured symbols.
func (c *CandyMachineClient) tokenMetas(ctx context.Context, acc candyGuardAccount) (map[string]tokenMeta, error) {
	mints := map[string]struct{}{}
	collect := func(g guardSetData) {
		if g.TokenPayment != nil {
			mints[pubkeyBase58(g.TokenPayment.Mint)] = struct{}{}
		}
		if g.TokenBurn != nil {
			mints[pubkeyBase58(g.TokenBurn.Mint)] = struct{}{}
		}
		if g.TokenGate != nil {
			mints[pubkeyBase58(g.TokenGate.Mint)] = struct{}{}
		}
	}
	collect(acc.Guards)
	for _, g := range acc.Groups {
		collect(g.Guards)
	}

	out := make(map[string]tokenMeta, len(mints))
	for mint := range mints {
		meta := tokenMeta{Symbol: c.Symbols[mint]}
		raw, ok, err := c.RPC.GetAccountInfo(ctx, mint)
		if err != nil {
			return nil, fmt.Errorf("candy machine client: fetch mint %s: %w", maskShort(mint), err)
		}
		if ok && len(raw) > 44 {
			meta.Decimals = raw[44]
		}
		out[mint] = meta
	}
	return out, nil
}

// maskShort shortens addresses for logs.
func maskShort(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
