// internal/infra/solana/accounts.go
package solana

import (
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"

	"storefront/internal/domain/guard"
)

// ------------------------------------------------------
// On-chain account layouts (borsh)
// ------------------------------------------------------
//
// Anchor accounts carry an 8-byte discriminator before the borsh body.
// Optional guards serialize as borsh options (nil pointer = absent),
// matching the candy guard's feature-flagged guard set. The provision
// CLI writes the same layout this client reads.

const accountDiscriminatorLen = 8

type candyMachineData struct {
	ItemsAvailable       uint64
	Symbol               string
	SellerFeeBasisPoints uint16
	MaxSupply            uint64
	IsMutable            bool
}

type candyMachineAccount struct {
	Authority      [32]byte
	MintAuthority  [32]byte
	CollectionMint [32]byte
	ItemsRedeemed  uint64
	Data           candyMachineData
}

type botTaxData struct {
	Lamports        uint64
	LastInstruction bool
}

type solPaymentData struct {
	Lamports    uint64
	Destination [32]byte
}

type tokenPaymentData struct {
	Amount         uint64
	Mint           [32]byte
	DestinationATA [32]byte
}

type dateData struct {
	Timestamp int64 // unix seconds
}

type tokenGateData struct {
	Amount uint64
	Mint   [32]byte
}

type tokenBurnData struct {
	Amount uint64
	Mint   [32]byte
}

type gatekeeperData struct {
	Network     [32]byte
	ExpireOnUse bool
}

type allowListData struct {
	MerkleRoot [32]byte
}

type mintLimitData struct {
	ID    uint8
	Limit uint16
}

type redeemedAmountData struct {
	Maximum uint64
}

type addressGateData struct {
	Address [32]byte
}

type nftPaymentData struct {
	RequiredCollection [32]byte
	Destination        [32]byte
}

type nftGateData struct {
	RequiredCollection [32]byte
}

type nftBurnData struct {
	RequiredCollection [32]byte
}

// guardSetData mirrors the candy guard's guard set, field order fixed
// by the wire layout.
type guardSetData struct {
	BotTax         *botTaxData
	SolPayment     *solPaymentData
	TokenPayment   *tokenPaymentData
	StartDate      *dateData
	TokenGate      *tokenGateData
	Gatekeeper     *gatekeeperData
	EndDate        *dateData
	AllowList      *allowListData
	MintLimit      *mintLimitData
	NFTPayment     *nftPaymentData
	RedeemedAmount *redeemedAmountData
	AddressGate    *addressGateData
	NFTGate        *nftGateData
	NFTBurn        *nftBurnData
	TokenBurn      *tokenBurnData
}

type guardGroupData struct {
	Label  string
	Guards guardSetData
}

type candyGuardAccount struct {
	Base      [32]byte
	Bump      uint8
	Authority [32]byte
	Guards    guardSetData
	Groups    []guardGroupData
}

// mintCounterAccount is the per-wallet mint-limit counter PDA body.
type mintCounterAccount struct {
	Count uint16
}

func decodeAccount(data []byte, out any) error {
	if len(data) < accountDiscriminatorLen {
		return fmt.Errorf("solana accounts: data too short (%d bytes)", len(data))
	}
	if err := borsh.Deserialize(out, data[accountDiscriminatorLen:]); err != nil {
		return fmt.Errorf("solana accounts: borsh decode: %w", err)
	}
	return nil
}

// ------------------------------------------------------
// Wire → domain mapping
// ------------------------------------------------------

// tokenMeta resolves display decimals/symbols for token guards; keyed
// by mint address.
type tokenMeta struct {
	Decimals uint8
	Symbol   string
}

func (g guardSetData) toRuleSet(tokens map[string]tokenMeta) guard.RuleSet {
	var out guard.RuleSet

	if g.BotTax != nil {
		out.BotTax = &guard.BotTaxGuard{
			Lamports:        g.BotTax.Lamports,
			LastInstruction: g.BotTax.LastInstruction,
		}
	}
	if g.SolPayment != nil {
		out.SolPayment = &guard.SolPaymentGuard{
			Lamports:    g.SolPayment.Lamports,
			Destination: pubkeyBase58(g.SolPayment.Destination),
		}
	}
	if g.TokenPayment != nil {
		mint := pubkeyBase58(g.TokenPayment.Mint)
		meta := tokens[mint]
		out.TokenPayment = &guard.TokenPaymentGuard{
			Amount:         g.TokenPayment.Amount,
			Decimals:       meta.Decimals,
			Symbol:         meta.Symbol,
			Mint:           mint,
			DestinationATA: pubkeyBase58(g.TokenPayment.DestinationATA),
		}
	}
	if g.StartDate != nil {
		out.StartDate = &guard.StartDateGuard{Date: time.Unix(g.StartDate.Timestamp, 0).UTC()}
	}
	if g.EndDate != nil {
		out.EndDate = &guard.EndDateGuard{Date: time.Unix(g.EndDate.Timestamp, 0).UTC()}
	}
	if g.TokenGate != nil {
		mint := pubkeyBase58(g.TokenGate.Mint)
		meta := tokens[mint]
		out.TokenGate = &guard.TokenGateGuard{
			Amount:   g.TokenGate.Amount,
			Decimals: meta.Decimals,
			Symbol:   meta.Symbol,
			Mint:     mint,
		}
	}
	if g.TokenBurn != nil {
		mint := pubkeyBase58(g.TokenBurn.Mint)
		meta := tokens[mint]
		out.TokenBurn = &guard.TokenBurnGuard{
			Amount:   g.TokenBurn.Amount,
			Decimals: meta.Decimals,
			Symbol:   meta.Symbol,
			Mint:     mint,
		}
	}
	if g.Gatekeeper != nil {
		out.Gatekeeper = &guard.GatekeeperGuard{
			Network:     pubkeyBase58(g.Gatekeeper.Network),
			ExpireOnUse: g.Gatekeeper.ExpireOnUse,
		}
	}
	if g.AllowList != nil {
		out.AllowList = &guard.AllowListGuard{MerkleRoot: g.AllowList.MerkleRoot}
	}
	if g.MintLimit != nil {
		out.MintLimit = &guard.MintLimitGuard{
			ID:    g.MintLimit.ID,
			Limit: uint64(g.MintLimit.Limit),
		}
	}
	if g.NFTPayment != nil {
		out.NFTPayment = &guard.NFTPaymentGuard{
			RequiredCollection: pubkeyBase58(g.NFTPayment.RequiredCollection),
			Destination:        pubkeyBase58(g.NFTPayment.Destination),
		}
	}
	if g.RedeemedAmount != nil {
		out.RedeemedAmount = &guard.RedeemedAmountGuard{Maximum: g.RedeemedAmount.Maximum}
	}
	if g.AddressGate != nil {
		out.AddressGate = &guard.AddressGateGuard{Address: pubkeyBase58(g.AddressGate.Address)}
	}
	if g.NFTGate != nil {
		out.NFTGate = &guard.NFTGateGuard{RequiredCollection: pubkeyBase58(g.NFTGate.RequiredCollection)}
	}
	if g.NFTBurn != nil {
		out.NFTBurn = &guard.NFTBurnGuard{RequiredCollection: pubkeyBase58(g.NFTBurn.RequiredCollection)}
	}

	return out
}

func pubkeyBase58(b [32]byte) string {
	return common.PublicKeyFromBytes(b[:]).ToBase58()
}
