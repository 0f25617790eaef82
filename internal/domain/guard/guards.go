// internal/domain/guard/guards.go
package guard

import "time"

// ------------------------------------------------------
// Guard value objects
// ------------------------------------------------------
//
// Each guard kind is a small value type describing one eligibility or
// payment rule of the candy guard program. A guard is active for a rule
// set when its pointer is non-nil; absent kinds are inactive. The
// resolver and evaluator switch over these fields exhaustively, never
// over kind strings.
//
// Amounts are raw on-chain units (lamports for SOL, base units for SPL
// tokens). UI conversion happens in the pricing layer.

// LamportsPerSOL is the lamport denomination of one SOL.
const LamportsPerSOL = 1_000_000_000

// StartDateGuard blocks minting until Date.
type StartDateGuard struct {
	Date time.Time
}

// EndDateGuard blocks minting from Date onward.
type EndDateGuard struct {
	Date time.Time
}

// SolPaymentGuard charges Lamports per minted item, paid to Destination.
type SolPaymentGuard struct {
	Lamports    uint64
	Destination string
}

// TokenPaymentGuard charges Amount (base units) of the Mint token per
// item, transferred to DestinationATA.
type TokenPaymentGuard struct {
	Amount         uint64
	Decimals       uint8
	Symbol         string
	Mint           string
	DestinationATA string
}

// TokenBurnGuard burns Amount (base units) of the Mint token per item.
type TokenBurnGuard struct {
	Amount   uint64
	Decimals uint8
	Symbol   string
	Mint     string
}

// TokenGateGuard requires the wallet to hold at least Amount of Mint.
// Nothing is transferred.
type TokenGateGuard struct {
	Amount   uint64
	Decimals uint8
	Symbol   string
	Mint     string
}

// NFTPaymentGuard takes one NFT of RequiredCollection per item as payment.
type NFTPaymentGuard struct {
	RequiredCollection string
	Destination        string
}

// NFTBurnGuard burns one NFT of RequiredCollection per item.
type NFTBurnGuard struct {
	RequiredCollection string
}

// NFTGateGuard requires the wallet to hold an NFT of RequiredCollection.
type NFTGateGuard struct {
	RequiredCollection string
}

// AllowListGuard restricts minting to wallets that can prove membership
// in the merkle tree rooted at MerkleRoot.
type AllowListGuard struct {
	MerkleRoot [32]byte
}

// AddressGateGuard restricts minting to exactly one wallet address.
type AddressGateGuard struct {
	Address string
}

// BotTaxGuard is the penalty charged on invalid mint attempts. It is a
// deterrent, not a price, and is excluded from display totals.
type BotTaxGuard struct {
	Lamports        uint64
	LastInstruction bool
}

// MintLimitGuard caps mints per wallet under this guard group. ID
// disambiguates several limits on the same machine.
type MintLimitGuard struct {
	ID    uint8
	Limit uint64
}

// RedeemedAmountGuard caps the machine-wide number of redeemed items
// for the group.
type RedeemedAmountGuard struct {
	Maximum uint64
}

// GatekeeperGuard requires an externally issued identity/captcha token
// on the Network gatekeeper network before a mint may be submitted.
type GatekeeperGuard struct {
	Network     string
	ExpireOnUse bool
}

// ------------------------------------------------------
// RuleSet
// ------------------------------------------------------

// RuleSet is the effective set of guards governing one mint attempt,
// produced by Resolve. Exactly one RuleSet is active per attempt. The
// zero value means "no guards active": an unrestricted, free mint.
type RuleSet struct {
	StartDate      *StartDateGuard
	EndDate        *EndDateGuard
	SolPayment     *SolPaymentGuard
	TokenPayment   *TokenPaymentGuard
	TokenBurn      *TokenBurnGuard
	TokenGate      *TokenGateGuard
	NFTPayment     *NFTPaymentGuard
	NFTBurn        *NFTBurnGuard
	NFTGate        *NFTGateGuard
	AllowList      *AllowListGuard
	AddressGate    *AddressGateGuard
	BotTax         *BotTaxGuard
	MintLimit      *MintLimitGuard
	RedeemedAmount *RedeemedAmountGuard
	Gatekeeper     *GatekeeperGuard
}

// Empty reports whether no guard is active.
func (r RuleSet) Empty() bool {
	return r == RuleSet{}
}
