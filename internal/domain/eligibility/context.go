// internal/domain/eligibility/context.go
package eligibility

import "storefront/internal/domain/allowlist"

// ------------------------------------------------------
// WalletContext
// ------------------------------------------------------
//
// WalletContext is a session-scoped snapshot of live wallet/chain state,
// rebuilt from authoritative reads on every refresh. The client never
// treats its own copy as a source of truth for balances or limits; the
// minting program re-checks everything on submission.

// OwnedNFT is one NFT instance held by the wallet, keyed by its mint
// address and verified collection.
type OwnedNFT struct {
	Mint       string
	Collection string
}

// WalletContext carries everything Evaluate needs about the wallet and
// the chain at one instant.
type WalletContext struct {
	Wallet string

	// Lamports is the wallet's native balance.
	Lamports uint64

	// TokenBalances maps token mint address to the wallet's raw balance.
	TokenBalances map[string]uint64

	// NFTs is the wallet's NFT inventory.
	NFTs []OwnedNFT

	// RedeemedByWallet is the wallet's prior redemption count under the
	// active guard group (mint-limit counter).
	RedeemedByWallet uint64

	// GlobalRedeemed is the machine-wide redeemed count for the group,
	// when known. Nil means no global data: the redeemed-amount guard
	// then defaults to unbounded.
	GlobalRedeemed *uint64

	// AllowProof is the wallet's allow-list membership proof, when one
	// could be derived from the configured list. Nil when the wallet is
	// not on the list or no list is loaded.
	AllowProof allowlist.Proof
}

// ownedInCollection counts NFTs of the given verified collection.
func (c WalletContext) ownedInCollection(collection string) uint64 {
	var n uint64
	for _, nft := range c.NFTs {
		if nft.Collection == collection {
			n++
		}
	}
	return n
}
