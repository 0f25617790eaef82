// internal/domain/mintsession/request.go
package mintsession

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ------------------------------------------------------
// MintRequest / Receipt
// ------------------------------------------------------

var (
	ErrInvalidQuantity   = errors.New("mintsession: quantity must be >= 1")
	ErrInvalidWallet     = errors.New("mintsession: wallet is empty")
	ErrSelectionMismatch = errors.New("mintsession: one NFT selection required per unit")
)

// NFTSelection chooses which owned NFT instances satisfy the NFT
// burn/payment/gate guards for a single unit of the request. A nil
// field means the corresponding guard is inactive.
type NFTSelection struct {
	Burn    *string `json:"burn,omitempty"`
	Payment *string `json:"payment,omitempty"`
	Gate    *string `json:"gate,omitempty"`
}

// Request is one mint attempt: constructed fresh per attempt and
// consumed exactly once by the orchestrator.
type Request struct {
	Wallet     string         `json:"wallet"`
	Quantity   int            `json:"quantity"`
	GroupLabel string         `json:"groupLabel"`
	Selections []NFTSelection `json:"selections,omitempty"`
}

// Validate checks the structural invariants of the request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Wallet) == "" {
		return ErrInvalidWallet
	}
	if r.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if len(r.Selections) != 0 && len(r.Selections) != r.Quantity {
		return ErrSelectionMismatch
	}
	return nil
}

// Selection returns the NFT selection for unit i (zero value when the
// request carries none).
func (r Request) Selection(i int) NFTSelection {
	if i < 0 || i >= len(r.Selections) {
		return NFTSelection{}
	}
	return r.Selections[i]
}

// Receipt is one settled minted item.
type Receipt struct {
	ID        string    `json:"id"`
	Mint      string    `json:"mint"`
	Signature string    `json:"signature"`
	SettledAt time.Time `json:"settledAt"`
}

// ExplorerURL builds the solscan link for the minted item. Devnet and
// testnet clusters get the cluster query parameter, mainnet does not.
func (r Receipt) ExplorerURL(cluster string) string {
	u := fmt.Sprintf("https://solscan.io/address/%s", r.Mint)
	switch strings.ToLower(strings.TrimSpace(cluster)) {
	case "devnet", "testnet":
		return u + "?cluster=" + strings.ToLower(strings.TrimSpace(cluster))
	}
	return u
}
