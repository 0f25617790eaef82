// internal/domain/pricing/prices.go
package pricing

// ------------------------------------------------------
// Price lines
// ------------------------------------------------------

// Kind classifies what a price line is denominated in.
type Kind string

const (
	KindNative     Kind = "native"
	KindToken      Kind = "token"
	KindNFTBurn    Kind = "nft-burn"
	KindNFTPayment Kind = "nft-payment"
)

// NetworkFeeLamports is the fixed per-item network fee folded into the
// "total estimated cost" display. Carried from the source storefront
// (0.012 SOL per mint); it is not part of any guard.
const NetworkFeeLamports = 12_000_000

// Line is one aggregated cost entry for the UI.
type Line struct {
	Kind Kind `json:"kind"`

	// Asset identifies the token mint or required collection; empty for
	// the native currency.
	Asset string `json:"asset,omitempty"`

	// Amount is the UI-scale amount (SOL for native, token units for
	// tokens, item count for NFTs).
	Amount float64 `json:"amount"`

	// Label is the human-readable asset label ("SOL", "$BONK", …).
	Label string `json:"label"`

	// raw keeps the on-chain units so scaling and max-dedup stay exact.
	raw      uint64
	decimals uint8
}

// Prices is the aggregated multi-currency cost of one mint request,
// bucketed the way the UI renders it. Gate lines carry a required
// holding, not a transfer, and are never scaled by quantity.
type Prices struct {
	Payment []Line `json:"payment"`
	Burn    []Line `json:"burn"`
	Gate    []Line `json:"gate"`

	// BotTaxSOL is the invalid-attempt penalty, shown separately and
	// excluded from every total.
	BotTaxSOL float64 `json:"botTaxSol,omitempty"`
}

// TotalSOL is the native payment total for the aggregated quantity,
// network fees included (quantity × NetworkFeeLamports), bot-tax
// excluded.
func (p Prices) TotalSOL(quantity int) float64 {
	var lamports uint64
	for _, l := range p.Payment {
		if l.Kind == KindNative {
			lamports += l.raw
		}
	}
	lamports += uint64(quantity) * NetworkFeeLamports
	return lamportsToSOL(lamports)
}

func lamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / 1e9
}

func tokenUnits(raw uint64, decimals uint8) float64 {
	d := float64(1)
	for i := uint8(0); i < decimals; i++ {
		d *= 10
	}
	return float64(raw) / d
}
