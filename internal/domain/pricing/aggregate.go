// internal/domain/pricing/aggregate.go
package pricing

import (
	"storefront/internal/domain/guard"
)

// bucket indexes preserve first-seen placement during dedup.
type bucket int

const (
	bucketPayment bucket = iota
	bucketBurn
	bucketGate
)

type entry struct {
	line   Line
	bucket bucket
}

// Aggregate computes the displayable cost of minting quantity items
// under the given rule set.
//
// Payment and burn guards are per-item: their raw amounts scale by
// quantity before aggregation. Gate guards are holding checks with no
// transfer and never scale. Lines dedup by (kind, asset): when the same
// asset appears in more than one guard, a single line keeps the maximum
// of the competing requirements: a superseding requirement, not a
// cumulative one, governs the display.
//
// Pure computation; no side effects.
func Aggregate(rules guard.RuleSet, quantity int) Prices {
	if quantity < 1 {
		quantity = 1
	}
	q := uint64(quantity)

	index := map[[2]string]int{}
	var entries []entry

	add := func(b bucket, k Kind, asset, label string, raw uint64, decimals uint8) {
		key := [2]string{string(k), asset}
		if i, ok := index[key]; ok {
			if raw > entries[i].line.raw {
				entries[i].line.raw = raw
			}
			return
		}
		index[key] = len(entries)
		entries = append(entries, entry{
			line:   Line{Kind: k, Asset: asset, Label: label, raw: raw, decimals: decimals},
			bucket: b,
		})
	}

	// Payment guards (per item, scaled).
	if g := rules.SolPayment; g != nil {
		add(bucketPayment, KindNative, "", "SOL", g.Lamports*q, 9)
	}
	if g := rules.TokenPayment; g != nil {
		add(bucketPayment, KindToken, g.Mint, tokenLabel(g.Symbol), g.Amount*q, g.Decimals)
	}
	if g := rules.NFTPayment; g != nil {
		add(bucketPayment, KindNFTPayment, g.RequiredCollection, "NFT", q, 0)
	}

	// Burn guards (per item, scaled).
	if g := rules.TokenBurn; g != nil {
		add(bucketBurn, KindToken, g.Mint, tokenLabel(g.Symbol), g.Amount*q, g.Decimals)
	}
	if g := rules.NFTBurn; g != nil {
		add(bucketBurn, KindNFTBurn, g.RequiredCollection, "NFT", q, 0)
	}

	// Gate guards (required holdings, never scaled).
	if g := rules.TokenGate; g != nil {
		add(bucketGate, KindToken, g.Mint, tokenLabel(g.Symbol), g.Amount, g.Decimals)
	}
	if g := rules.NFTGate; g != nil {
		add(bucketGate, KindNFTPayment, g.RequiredCollection, "NFT", 1, 0)
	}

	var out Prices
	for _, e := range entries {
		l := e.line
		if l.Kind == KindNative {
			l.Amount = lamportsToSOL(l.raw)
		} else {
			l.Amount = tokenUnits(l.raw, l.decimals)
		}
		switch e.bucket {
		case bucketPayment:
			out.Payment = append(out.Payment, l)
		case bucketBurn:
			out.Burn = append(out.Burn, l)
		case bucketGate:
			out.Gate = append(out.Gate, l)
		}
	}

	// Bot tax is a penalty, never part of a total.
	if g := rules.BotTax; g != nil {
		out.BotTaxSOL = lamportsToSOL(g.Lamports)
	}

	return out
}

func tokenLabel(symbol string) string {
	if symbol == "" {
		return "tokens"
	}
	return "$" + symbol
}
