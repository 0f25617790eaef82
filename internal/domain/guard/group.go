// internal/domain/guard/group.go
package guard

import "strings"

// ------------------------------------------------------
// Guard groups & resolver
// ------------------------------------------------------

// DefaultLabel is the sentinel label of the default guard set.
const DefaultLabel = "default"

// Group is one named bundle of guards (a minting tier or phase).
type Group struct {
	Label  string
	Guards RuleSet
}

// Config is the raw guard configuration fetched from the candy guard
// account: a default rule set plus zero or more labeled overrides.
// It is a read-only snapshot; the evaluator never mutates it.
type Config struct {
	Default RuleSet
	Groups  []Group
}

// Labels returns the configured group labels in on-chain order.
func (c Config) Labels() []string {
	out := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, g.Label)
	}
	return out
}

// group finds a labeled group; ok=false when the label is unknown.
func (c Config) group(label string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return Group{}, false
}

// Resolve merges the default rule set with the named group's overrides
// and returns the effective rule set for one mint attempt.
//
// Merge policy, per guard kind: the named group's guard wins when
// present, else the default's guard applies, else the kind is inactive.
// An empty or unknown label falls back to the default set. A missing
// configuration therefore resolves to the zero RuleSet, i.e. an
// unrestricted free mint. That fallback is deliberate: the chain is
// the authority, and an unconfigured machine has nothing to enforce.
func Resolve(cfg Config, label string) RuleSet {
	out := cfg.Default

	label = strings.TrimSpace(label)
	if label == "" || label == DefaultLabel {
		return out
	}

	g, ok := cfg.group(label)
	if !ok {
		return out
	}

	ov := g.Guards
	if ov.StartDate != nil {
		out.StartDate = ov.StartDate
	}
	if ov.EndDate != nil {
		out.EndDate = ov.EndDate
	}
	if ov.SolPayment != nil {
		out.SolPayment = ov.SolPayment
	}
	if ov.TokenPayment != nil {
		out.TokenPayment = ov.TokenPayment
	}
	if ov.TokenBurn != nil {
		out.TokenBurn = ov.TokenBurn
	}
	if ov.TokenGate != nil {
		out.TokenGate = ov.TokenGate
	}
	if ov.NFTPayment != nil {
		out.NFTPayment = ov.NFTPayment
	}
	if ov.NFTBurn != nil {
		out.NFTBurn = ov.NFTBurn
	}
	if ov.NFTGate != nil {
		out.NFTGate = ov.NFTGate
	}
	if ov.AllowList != nil {
		out.AllowList = ov.AllowList
	}
	if ov.AddressGate != nil {
		out.AddressGate = ov.AddressGate
	}
	if ov.BotTax != nil {
		out.BotTax = ov.BotTax
	}
	if ov.MintLimit != nil {
		out.MintLimit = ov.MintLimit
	}
	if ov.RedeemedAmount != nil {
		out.RedeemedAmount = ov.RedeemedAmount
	}
	if ov.Gatekeeper != nil {
		out.Gatekeeper = ov.Gatekeeper
	}
	return out
}
