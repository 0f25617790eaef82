// internal/domain/eligibility/verdict.go
package eligibility

// ------------------------------------------------------
// Verdict
// ------------------------------------------------------

// UnlimitedMintable is the CanPayFor sentinel for "no active ceiling".
// Large enough that any display cap wins the min, small enough that
// arithmetic around it cannot overflow.
const UnlimitedMintable = 1 << 30

// Verdict is the structured eligibility result for one rule set and one
// wallet snapshot. It is derived fresh on every evaluation and never
// persisted; all blocking conditions are data, not errors.
type Verdict struct {
	IsStarted           bool     `json:"isStarted"`
	IsEnded             bool     `json:"isEnded"`
	IsLimitReached      bool     `json:"isLimitReached"`
	CanPayFor           int      `json:"canPayFor"`
	IsWalletWhitelisted bool     `json:"isWalletWhitelisted"`
	HasGatekeeper       bool     `json:"hasGatekeeper"`
	Messages            []string `json:"messages"`
}

// Mintable is the overall conjunction: every independent check passed
// and at least one more item can be minted.
func (v Verdict) Mintable() bool {
	return v.IsStarted &&
		!v.IsEnded &&
		!v.IsLimitReached &&
		v.IsWalletWhitelisted &&
		v.CanPayFor > 0 &&
		len(v.Messages) == 0
}
