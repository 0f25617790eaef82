// internal/application/storefront/quantity.go
package storefront

// ============================================================
// Quantity control
// ============================================================

// DisplayCap is the stepper's hard display maximum regardless of how
// many items the verdict says the wallet could pay for.
const DisplayCap = 10

// QuantityControl is the stateful stepper bound to the verdict's
// CanPayFor limit. Every mutation clamps, so an out-of-range value can
// never be submitted.
type QuantityControl struct {
	value int
	limit int
}

// ControlState carries the UI flags that disable the control.
type ControlState struct {
	Loading  bool
	SoldOut  bool
	Minting  bool
	Ended    bool
	NotLive  bool
}

// NewQuantityControl starts at quantity 1 with the given limit.
func NewQuantityControl(limit int) *QuantityControl {
	q := &QuantityControl{value: 1}
	q.SetLimit(limit)
	return q
}

// Max is the effective upper bound: min(limit, DisplayCap), never
// below 1 so the clamp range stays well-formed.
func (q *QuantityControl) Max() int {
	m := q.limit
	if m > DisplayCap {
		m = DisplayCap
	}
	if m < 1 {
		m = 1
	}
	return m
}

// Value returns the current quantity.
func (q *QuantityControl) Value() int { return q.value }

// Limit returns the verdict-derived limit.
func (q *QuantityControl) Limit() int { return q.limit }

// SetLimit updates the limit and re-clamps the current value.
func (q *QuantityControl) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	q.limit = limit
	q.Set(q.value)
}

// Set clamps v into [1, Max] and stores it.
func (q *QuantityControl) Set(v int) {
	if v < 1 {
		v = 1
	}
	if m := q.Max(); v > m {
		v = m
	}
	q.value = v
}

// Increment moves up by one, never past the limit.
func (q *QuantityControl) Increment() { q.Set(q.value + 1) }

// Decrement moves down by one, never below one.
func (q *QuantityControl) Decrement() { q.Set(q.value - 1) }

// Disabled reports whether the mint action must be disabled: loading,
// sold out, minting in progress, ended, not active, or the requested
// quantity exceeds what the wallet can still mint.
func (q *QuantityControl) Disabled(st ControlState) bool {
	return st.Loading ||
		st.SoldOut ||
		st.Minting ||
		st.Ended ||
		st.NotLive ||
		q.value > q.limit
}
