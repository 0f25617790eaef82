// internal/application/storefront/quantity_test.go
package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantityClampsIntoRange(t *testing.T) {
	q := NewQuantityControl(5)

	q.Set(12)
	assert.Equal(t, 5, q.Value())

	q.Set(0)
	assert.Equal(t, 1, q.Value())

	q.Set(-3)
	assert.Equal(t, 1, q.Value())
}

func TestQuantityDisplayCap(t *testing.T) {
	q := NewQuantityControl(250)

	assert.Equal(t, DisplayCap, q.Max())
	q.Set(250)
	assert.Equal(t, DisplayCap, q.Value())
}

func TestQuantityIncrementDecrementBounds(t *testing.T) {
	q := NewQuantityControl(3)

	q.Decrement()
	assert.Equal(t, 1, q.Value())

	for i := 0; i < 10; i++ {
		q.Increment()
	}
	assert.Equal(t, 3, q.Value())
}

func TestSetLimitReclampsValue(t *testing.T) {
	q := NewQuantityControl(8)
	q.Set(8)

	q.SetLimit(2)
	assert.Equal(t, 2, q.Value())

	// zero limit keeps the value at the floor
	q.SetLimit(0)
	assert.Equal(t, 1, q.Value())
}

func TestDisabledFlags(t *testing.T) {
	q := NewQuantityControl(4)

	assert.False(t, q.Disabled(ControlState{}))
	assert.True(t, q.Disabled(ControlState{Loading: true}))
	assert.True(t, q.Disabled(ControlState{SoldOut: true}))
	assert.True(t, q.Disabled(ControlState{Minting: true}))
	assert.True(t, q.Disabled(ControlState{Ended: true}))
	assert.True(t, q.Disabled(ControlState{NotLive: true}))

	// value above the live limit disables even with no flags set
	q.SetLimit(0)
	assert.True(t, q.Disabled(ControlState{}))
}
