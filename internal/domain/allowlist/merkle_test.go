// internal/domain/allowlist/merkle_test.go
package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base58 alphabet only (no 0, O, I, l)
var testWallets = []string{
	"Wa11etAAAA",
	"Wa11etBBBB",
	"Wa11etCCCC",
	"Wa11etDDDD",
	"Wa11etEEEE",
}

func TestNewTreeEmptyList(t *testing.T) {
	_, err := NewTree(nil)
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestNewTreeInvalidAddress(t *testing.T) {
	_, err := NewTree([]string{"not-base58-0OIl"})
	assert.Error(t, err)
}

func TestProofVerifiesForEveryMember(t *testing.T) {
	// Odd leaf count exercises the carried-up node path.
	tree, err := NewTree(testWallets)
	require.NoError(t, err)

	for _, w := range testWallets {
		proof, err := tree.Proof(w)
		require.NoError(t, err, w)
		assert.True(t, Verify(tree.Root(), w, proof), "wallet %s", w)
	}
}

func TestProofDoesNotTransfer(t *testing.T) {
	tree, err := NewTree(testWallets)
	require.NoError(t, err)

	proof, err := tree.Proof(testWallets[0])
	require.NoError(t, err)

	// Another member's address cannot reuse the proof.
	assert.False(t, Verify(tree.Root(), testWallets[1], proof))
	// Neither can a stranger.
	assert.False(t, Verify(tree.Root(), "Wa11etZZZZ", proof))
}

func TestProofUnknownAddress(t *testing.T) {
	tree, err := NewTree(testWallets)
	require.NoError(t, err)

	_, err = tree.Proof("Wa11etZZZZ")
	assert.ErrorIs(t, err, ErrUnknownAddress)
}

func TestSingleLeafTree(t *testing.T) {
	tree, err := NewTree(testWallets[:1])
	require.NoError(t, err)

	proof, err := tree.Proof(testWallets[0])
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, Verify(tree.Root(), testWallets[0], proof))
}

func TestRootIsOrderSensitiveButPairOrderIsNot(t *testing.T) {
	a, err := NewTree([]string{testWallets[0], testWallets[1]})
	require.NoError(t, err)
	b, err := NewTree([]string{testWallets[1], testWallets[0]})
	require.NoError(t, err)

	// Pair hashing sorts siblings, so a two-leaf tree is order independent.
	assert.Equal(t, a.Root(), b.Root())
}
