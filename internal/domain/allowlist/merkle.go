// internal/domain/allowlist/merkle.go
package allowlist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// ------------------------------------------------------
// Allow-list merkle tree
// ------------------------------------------------------
//
// The candy guard allow-list verifies wallet membership against a
// keccak-256 merkle root. Leaves are the hash of the base58-decoded
// wallet address; interior nodes hash the byte-wise smaller sibling
// first, so proofs do not need left/right markers.

var (
	ErrEmptyList      = errors.New("allowlist: empty address list")
	ErrUnknownAddress = errors.New("allowlist: address not in list")
)

// Proof is the sibling path from a leaf to the root.
type Proof [][32]byte

// Tree is a precomputed merkle tree over wallet addresses.
type Tree struct {
	root   [32]byte
	levels [][][32]byte // levels[0] = leaves
	index  map[string]int
}

func hashLeaf(address string) ([32]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return [32]byte{}, fmt.Errorf("allowlist: decode address %q: %w", address, err)
	}
	return keccak(raw), nil
}

func keccak(b []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return keccak(append(a[:], b[:]...))
}

// NewTree builds the tree for the given wallet addresses.
func NewTree(addresses []string) (*Tree, error) {
	if len(addresses) == 0 {
		return nil, ErrEmptyList
	}

	leaves := make([][32]byte, 0, len(addresses))
	index := make(map[string]int, len(addresses))
	for i, addr := range addresses {
		leaf, err := hashLeaf(addr)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
		index[addr] = i
	}

	levels := [][][32]byte{leaves}
	for level := leaves; len(level) > 1; {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd node is carried up unchanged
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{
		root:   levels[len(levels)-1][0],
		levels: levels,
		index:  index,
	}, nil
}

// Root returns the merkle root.
func (t *Tree) Root() [32]byte {
	return t.root
}

// Proof returns the membership proof for address, or ErrUnknownAddress.
func (t *Tree) Proof(address string) (Proof, error) {
	pos, ok := t.index[address]
	if !ok {
		return nil, ErrUnknownAddress
	}

	proof := make(Proof, 0, len(t.levels))
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}

// Verify recomputes the root from address and proof and compares it to
// root. It is a pure function usable without the full tree.
func Verify(root [32]byte, address string, proof Proof) bool {
	node, err := hashLeaf(address)
	if err != nil {
		return false
	}
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}
