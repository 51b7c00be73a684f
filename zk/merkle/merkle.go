// Package merkle commits to a whole shuffled deck with a MiMC Merkle tree.
// Leaf i is MiMC(i, cardIndex); the 52 leaves are padded to 64 by repeating the last one.
package merkle

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
)

const (
	Depth     = 6
	LeafCount = 1 << Depth
)

var ErrPosition = errors.New("position out of range")

// MerkleProof is the sibling path from a leaf to the root.
// Indices[i] is true when the node at level i is a right child.
type MerkleProof struct {
	Path    [][32]byte `json:"path"`
	Indices []bool     `json:"indices"`
}

// Tree holds every level of the deck tree, leaves first.
type Tree struct {
	levels [][][32]byte
}

// Leaf hashes one deck position.
func Leaf(position uint8, cardIndex uint8) [32]byte {
	var p, v fr.Element
	p.SetUint64(uint64(position))
	v.SetUint64(uint64(cardIndex))
	return commitment.Hash(p, v)
}

func node(left, right [32]byte) [32]byte {
	return commitment.Hash(commitment.Element(left[:]), commitment.Element(right[:]))
}

func NewTree(deck [poker.DeckSize]poker.Card) *Tree {
	leaves := make([][32]byte, LeafCount)
	for i, c := range deck {
		leaves[i] = Leaf(uint8(i), c.Index())
	}
	for i := poker.DeckSize; i < LeafCount; i++ {
		leaves[i] = leaves[poker.DeckSize-1]
	}
	t := &Tree{levels: [][][32]byte{leaves}}
	for level := leaves; len(level) > 1; {
		next := make([][32]byte, len(level)/2)
		for i := range next {
			next[i] = node(level[2*i], level[2*i+1])
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

func (t *Tree) Root() [32]byte {
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the inclusion path of a deck position.
func (t *Tree) Proof(position uint8) (MerkleProof, error) {
	if int(position) >= poker.DeckSize {
		return MerkleProof{}, fmt.Errorf("%w: %d", ErrPosition, position)
	}
	p := MerkleProof{
		Path:    make([][32]byte, Depth),
		Indices: make([]bool, Depth),
	}
	idx := int(position)
	for level := 0; level < Depth; level++ {
		p.Path[level] = t.levels[level][idx^1]
		p.Indices[level] = idx&1 == 1
		idx >>= 1
	}
	return p, nil
}

// BuildRoot is the root of the tree over deck.
func BuildRoot(deck [poker.DeckSize]poker.Card) [32]byte {
	return NewTree(deck).Root()
}

// VerifyProof reports whether cardIndex sits at position under root.
func VerifyProof(root [32]byte, position uint8, cardIndex uint8, proof MerkleProof) bool {
	if int(position) >= poker.DeckSize || len(proof.Path) != Depth || len(proof.Indices) != Depth {
		return false
	}
	cur := Leaf(position, cardIndex)
	for level := 0; level < Depth; level++ {
		if proof.Indices[level] != (position>>level&1 == 1) {
			return false
		}
		if proof.Indices[level] {
			cur = node(proof.Path[level], cur)
		} else {
			cur = node(cur, proof.Path[level])
		}
	}
	return cur == root
}
