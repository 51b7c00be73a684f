package circuit

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/luca-patrignani/zk-holdem/zk/commitment"
	"github.com/luca-patrignani/zk-holdem/zk/merkle"
)

// ErrUnsatisfiable is returned by witness validation when no proof could be produced.
var ErrUnsatisfiable = errors.New("witness does not satisfy the circuit")

const maxValue = 52

// DealingWitness is everything the table knows about the two hole cards of one player.
type DealingWitness struct {
	DeckRoot    [32]byte
	Commitments [2]commitment.CardCommitment
	Positions   [2]uint8
	Values      [2]uint8
	Paths       [2]merkle.MerkleProof
	Blindings   [2][]byte
}

func unsatisfiable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsatisfiable, fmt.Sprintf(format, args...))
}

// Validate rejects witnesses that cannot satisfy DealingCircuit before any proving work.
func (w DealingWitness) Validate() error {
	if w.Positions[0] == w.Positions[1] {
		return unsatisfiable("duplicate position %d", w.Positions[0])
	}
	if len(w.Paths[0].Path) != len(w.Paths[1].Path) {
		return unsatisfiable("mismatched merkle depths %d and %d", len(w.Paths[0].Path), len(w.Paths[1].Path))
	}
	for i := 0; i < 2; i++ {
		if w.Positions[i] >= maxValue {
			return unsatisfiable("position %d out of range", w.Positions[i])
		}
		if w.Values[i] >= maxValue {
			return unsatisfiable("value %d out of range", w.Values[i])
		}
		p := w.Paths[i]
		if len(p.Path) != merkle.Depth || len(p.Indices) != merkle.Depth {
			return unsatisfiable("merkle path %d has depth %d, want %d", i, len(p.Path), merkle.Depth)
		}
		for level, right := range p.Indices {
			if right != (w.Positions[i]>>level&1 == 1) {
				return unsatisfiable("merkle path %d does not match position %d", i, w.Positions[i])
			}
		}
		if err := commitment.CheckBlinding(w.Blindings[i]); err != nil {
			return unsatisfiable("card %d: %v", i, err)
		}
		if !w.Commitments[i].WellFormed() {
			return unsatisfiable("card %d: malformed commitment", i)
		}
	}
	return nil
}

// Assignment returns the full circuit assignment for w.
func (w DealingWitness) Assignment() *DealingCircuit {
	a := DealingPublic(w.DeckRoot, w.Commitments)
	for i := 0; i < 2; i++ {
		a.Positions[i] = uint64(w.Positions[i])
		a.Values[i] = uint64(w.Values[i])
		a.Blindings[i] = new(big.Int).SetBytes(w.Blindings[i])
		a.Nonces[i] = new(big.Int).SetBytes(w.Commitments[i].Nonce)
		for level := 0; level < merkle.Depth; level++ {
			a.Paths[i][level] = new(big.Int).SetBytes(w.Paths[i].Path[level][:])
		}
	}
	return a
}

// DealingPublic assigns only the public inputs, in the order the verifier expects.
func DealingPublic(root [32]byte, commitments [2]commitment.CardCommitment) *DealingCircuit {
	a := &DealingCircuit{}
	assignBytes(a.DeckRoot[:], root[:])
	for i := 0; i < 2; i++ {
		assignBytes(a.Commitments[i][:], commitments[i].Commitment)
	}
	return a
}

// RevealWitness opens the two hole cards of one player.
type RevealWitness struct {
	Commitments [2]commitment.CardCommitment
	Values      [2]uint8
	Blindings   [2][]byte
}

func (w RevealWitness) Validate() error {
	for i := 0; i < 2; i++ {
		if len(w.Commitments[i].Commitment) != commitment.CommitmentSize {
			return unsatisfiable("commitment %d has %d bytes, want %d", i, len(w.Commitments[i].Commitment), commitment.CommitmentSize)
		}
		if len(w.Commitments[i].Nonce) != commitment.NonceSize {
			return unsatisfiable("nonce %d has %d bytes, want %d", i, len(w.Commitments[i].Nonce), commitment.NonceSize)
		}
		if w.Values[i] >= maxValue {
			return unsatisfiable("value %d out of range", w.Values[i])
		}
		if err := commitment.CheckBlinding(w.Blindings[i]); err != nil {
			return unsatisfiable("card %d: %v", i, err)
		}
	}
	return nil
}

func (w RevealWitness) Assignment() *RevealCircuit {
	a := RevealPublic(w.Commitments, w.Values)
	for i := 0; i < 2; i++ {
		a.Blindings[i] = new(big.Int).SetBytes(w.Blindings[i])
		a.Nonces[i] = new(big.Int).SetBytes(w.Commitments[i].Nonce)
	}
	return a
}

func RevealPublic(commitments [2]commitment.CardCommitment, values [2]uint8) *RevealCircuit {
	a := &RevealCircuit{}
	for i := 0; i < 2; i++ {
		assignBytes(a.Commitments[i][:], commitments[i].Commitment)
		a.Values[i] = uint64(values[i])
	}
	return a
}

// assignBytes sets one variable per byte. Missing bytes are zero.
func assignBytes(dst []frontend.Variable, src []byte) {
	for i := range dst {
		if i < len(src) {
			dst[i] = uint64(src[i])
		} else {
			dst[i] = uint64(0)
		}
	}
}
