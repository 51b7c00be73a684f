// Package proof produces and checks the Groth16 proofs attached to dealt and
// revealed hole cards. A Verifier either runs the pairing check or, in the
// explicit mock mode, only the structural checks.
package proof

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
)

// ProofSize is a compressed Groth16 proof over BLS12-381: A (G1), B (G2), C (G1).
const ProofSize = 48 + 96 + 48

var ErrMalformed = errors.New("malformed proof")

// DealingProof accompanies the two hole cards dealt to one player.
type DealingProof struct {
	Proof       []byte                       `json:"proof"`
	Commitments [2]commitment.CardCommitment `json:"commitments"`
	DeckRoot    [32]byte                     `json:"deck_root"`
}

// RevealProof opens a player's two hole cards at showdown.
type RevealProof struct {
	Proof      []byte       `json:"proof"`
	Cards      []poker.Card `json:"cards"`
	Randomness [][]byte     `json:"randomness"`
}

// CheckDealing validates the shape of p.
func CheckDealing(p DealingProof) error {
	if len(p.Proof) != ProofSize {
		return fmt.Errorf("%w: proof has %d bytes, want %d", ErrMalformed, len(p.Proof), ProofSize)
	}
	for i, c := range p.Commitments {
		if !c.WellFormed() {
			return fmt.Errorf("%w: commitment %d has %d/%d bytes", ErrMalformed, i, len(c.Commitment), len(c.Nonce))
		}
	}
	if p.DeckRoot == ([32]byte{}) {
		return fmt.Errorf("%w: empty deck root", ErrMalformed)
	}
	return nil
}

// CheckReveal validates the shape of p against the commitments stored at deal time.
func CheckReveal(p RevealProof, stored [2]commitment.CardCommitment) error {
	if len(p.Proof) != ProofSize {
		return fmt.Errorf("%w: proof has %d bytes, want %d", ErrMalformed, len(p.Proof), ProofSize)
	}
	if len(p.Cards) != 2 {
		return fmt.Errorf("%w: %d cards, want 2", ErrMalformed, len(p.Cards))
	}
	for i, c := range p.Cards {
		if !c.Valid() {
			return fmt.Errorf("%w: card %d invalid", ErrMalformed, i)
		}
	}
	if len(p.Randomness) != 2 {
		return fmt.Errorf("%w: %d randomness entries, want 2", ErrMalformed, len(p.Randomness))
	}
	for i, r := range p.Randomness {
		if len(r) != commitment.BlindingSize {
			return fmt.Errorf("%w: randomness %d has %d bytes", ErrMalformed, i, len(r))
		}
	}
	for i, c := range stored {
		if !c.WellFormed() {
			return fmt.Errorf("%w: stored commitment %d missing", ErrMalformed, i)
		}
	}
	return nil
}

func cardValues(cards []poker.Card) [2]uint8 {
	return [2]uint8{cards[0].Index(), cards[1].Index()}
}
