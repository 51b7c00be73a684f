package proof

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/circuit"
)

type Prover interface {
	ProveDealing(w circuit.DealingWitness) (DealingProof, error)
	ProveReveal(w circuit.RevealWitness) (RevealProof, error)
}

// MockProver validates witnesses and emits zero-filled proofs. Only a
// StructuralVerifier accepts them.
type MockProver struct{}

func (MockProver) ProveDealing(w circuit.DealingWitness) (DealingProof, error) {
	if err := w.Validate(); err != nil {
		return DealingProof{}, err
	}
	return dealingProof(make([]byte, ProofSize), w), nil
}

func (MockProver) ProveReveal(w circuit.RevealWitness) (RevealProof, error) {
	if err := w.Validate(); err != nil {
		return RevealProof{}, err
	}
	return revealProof(make([]byte, ProofSize), w)
}

type Groth16Prover struct {
	keys *Keys
}

// NewGroth16Prover needs keys with both proving keys loaded.
func NewGroth16Prover(keys *Keys) (*Groth16Prover, error) {
	if keys == nil || keys.DealingPK == nil || keys.RevealPK == nil {
		return nil, fmt.Errorf("groth16 prover needs proving keys")
	}
	return &Groth16Prover{keys: keys}, nil
}

func (p *Groth16Prover) ProveDealing(w circuit.DealingWitness) (DealingProof, error) {
	if err := w.Validate(); err != nil {
		return DealingProof{}, err
	}
	raw, err := prove(p.keys.DealingCCS, p.keys.DealingPK, w.Assignment())
	if err != nil {
		return DealingProof{}, fmt.Errorf("proving deal: %w", err)
	}
	return dealingProof(raw, w), nil
}

func (p *Groth16Prover) ProveReveal(w circuit.RevealWitness) (RevealProof, error) {
	if err := w.Validate(); err != nil {
		return RevealProof{}, err
	}
	raw, err := prove(p.keys.RevealCCS, p.keys.RevealPK, w.Assignment())
	if err != nil {
		return RevealProof{}, fmt.Errorf("proving reveal: %w", err)
	}
	return revealProof(raw, w)
}

func prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, assignment frontend.Circuit) ([]byte, error) {
	w, err := frontend.NewWitness(assignment, circuit.Curve.ScalarField())
	if err != nil {
		return nil, err
	}
	pr, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, err
	}
	return EncodeProof(pr)
}

func dealingProof(raw []byte, w circuit.DealingWitness) DealingProof {
	return DealingProof{Proof: raw, Commitments: w.Commitments, DeckRoot: w.DeckRoot}
}

func revealProof(raw []byte, w circuit.RevealWitness) (RevealProof, error) {
	p := RevealProof{Proof: raw}
	for i := 0; i < 2; i++ {
		c, err := poker.CardFromIndex(w.Values[i])
		if err != nil {
			return RevealProof{}, err
		}
		p.Cards = append(p.Cards, c)
		p.Randomness = append(p.Randomness, append([]byte(nil), w.Blindings[i]...))
	}
	return p, nil
}

// NewProver builds the prover matching mode.
func NewProver(mode Mode, keys *Keys) (Prover, error) {
	switch mode {
	case ModeMock:
		return MockProver{}, nil
	case ModeGroth16:
		p, err := NewGroth16Prover(keys)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown proof mode %q", mode)
}
