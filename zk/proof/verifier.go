package proof

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/luca-patrignani/zk-holdem/zk/circuit"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
)

// Mode selects how proofs are checked.
type Mode string

const (
	// ModeMock runs the structural checks only. It has to be asked for explicitly.
	ModeMock    Mode = "mock"
	ModeGroth16 Mode = "groth16"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMock, ModeGroth16:
		return Mode(s), nil
	case "":
		return ModeGroth16, nil
	}
	return "", fmt.Errorf("unknown proof mode %q", s)
}

// Verifier checks dealing and reveal proofs. Any failure, structural or
// cryptographic, is reported as false.
type Verifier interface {
	Mode() Mode
	VerifyDealing(p DealingProof) bool
	VerifyReveal(p RevealProof, stored [2]commitment.CardCommitment) bool
}

const (
	minKeySize = 200
	maxKeySize = 8192
)

// Params are the serialized verifying keys a StructuralVerifier is configured with.
type Params struct {
	DealingVK []byte
	RevealVK  []byte
}

func (p Params) Valid() bool {
	ok := func(b []byte) bool { return len(b) >= minKeySize && len(b) <= maxKeySize }
	return ok(p.DealingVK) && ok(p.RevealVK)
}

// MockParams stands in for real verifying keys when no setup was run.
func MockParams() Params {
	return Params{DealingVK: make([]byte, 256), RevealVK: make([]byte, 256)}
}

type StructuralVerifier struct {
	Params Params
}

func (v StructuralVerifier) Mode() Mode { return ModeMock }

func (v StructuralVerifier) VerifyDealing(p DealingProof) bool {
	return v.Params.Valid() && CheckDealing(p) == nil
}

func (v StructuralVerifier) VerifyReveal(p RevealProof, stored [2]commitment.CardCommitment) bool {
	return v.Params.Valid() && CheckReveal(p, stored) == nil
}

// Groth16Verifier runs the pairing check against the verifying keys.
type Groth16Verifier struct {
	dealing groth16.VerifyingKey
	reveal  groth16.VerifyingKey
}

func NewGroth16Verifier(dealing, reveal groth16.VerifyingKey) *Groth16Verifier {
	return &Groth16Verifier{dealing: dealing, reveal: reveal}
}

func (v *Groth16Verifier) Mode() Mode { return ModeGroth16 }

func (v *Groth16Verifier) VerifyDealing(p DealingProof) bool {
	if CheckDealing(p) != nil {
		return false
	}
	return verify(v.dealing, p.Proof, circuit.DealingPublic(p.DeckRoot, p.Commitments))
}

func (v *Groth16Verifier) VerifyReveal(p RevealProof, stored [2]commitment.CardCommitment) bool {
	if CheckReveal(p, stored) != nil {
		return false
	}
	return verify(v.reveal, p.Proof, circuit.RevealPublic(stored, cardValues(p.Cards)))
}

func verify(vk groth16.VerifyingKey, raw []byte, public frontend.Circuit) bool {
	if vk == nil {
		return false
	}
	pr, err := DecodeProof(raw)
	if err != nil {
		return false
	}
	w, err := frontend.NewWitness(public, circuit.Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	return groth16.Verify(pr, vk, w) == nil
}

// NewVerifier builds the verifier for mode. Groth16 needs keys; mock mode uses
// the keys' serialized size when given and MockParams otherwise.
func NewVerifier(mode Mode, keys *Keys) (Verifier, error) {
	switch mode {
	case ModeMock:
		if keys == nil {
			return StructuralVerifier{Params: MockParams()}, nil
		}
		params, err := keys.Params()
		if err != nil {
			return nil, err
		}
		if !params.Valid() {
			return nil, fmt.Errorf("verifying keys outside [%d, %d] bytes", minKeySize, maxKeySize)
		}
		return StructuralVerifier{Params: params}, nil
	case ModeGroth16:
		if keys == nil || keys.DealingVK == nil || keys.RevealVK == nil {
			return nil, fmt.Errorf("groth16 mode needs verifying keys")
		}
		return NewGroth16Verifier(keys.DealingVK, keys.RevealVK), nil
	}
	return nil, fmt.Errorf("unknown proof mode %q", mode)
}
