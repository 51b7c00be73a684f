package proof

import (
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bls12381 "github.com/consensys/gnark/backend/groth16/bls12-381"
)

// EncodeProof writes the three proof points in compressed form.
// Proofs carrying Pedersen commitments are not supported by the 192 byte encoding.
func EncodeProof(p groth16.Proof) ([]byte, error) {
	bp, ok := p.(*groth16_bls12381.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", p)
	}
	if len(bp.Commitments) != 0 {
		return nil, fmt.Errorf("proof carries %d commitments", len(bp.Commitments))
	}
	ar, bs, krs := bp.Ar.Bytes(), bp.Bs.Bytes(), bp.Krs.Bytes()
	out := make([]byte, 0, ProofSize)
	out = append(out, ar[:]...)
	out = append(out, bs[:]...)
	out = append(out, krs[:]...)
	return out, nil
}

// DecodeProof parses a proof written by EncodeProof. Points are checked to be on
// the curve and in the prime order subgroup.
func DecodeProof(b []byte) (groth16.Proof, error) {
	if len(b) != ProofSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	p := new(groth16_bls12381.Proof)
	if _, err := p.Ar.SetBytes(b[:48]); err != nil {
		return nil, fmt.Errorf("decoding A: %w", err)
	}
	if _, err := p.Bs.SetBytes(b[48:144]); err != nil {
		return nil, fmt.Errorf("decoding B: %w", err)
	}
	if _, err := p.Krs.SetBytes(b[144:]); err != nil {
		return nil, fmt.Errorf("decoding C: %w", err)
	}
	return p, nil
}
