// Package commitment implements the hiding, binding card commitment
// C = MiMC(nonce, value, blinding) over the BLS12-381 scalar field.
package commitment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	"golang.org/x/crypto/hkdf"
)

const (
	// CommitmentSize is the byte length of a commitment: one canonical field element.
	CommitmentSize = fr.Bytes
	// NonceSize is the byte length of the per-card domain separator.
	NonceSize = 16
	// BlindingSize is the byte length of a blinding factor.
	BlindingSize = fr.Bytes

	maxCardIndex = 52
)

var (
	ErrInvalidValue    = errors.New("card index out of range")
	ErrInvalidBlinding = errors.New("invalid blinding factor")
	ErrInvalidNonce    = errors.New("invalid nonce")
)

// CardCommitment is what the table publishes for one dealt card.
type CardCommitment struct {
	Commitment []byte `json:"commitment"`
	Nonce      []byte `json:"nonce"`
}

// WellFormed reports whether c has the expected byte lengths.
func (c CardCommitment) WellFormed() bool {
	return len(c.Commitment) == CommitmentSize && len(c.Nonce) == NonceSize
}

// Commit computes the commitment to cardIndex. It is deterministic in its inputs.
func Commit(cardIndex uint8, blinding []byte, nonce []byte) (CardCommitment, error) {
	if cardIndex >= maxCardIndex {
		return CardCommitment{}, fmt.Errorf("%w: %d", ErrInvalidValue, cardIndex)
	}
	if err := CheckBlinding(blinding); err != nil {
		return CardCommitment{}, err
	}
	if len(nonce) != NonceSize {
		return CardCommitment{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidNonce, NonceSize, len(nonce))
	}
	digest := hash(nonce, cardIndex, blinding)
	return CardCommitment{
		Commitment: digest[:],
		Nonce:      append([]byte(nil), nonce...),
	}, nil
}

// Open reports whether c commits to cardIndex under blinding.
// Malformed input yields false.
func Open(c CardCommitment, cardIndex uint8, blinding []byte) bool {
	if !c.WellFormed() || cardIndex >= maxCardIndex || CheckBlinding(blinding) != nil {
		return false
	}
	digest := hash(c.Nonce, cardIndex, blinding)
	return subtle.ConstantTimeCompare(digest[:], c.Commitment) == 1
}

// CheckBlinding returns an error unless b is a canonical, non-zero field element.
func CheckBlinding(b []byte) error {
	if len(b) != BlindingSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidBlinding, BlindingSize, len(b))
	}
	v := new(big.Int).SetBytes(b)
	if v.Sign() == 0 {
		return fmt.Errorf("%w: zero", ErrInvalidBlinding)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return fmt.Errorf("%w: not reduced", ErrInvalidBlinding)
	}
	return nil
}

// NewBlinding draws a uniformly random non-zero blinding factor from rand.
func NewBlinding(rand io.Reader) ([]byte, error) {
	for {
		v, err := randFieldElement(rand)
		if err != nil {
			return nil, err
		}
		if v.IsZero() {
			continue
		}
		b := v.Bytes()
		return b[:], nil
	}
}

// DeriveNonce derives the nonce for one dealt position from a per-hand secret.
func DeriveNonce(secret []byte, gameID uint64, position uint8) []byte {
	var info [9]byte
	binary.BigEndian.PutUint64(info[:8], gameID)
	info[8] = position
	r := hkdf.New(sha256.New, secret, []byte("zk-holdem/nonce"), info[:])
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		panic(err) // hkdf can produce far more than 16 bytes
	}
	return nonce
}

// DeriveBlinding derives a blinding factor deterministically from a per-hand secret.
// The table uses it so a hand can be re-proven from the seed alone.
func DeriveBlinding(secret []byte, gameID uint64, position uint8) []byte {
	var info [9]byte
	binary.BigEndian.PutUint64(info[:8], gameID)
	info[8] = position
	b, err := NewBlinding(hkdf.New(sha256.New, secret, []byte("zk-holdem/blinding"), info[:]))
	if err != nil {
		panic(err)
	}
	return b
}

// Element interprets b as a big-endian integer, reduced into the field.
func Element(b []byte) fr.Element {
	var e fr.Element
	e.SetBigInt(new(big.Int).SetBytes(b))
	return e
}

func hash(nonce []byte, cardIndex uint8, blinding []byte) [CommitmentSize]byte {
	var value fr.Element
	value.SetUint64(uint64(cardIndex))
	return Hash(Element(nonce), value, Element(blinding))
}

// Hash is MiMC over the given field elements, matching the in-circuit hasher.
func Hash(elems ...fr.Element) [fr.Bytes]byte {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		h.Write(b[:])
	}
	var out [fr.Bytes]byte
	copy(out[:], h.Sum(nil))
	return out
}

func randFieldElement(rand io.Reader) (fr.Element, error) {
	var e fr.Element
	// 48 bytes reduced mod r keeps the bias negligible.
	var buf [48]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return e, fmt.Errorf("reading randomness: %w", err)
	}
	e.SetBigInt(new(big.Int).SetBytes(buf[:]))
	return e, nil
}
