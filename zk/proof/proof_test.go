package proof

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/circuit"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
	"github.com/luca-patrignani/zk-holdem/zk/merkle"
)

func witnesses(t *testing.T) (circuit.DealingWitness, circuit.RevealWitness) {
	t.Helper()
	deck := poker.Shuffle([]byte("proof test"))
	tree := merkle.NewTree(deck)
	d := circuit.DealingWitness{DeckRoot: tree.Root(), Positions: [2]uint8{0, 1}}
	for i, pos := range d.Positions {
		path, err := tree.Proof(pos)
		require.NoError(t, err)
		b, err := commitment.NewBlinding(rand.Reader)
		require.NoError(t, err)
		c, err := commitment.Commit(deck[pos].Index(), b, commitment.DeriveNonce([]byte("s"), 7, pos))
		require.NoError(t, err)
		d.Values[i], d.Paths[i], d.Blindings[i], d.Commitments[i] = deck[pos].Index(), path, b, c
	}
	return d, circuit.RevealWitness{Commitments: d.Commitments, Values: d.Values, Blindings: d.Blindings}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeGroth16, m)
	m, err = ParseMode("mock")
	require.NoError(t, err)
	assert.Equal(t, ModeMock, m)
	_, err = ParseMode("plonk")
	assert.Error(t, err)
}

func TestStructuralChecks(t *testing.T) {
	dw, rw := witnesses(t)
	dp, err := MockProver{}.ProveDealing(dw)
	require.NoError(t, err)
	rp, err := MockProver{}.ProveReveal(rw)
	require.NoError(t, err)
	require.NoError(t, CheckDealing(dp))
	require.NoError(t, CheckReveal(rp, dw.Commitments))

	dealing := []struct {
		name   string
		mutate func(p *DealingProof)
	}{
		{"short proof", func(p *DealingProof) { p.Proof = p.Proof[:191] }},
		{"long proof", func(p *DealingProof) { p.Proof = make([]byte, 193) }},
		{"short commitment", func(p *DealingProof) { p.Commitments[0].Commitment = make([]byte, 48) }},
		{"short nonce", func(p *DealingProof) { p.Commitments[1].Nonce = p.Commitments[1].Nonce[:8] }},
		{"zero root", func(p *DealingProof) { p.DeckRoot = [32]byte{} }},
	}
	reveal := []struct {
		name   string
		mutate func(p *RevealProof)
	}{
		{"short proof", func(p *RevealProof) { p.Proof = nil }},
		{"one card", func(p *RevealProof) { p.Cards = p.Cards[:1] }},
		{"three cards", func(p *RevealProof) { p.Cards = append(p.Cards, p.Cards[0]) }},
		{"invalid card", func(p *RevealProof) { p.Cards = []poker.Card{{}, p.Cards[1]} }},
		{"short randomness", func(p *RevealProof) { p.Randomness = [][]byte{p.Randomness[0][:31], p.Randomness[1]} }},
		{"missing randomness", func(p *RevealProof) { p.Randomness = p.Randomness[:1] }},
	}

	verifiers := []Verifier{StructuralVerifier{Params: MockParams()}, NewGroth16Verifier(nil, nil)}
	for _, v := range verifiers {
		for _, tt := range dealing {
			t.Run(string(v.Mode())+"/dealing/"+tt.name, func(t *testing.T) {
				p := dp
				tt.mutate(&p)
				assert.Error(t, CheckDealing(p))
				assert.False(t, v.VerifyDealing(p))
			})
		}
		for _, tt := range reveal {
			t.Run(string(v.Mode())+"/reveal/"+tt.name, func(t *testing.T) {
				p := RevealProof{Proof: rp.Proof, Cards: append([]poker.Card(nil), rp.Cards...), Randomness: append([][]byte(nil), rp.Randomness...)}
				tt.mutate(&p)
				assert.Error(t, CheckReveal(p, dw.Commitments))
				assert.False(t, v.VerifyReveal(p, dw.Commitments))
			})
		}
		t.Run(string(v.Mode())+"/reveal/missing stored commitments", func(t *testing.T) {
			assert.False(t, v.VerifyReveal(rp, [2]commitment.CardCommitment{}))
		})
	}
}

func TestStructuralVerifier(t *testing.T) {
	dw, rw := witnesses(t)
	dp, err := MockProver{}.ProveDealing(dw)
	require.NoError(t, err)
	rp, err := MockProver{}.ProveReveal(rw)
	require.NoError(t, err)

	v := StructuralVerifier{Params: MockParams()}
	assert.Equal(t, ModeMock, v.Mode())
	assert.True(t, v.VerifyDealing(dp))
	assert.True(t, v.VerifyReveal(rp, dw.Commitments))
	assert.Equal(t, rw.Values[0], rp.Cards[0].Index())

	bad := StructuralVerifier{Params: Params{DealingVK: make([]byte, 100), RevealVK: make([]byte, 256)}}
	assert.False(t, bad.VerifyDealing(dp), "undersized verifying key")
	bad.Params.DealingVK = make([]byte, 9000)
	assert.False(t, bad.VerifyReveal(rp, dw.Commitments), "oversized verifying key")
}

func TestMockProverRejectsBadWitness(t *testing.T) {
	dw, rw := witnesses(t)
	dw.Positions[1] = dw.Positions[0]
	_, err := MockProver{}.ProveDealing(dw)
	assert.ErrorIs(t, err, circuit.ErrUnsatisfiable)

	rw.Values[0] = 52
	_, err = MockProver{}.ProveReveal(rw)
	assert.ErrorIs(t, err, circuit.ErrUnsatisfiable)
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier(ModeMock, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeMock, v.Mode())

	_, err = NewVerifier(ModeGroth16, nil)
	assert.Error(t, err)
	_, err = NewVerifier("other", nil)
	assert.Error(t, err)

	p, err := NewProver(ModeMock, nil)
	require.NoError(t, err)
	assert.IsType(t, MockProver{}, p)
	_, err = NewProver(ModeGroth16, nil)
	assert.Error(t, err)
}

func TestDecodeProofRejectsGarbage(t *testing.T) {
	_, err := DecodeProof(make([]byte, ProofSize))
	assert.Error(t, err)
	_, err = DecodeProof(make([]byte, 10))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGroth16RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	keys, err := Setup()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, keys.Save(dir))
	loaded, err := LoadKeys(dir, true)
	require.NoError(t, err)

	params, err := loaded.Params()
	require.NoError(t, err)
	assert.True(t, params.Valid(), "vk sizes %d and %d", len(params.DealingVK), len(params.RevealVK))

	prover, err := NewProver(ModeGroth16, loaded)
	require.NoError(t, err)
	verifier, err := NewVerifier(ModeGroth16, loaded)
	require.NoError(t, err)

	dw, rw := witnesses(t)
	dp, err := prover.ProveDealing(dw)
	require.NoError(t, err)
	require.Len(t, dp.Proof, ProofSize)
	assert.True(t, verifier.VerifyDealing(dp))

	tampered := dp
	tampered.DeckRoot[0] ^= 1
	assert.False(t, verifier.VerifyDealing(tampered), "tampered root")

	rp, err := prover.ProveReveal(rw)
	require.NoError(t, err)
	assert.True(t, verifier.VerifyReveal(rp, dw.Commitments))

	swapped := RevealProof{Proof: rp.Proof, Cards: []poker.Card{rp.Cards[1], rp.Cards[0]}, Randomness: rp.Randomness}
	assert.False(t, verifier.VerifyReveal(swapped, dw.Commitments), "swapped cards")

	mock, err := MockProver{}.ProveDealing(dw)
	require.NoError(t, err)
	assert.False(t, verifier.VerifyDealing(mock), "zero proof")

	vkOnly, err := LoadKeys(dir, false)
	require.NoError(t, err)
	vkVerifier, err := NewVerifier(ModeGroth16, vkOnly)
	require.NoError(t, err)
	assert.True(t, vkVerifier.VerifyReveal(rp, dw.Commitments))

	structural, err := NewVerifier(ModeMock, loaded)
	require.NoError(t, err)
	assert.True(t, structural.VerifyDealing(dp))
}
