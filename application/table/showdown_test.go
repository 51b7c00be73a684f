package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

func cards(t *testing.T, s string) []poker.Card {
	t.Helper()
	cs, err := poker.ParseCards(s)
	require.NoError(t, err)
	return cs
}

func hole(t *testing.T, s string) [2]poker.Card {
	cs := cards(t, s)
	require.Len(t, cs, 2)
	return [2]poker.Card{cs[0], cs[1]}
}

// showdownGame is a game in which both seats revealed the given hole cards.
func showdownGame(t *testing.T, board, seat1, seat2 string) Game {
	t.Helper()
	g := NewGame(DefaultConfig())
	g.Phase = poker.Showdown
	g.Button = poker.Seat1
	g.Pot = 201
	copy(g.Community[:], cards(t, board))
	g.CommunityShown = 5
	g.Players = []poker.PlayerInfo{
		{Seat: poker.Seat1, Identity: string(alice), Revealed: true},
		{Seat: poker.Seat2, Identity: string(bob), Revealed: true},
	}
	g.Revealed = map[poker.Seat][2]poker.Card{
		poker.Seat1: hole(t, seat1),
		poker.Seat2: hole(t, seat2),
	}
	return g
}

func TestShowdownOutcome(t *testing.T) {
	tests := []struct {
		name  string
		board string
		seat1, seat2 string
		winner  *poker.Seat
		payouts [2]uint64
	}{
		{"flush beats straight", "2h 5h 9h 6d 7c", "Ah Kh", "8s 4c", seatPtr(poker.Seat1), [2]uint64{201, 0}},
		{"full house beats flush", "Qs Qd 7s 7h 2s", "As 3s", "Qc 4d", seatPtr(poker.Seat2), [2]uint64{0, 201}},
		{"kicker decides", "Kh Kd 8c 5s 2h", "Ac 3d", "Qc Jd", seatPtr(poker.Seat1), [2]uint64{201, 0}},
		{"board plays, odd chip to the big blind", "Ts Js Qs Ks As", "2h 3d", "2c 3h", nil, [2]uint64{100, 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := showdownGame(t, tt.board, tt.seat1, tt.seat2)
			out := finishShowdown(&g)
			assert.Equal(t, poker.Finished, g.Phase)
			assert.Equal(t, tt.winner, g.Winner)
			if tt.winner == nil {
				assert.Equal(t, OutcomeSplit, g.Outcome)
			}

			res1, ok := find[protocol.GameResult](out, alice)
			require.True(t, ok)
			res2, ok := find[protocol.GameResult](out, bob)
			require.True(t, ok)
			assert.Equal(t, tt.payouts, [2]uint64{res1.Payout, res2.Payout})
			assert.Equal(t, cards(t, tt.seat2), res1.OpponentCards)
			assert.Equal(t, cards(t, tt.seat1), res2.OpponentCards)
		})
	}
}

func TestShowdownWaitsForEveryLiveSeat(t *testing.T) {
	g := showdownGame(t, "2h 5h 9h 6d 7c", "Ah Kh", "8s 4c")
	g.Players[1].Revealed = false
	assert.Empty(t, finishShowdown(&g))
	assert.Equal(t, poker.Showdown, g.Phase)

	g.Players[1].Folded = true
	out := finishShowdown(&g)
	assert.Len(t, out, 2)
	assert.Equal(t, poker.Seat1, *g.Winner)
}

func plaintextShowdown(t *testing.T) (*Machine, Game, []Outbound) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RevealMode = RevealPlaintext
	cfg.AllowForceAdvance = true
	m := newMachine()
	g, dealt := seated(t, m, cfg)
	for range 4 {
		g, _ = apply(t, m, g, 20, ForceAdvance{})
	}
	require.Equal(t, poker.Showdown, g.Phase)
	return m, g, dealt
}

func plaintextReveal(t *testing.T, g Game, dealt []Outbound, id Identity) Reveal {
	t.Helper()
	deal, ok := find[protocol.DealCards](dealt, id)
	require.True(t, ok)
	r := Reveal{From: id, GameID: g.ID}
	for _, o := range deal.Openings {
		r.Cards = append(r.Cards, o.Card)
		r.Openings = append(r.Openings, o)
	}
	return r
}

func TestPlaintextReveal(t *testing.T) {
	m, g, dealt := plaintextShowdown(t)

	g, out := apply(t, m, g, 21, plaintextReveal(t, g, dealt, alice))
	assert.Empty(t, out)
	assert.True(t, g.Player(poker.Seat1).Revealed)

	g, out = apply(t, m, g, 22, plaintextReveal(t, g, dealt, bob))
	assert.Equal(t, poker.Finished, g.Phase)
	assert.Len(t, out, 2)
	deal, _ := find[protocol.DealCards](dealt, bob)
	assert.Equal(t, [2]poker.Card{deal.Openings[0].Card, deal.Openings[1].Card}, g.Revealed[poker.Seat2])
}

func TestPlaintextRevealRejections(t *testing.T) {
	m, g, dealt := plaintextShowdown(t)

	tests := []struct {
		name   string
		mutate func(r *Reveal)
	}{
		{"missing opening", func(r *Reveal) { r.Openings = r.Openings[:1] }},
		{"single card", func(r *Reveal) { r.Cards, r.Openings = r.Cards[:1], r.Openings[:1] }},
		{"card differs from opening", func(r *Reveal) { r.Cards[0] = r.Cards[1] }},
		{"opening for another card", func(r *Reveal) {
			other, _ := poker.CardFromIndex((r.Cards[1].Index() + 1) % poker.DeckSize)
			r.Cards[1], r.Openings[1].Card = other, other
		}},
		{"wrong blinding", func(r *Reveal) { r.Openings[0].Blinding = r.Openings[1].Blinding }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := plaintextReveal(t, g, dealt, alice)
			r.Cards = append([]poker.Card(nil), r.Cards...)
			r.Openings = append([]protocol.CardOpening(nil), r.Openings...)
			tt.mutate(&r)
			next, out, err := m.Apply(g, 21, r)
			require.ErrorIs(t, err, ErrInvalidReveal)
			assert.Empty(t, out)
			assert.Equal(t, g, next)
		})
	}

	_, _, err := m.Apply(g, 21, Reveal{From: alice, GameID: g.ID + 1})
	require.ErrorIs(t, err, ErrWrongGame)
}

func TestZKRevealFailureForfeits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowForceAdvance = true
	m := newMachine()
	g, dealt := seated(t, m, cfg)
	for range 4 {
		g, _ = apply(t, m, g, 20, ForceAdvance{})
	}

	t.Run("no proof", func(t *testing.T) {
		next, out := apply(t, m, g, 21, plaintextReveal(t, g, dealt, alice))
		assert.Equal(t, poker.Finished, next.Phase)
		assert.Equal(t, OutcomeForfeit, next.Outcome)
		assert.Equal(t, poker.Seat2, *next.Winner)
		won, ok := find[protocol.GameResult](out, bob)
		require.True(t, ok)
		assert.True(t, won.Forfeited)
	})

	t.Run("malformed proof", func(t *testing.T) {
		rp := revealProof(t, dealt, bob)
		rp.Proof = rp.Proof[:10]
		next, _ := apply(t, m, g, 21, Reveal{From: bob, GameID: g.ID, Proof: &rp})
		assert.Equal(t, OutcomeForfeit, next.Outcome)
		assert.Equal(t, poker.Seat1, *next.Winner)
	})

	t.Run("cards disagree with proof", func(t *testing.T) {
		rp := revealProof(t, dealt, bob)
		next, _ := apply(t, m, g, 21, Reveal{From: bob, GameID: g.ID, Cards: []poker.Card{rp.Cards[1], rp.Cards[0]}, Proof: &rp})
		assert.Equal(t, OutcomeForfeit, next.Outcome)
	})
}
