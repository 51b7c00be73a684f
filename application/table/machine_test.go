package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/circuit"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

type fixedEntropy byte

func (f fixedEntropy) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(f)
	}
	return len(p), nil
}

var (
	alice = protocol.KeyPairFromSeed([]byte("alice")).Identity()
	bob   = protocol.KeyPairFromSeed([]byte("bob")).Identity()
)

var verifier = proof.StructuralVerifier{Params: proof.MockParams()}

func newMachine() *Machine {
	return NewMachine(proof.MockProver{}, verifier, WithEntropy(fixedEntropy(7)))
}

func apply(t *testing.T, m *Machine, g Game, height uint64, in Input) (Game, []Outbound) {
	t.Helper()
	next, out, err := m.Apply(g, height, in)
	require.NoError(t, err)
	return next, out
}

// seated returns a game in which alice (seat 1) and bob (seat 2) joined with 100 each at height 10.
func seated(t *testing.T, m *Machine, cfg Config) (Game, []Outbound) {
	t.Helper()
	g := NewGame(cfg)
	g, out := apply(t, m, g, 10, Join{From: alice, Stake: 100})
	require.Empty(t, out)
	return apply(t, m, g, 10, Join{From: bob, Stake: 100})
}

func messagesFor(out []Outbound, to Identity) []protocol.Message {
	var msgs []protocol.Message
	for _, o := range out {
		if o.To == to {
			msgs = append(msgs, o.Msg)
		}
	}
	return msgs
}

func find[T protocol.Message](out []Outbound, to Identity) (T, bool) {
	for _, m := range messagesFor(out, to) {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestJoinDeals(t *testing.T) {
	g, out := seated(t, newMachine(), DefaultConfig())

	assert.Equal(t, poker.PreFlop, g.Phase)
	assert.Equal(t, uint64(200), g.Pot)
	assert.Equal(t, uint64(10), g.CurrentBet)
	assert.Equal(t, uint64(10), g.MinRaise)
	assert.Equal(t, poker.Seat1, g.Button)
	require.NotNil(t, g.Turn)
	assert.Equal(t, poker.Seat1, *g.Turn)
	assert.Equal(t, uint64(95), g.Player(poker.Seat1).Stake)
	assert.Equal(t, uint64(90), g.Player(poker.Seat2).Stake)
	assert.Equal(t, 0, g.CommunityShown)
	assert.Empty(t, g.VisibleCommunity())
	for _, c := range g.Community {
		assert.True(t, c.Valid())
	}

	seen := map[poker.Card]bool{}
	for _, id := range []Identity{alice, bob} {
		deal, ok := find[protocol.DealCards](out, id)
		require.True(t, ok, "no deal for %s", id.Short())
		assert.Equal(t, g.ID, deal.GameID)
		assert.Equal(t, g.DeckRoot, deal.Proof.DeckRoot)
		assert.Equal(t, g.Commitments[id], deal.Proof.Commitments)
		assert.True(t, verifier.VerifyDealing(deal.Proof))
		for i, o := range deal.Openings {
			assert.True(t, commitment.Open(deal.Proof.Commitments[i], o.Card.Index(), o.Blinding))
			assert.False(t, seen[o.Card])
			seen[o.Card] = true
		}
	}
	for _, c := range g.Community {
		assert.False(t, seen[c], "community card %s was dealt as a hole card", c.Code())
	}

	turn, ok := find[protocol.YourTurn](out, alice)
	require.True(t, ok)
	assert.Equal(t, uint64(60), turn.TurnDeadline)
	assert.Equal(t, uint64(200), turn.Pot)
}

func TestJoinRejections(t *testing.T) {
	m := newMachine()
	one, _ := apply(t, m, NewGame(DefaultConfig()), 1, Join{From: alice, Stake: 100})
	full, _ := seated(t, m, DefaultConfig())
	carol := protocol.KeyPairFromSeed([]byte("carol")).Identity()

	tests := []struct {
		name string
		g    Game
		in   Join
		want error
	}{
		{"already seated", one, Join{From: alice, Stake: 100}, ErrAlreadySeated},
		{"stake too low", one, Join{From: bob, Stake: 9}, ErrStakeOutOfRange},
		{"stake too high", one, Join{From: bob, Stake: 1001}, ErrStakeOutOfRange},
		{"hand in progress", full, Join{From: carol, Stake: 100}, ErrInvalidPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, out, err := m.Apply(tt.g, 1, tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, out)
			assert.Equal(t, tt.g, next)
		})
	}
}

func TestJoinFullTable(t *testing.T) {
	g := NewGame(DefaultConfig())
	g.Players = []poker.PlayerInfo{{Seat: poker.Seat1, Identity: string(alice)}, {Seat: poker.Seat2, Identity: string(bob)}}
	_, _, err := newMachine().Apply(g, 1, Join{From: "carol", Stake: 100})
	require.ErrorIs(t, err, ErrTableFull)
}

func TestRaisePassesTurn(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())

	_, _, err := m.Apply(g, 11, Bet{From: bob, GameID: g.ID, Action: poker.Check()})
	require.ErrorIs(t, err, ErrNotYourTurn)
	_, _, err = m.Apply(g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Raise(5)})
	require.ErrorIs(t, err, ErrInvalidBet)
	_, _, err = m.Apply(g, 11, Bet{From: alice, GameID: g.ID + 1, Action: poker.Call()})
	require.ErrorIs(t, err, ErrWrongGame)

	next, out := apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Raise(20)})
	assert.Equal(t, uint64(225), next.Pot)
	assert.Equal(t, uint64(30), next.CurrentBet)
	assert.Equal(t, uint64(20), next.MinRaise)
	assert.Equal(t, uint64(70), next.Player(poker.Seat1).Stake)
	assert.Equal(t, 1, next.ActionsThisStreet)
	require.NotNil(t, next.Turn)
	assert.Equal(t, poker.Seat2, *next.Turn)
	turn, ok := find[protocol.YourTurn](out, bob)
	require.True(t, ok)
	assert.Equal(t, uint64(30), turn.CurrentBet)
	assert.Equal(t, uint64(61), turn.TurnDeadline)

	// the input game is untouched
	assert.Equal(t, uint64(200), g.Pot)
	assert.Equal(t, poker.Seat1, *g.Turn)
}

func TestFoldSettles(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())
	g, out := apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Fold()})

	assert.Equal(t, poker.Finished, g.Phase)
	require.NotNil(t, g.Winner)
	assert.Equal(t, poker.Seat2, *g.Winner)
	assert.Equal(t, OutcomeWin, g.Outcome)
	assert.Nil(t, g.Turn)

	won, ok := find[protocol.GameResult](out, bob)
	require.True(t, ok)
	assert.True(t, won.Won)
	assert.Equal(t, uint64(200), won.Payout)
	assert.False(t, won.Forfeited)
	lost, ok := find[protocol.GameResult](out, alice)
	require.True(t, ok)
	assert.False(t, lost.Won)
	assert.Zero(t, lost.Payout)

	_, _, err := m.Apply(g, 12, Bet{From: bob, GameID: g.ID, Action: poker.Check()})
	require.ErrorIs(t, err, ErrInvalidPhase)
}

// checkDown plays call/check preflop and check/check on every later street.
func checkDown(t *testing.T, m *Machine, g Game) (Game, []Outbound) {
	t.Helper()
	g, out := apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Call()})
	require.Equal(t, poker.Seat2, *g.Turn, "big blind keeps the option")
	require.Equal(t, poker.PreFlop, g.Phase)
	g, out = apply(t, m, g, 12, Bet{From: bob, GameID: g.ID, Action: poker.Check()})
	for _, street := range []poker.Phase{poker.Flop, poker.Turn, poker.River} {
		require.Equal(t, street, g.Phase)
		require.Equal(t, poker.Seat2, *g.Turn, "non-button acts first after the flop")
		from, to := street.StreetCards()
		cc, ok := find[protocol.CommunityCards](out, alice)
		require.True(t, ok)
		require.Equal(t, g.Community[from:to], cc.Cards)
		require.Equal(t, to, g.CommunityShown)
		g, _ = apply(t, m, g, 13, Bet{From: bob, GameID: g.ID, Action: poker.Check()})
		g, out = apply(t, m, g, 14, Bet{From: alice, GameID: g.ID, Action: poker.Check()})
	}
	return g, out
}

func TestCheckDownToShowdown(t *testing.T) {
	m := newMachine()
	g, dealt := seated(t, m, DefaultConfig())
	g, out := checkDown(t, m, g)

	require.Equal(t, poker.Showdown, g.Phase)
	assert.Nil(t, g.Turn)
	require.NotNil(t, g.ShowdownStartHeight)
	assert.Equal(t, uint64(14), *g.ShowdownStartHeight)
	assert.Equal(t, 5, g.CommunityShown)
	assert.Equal(t, uint64(205), g.Pot)
	for _, id := range []Identity{alice, bob} {
		_, ok := find[protocol.RequestReveal](out, id)
		assert.True(t, ok)
	}

	var final []Outbound
	for _, id := range []Identity{alice, bob} {
		rp := revealProof(t, dealt, id)
		g, final = apply(t, m, g, 15, Reveal{From: id, GameID: g.ID, Cards: rp.Cards, Proof: &rp})
		if id == alice {
			assert.Empty(t, final)
			assert.Equal(t, poker.Showdown, g.Phase)
			_, _, err := m.Apply(g, 15, Reveal{From: alice, GameID: g.ID, Cards: rp.Cards, Proof: &rp})
			require.ErrorIs(t, err, ErrInvalidReveal)
		}
	}
	require.Equal(t, poker.Finished, g.Phase)
	assert.Contains(t, []Outcome{OutcomeWin, OutcomeSplit}, g.Outcome)

	payouts := g.Payouts()
	assert.Equal(t, g.Pot, payouts[poker.Seat1]+payouts[poker.Seat2])
	for _, id := range []Identity{alice, bob} {
		res, ok := find[protocol.GameResult](final, id)
		require.True(t, ok)
		assert.Len(t, res.OpponentCards, 2)
		assert.False(t, res.Forfeited)
		seat := g.PlayerByIdentity(id).Seat
		assert.Equal(t, payouts[seat], res.Payout)
		opp := g.Revealed[seat.Other()]
		assert.Equal(t, opp[:], res.OpponentCards)
	}
}

func revealProof(t *testing.T, dealt []Outbound, id Identity) proof.RevealProof {
	t.Helper()
	deal, ok := find[protocol.DealCards](dealt, id)
	require.True(t, ok)
	w := circuit.RevealWitness{Commitments: deal.Proof.Commitments}
	for i, o := range deal.Openings {
		w.Values[i] = o.Card.Index()
		w.Blindings[i] = o.Blinding
	}
	rp, err := proof.MockProver{}.ProveReveal(w)
	require.NoError(t, err)
	return rp
}

func TestAllInRunsOut(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())
	g, _ = apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.AllIn()})
	assert.Equal(t, uint64(100), g.CurrentBet)
	assert.Equal(t, uint64(90), g.MinRaise)
	assert.True(t, g.Player(poker.Seat1).AllIn())
	require.Equal(t, poker.Seat2, *g.Turn)

	g, out := apply(t, m, g, 12, Bet{From: bob, GameID: g.ID, Action: poker.Call()})
	assert.Equal(t, poker.Showdown, g.Phase)
	assert.Equal(t, 5, g.CommunityShown)
	assert.Equal(t, uint64(385), g.Pot)

	var streets []poker.Phase
	for _, msg := range messagesFor(out, bob) {
		if cc, ok := msg.(protocol.CommunityCards); ok {
			streets = append(streets, cc.Phase)
		}
	}
	assert.Equal(t, []poker.Phase{poker.Flop, poker.Turn, poker.River}, streets)
	_, ok := find[protocol.RequestReveal](out, alice)
	assert.True(t, ok)
}

func TestTimeoutCheck(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())

	for _, tt := range []struct {
		name   string
		height uint64
		id     uint64
	}{
		{"deadline not reached", 59, g.ID},
		{"wrong game", 500, g.ID + 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			next, out, err := m.Apply(g, tt.height, TimeoutCheck{GameID: tt.id})
			require.NoError(t, err)
			assert.Empty(t, out)
			assert.Equal(t, g, next)
		})
	}

	g, out := apply(t, m, g, 60, TimeoutCheck{GameID: g.ID})
	assert.Equal(t, poker.Finished, g.Phase)
	assert.Equal(t, OutcomeForfeit, g.Outcome)
	assert.Equal(t, []Identity{alice}, g.TimedOut)
	assert.True(t, g.Player(poker.Seat1).Folded)
	won, ok := find[protocol.GameResult](out, bob)
	require.True(t, ok)
	assert.Equal(t, protocol.GameResult{GameID: g.ID, Won: true, Payout: 200, Forfeited: true}, won)
	lost, ok := find[protocol.GameResult](out, alice)
	require.True(t, ok)
	assert.Equal(t, protocol.GameResult{GameID: g.ID, Forfeited: true}, lost)

	again, out, err := m.Apply(g, 1000, TimeoutCheck{GameID: g.ID})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, g, again)
}

func TestTimeoutCheckDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeouts.AutoForfeit = false
	m := newMachine()
	g, _ := seated(t, m, cfg)
	next, out := apply(t, m, g, 10_000, TimeoutCheck{GameID: g.ID})
	assert.Empty(t, out)
	assert.Equal(t, poker.PreFlop, next.Phase)
}

func TestRevealTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowForceAdvance = true
	m := newMachine()
	g, dealt := seated(t, m, cfg)
	for range 4 {
		g, _ = apply(t, m, g, 20, ForceAdvance{})
	}
	require.Equal(t, poker.Showdown, g.Phase)
	_, _, err := m.Apply(g, 20, ForceAdvance{})
	require.ErrorIs(t, err, ErrInvalidPhase)

	rp := revealProof(t, dealt, bob)
	g, _ = apply(t, m, g, 21, Reveal{From: bob, GameID: g.ID, Proof: &rp})

	next, out := apply(t, m, g, 119, TimeoutCheck{GameID: g.ID})
	assert.Empty(t, out)
	assert.Equal(t, poker.Showdown, next.Phase)

	g, out = apply(t, m, g, 120, TimeoutCheck{GameID: g.ID})
	assert.Equal(t, poker.Finished, g.Phase)
	assert.Equal(t, poker.Seat2, *g.Winner)
	assert.Equal(t, []Identity{alice}, g.TimedOut)
	won, ok := find[protocol.GameResult](out, bob)
	require.True(t, ok)
	assert.True(t, won.Forfeited)
}

func TestForceAdvanceDisabled(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())
	_, _, err := m.Apply(g, 11, ForceAdvance{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestLeave(t *testing.T) {
	m := newMachine()

	t.Run("before the deal", func(t *testing.T) {
		g, _ := apply(t, m, NewGame(DefaultConfig()), 1, Join{From: alice, Stake: 70})
		g, out := apply(t, m, g, 2, Leave{From: alice})
		assert.Empty(t, g.Players)
		assert.Zero(t, g.Pot)
		require.Len(t, out, 1)
		assert.Equal(t, Outbound{To: alice, Msg: protocol.Refund{GameID: 1, Amount: 70}}, out[0])
	})

	t.Run("during a street", func(t *testing.T) {
		g, _ := seated(t, m, DefaultConfig())
		g, out := apply(t, m, g, 11, Leave{From: bob})
		assert.Equal(t, poker.Finished, g.Phase)
		assert.Equal(t, poker.Seat1, *g.Winner)
		won, ok := find[protocol.GameResult](out, alice)
		require.True(t, ok)
		assert.Equal(t, uint64(200), won.Payout)
	})

	t.Run("at showdown", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowForceAdvance = true
		g, _ := seated(t, m, cfg)
		for range 4 {
			g, _ = apply(t, m, g, 20, ForceAdvance{})
		}
		require.Equal(t, poker.Showdown, g.Phase)

		g, out := apply(t, m, g, 21, Leave{From: alice})
		assert.Equal(t, poker.Finished, g.Phase)
		require.NotNil(t, g.Winner)
		assert.Equal(t, poker.Seat2, *g.Winner)
		assert.Empty(t, g.TimedOut)
		won, ok := find[protocol.GameResult](out, bob)
		require.True(t, ok)
		assert.True(t, won.Won)
		assert.Equal(t, g.Pot, won.Payout)

		next, out, err := m.Apply(g, 200, TimeoutCheck{GameID: g.ID})
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, g, next)
	})

	t.Run("after the hand", func(t *testing.T) {
		g, _ := seated(t, m, DefaultConfig())
		g, _ = apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Fold()})
		next, out, err := m.Apply(g, 12, Leave{From: bob})
		require.ErrorIs(t, err, ErrInvalidPhase)
		assert.Empty(t, out)
		assert.Equal(t, g, next)
	})

	t.Run("unknown player", func(t *testing.T) {
		_, _, err := m.Apply(NewGame(DefaultConfig()), 1, Leave{From: alice})
		require.ErrorIs(t, err, ErrUnknownPlayer)
	})
}

func TestStartNewGame(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())
	_, _, err := m.Apply(g, 11, StartNewGame{})
	require.ErrorIs(t, err, ErrInvalidPhase)

	g, _ = apply(t, m, g, 11, Bet{From: alice, GameID: g.ID, Action: poker.Fold()})
	g, _ = apply(t, m, g, 12, StartNewGame{})
	assert.Equal(t, uint64(2), g.ID)
	assert.Equal(t, poker.WaitingForPlayers, g.Phase)
	assert.Empty(t, g.Players)
	assert.Zero(t, g.Pot)

	g, _ = apply(t, m, g, 13, Join{From: alice, Stake: 100})
	g, out := apply(t, m, g, 13, Join{From: bob, Stake: 100})
	assert.Equal(t, poker.Seat2, g.Button)
	assert.Equal(t, poker.Seat2, *g.Turn)
	_, ok := find[protocol.YourTurn](out, bob)
	assert.True(t, ok)
}

func TestCardsReceived(t *testing.T) {
	m := newMachine()
	g, _ := seated(t, m, DefaultConfig())
	next, out := apply(t, m, g, 11, CardsReceived{From: alice, GameID: g.ID})
	assert.Empty(t, out)
	assert.Equal(t, g, next)
	_, _, err := m.Apply(g, 11, CardsReceived{From: "mallory", GameID: g.ID})
	require.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestCloneSharesNothing(t *testing.T) {
	g, _ := seated(t, newMachine(), DefaultConfig())
	c := g.Clone()
	c.Players[0].Stake = 1
	*c.Turn = poker.Seat2
	c.Commitments[alice][0].Commitment[0] ^= 0xff
	c.DeckSeed[0] ^= 0xff

	assert.Equal(t, uint64(95), g.Player(poker.Seat1).Stake)
	assert.Equal(t, poker.Seat1, *g.Turn)
	assert.NotEqual(t, c.Commitments[alice][0].Commitment, g.Commitments[alice][0].Commitment)
	assert.NotEqual(t, c.DeckSeed, g.DeckSeed)
}

func TestFromMessage(t *testing.T) {
	in, ok := FromMessage(alice, protocol.BetAction{GameID: 3, Action: poker.Raise(10)})
	require.True(t, ok)
	assert.Equal(t, Bet{From: alice, GameID: 3, Action: poker.Raise(10)}, in)

	_, ok = FromMessage(alice, protocol.YourTurn{})
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero big blind", func(c *Config) { c.BigBlind = 0 }},
		{"small above big", func(c *Config) { c.SmallBlind = 20 }},
		{"min stake below big blind", func(c *Config) { c.MinStake = 5 }},
		{"min above max", func(c *Config) { c.MaxStake = 5; c.MinStake = 10 }},
		{"reveal mode", func(c *Config) { c.RevealMode = "open" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
