package table

import (
	"fmt"
	"slices"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
)

func (m *Machine) reveal(g *Game, in Reveal) ([]Outbound, error) {
	if g.Phase != poker.Showdown {
		return nil, fmt.Errorf("%w: cannot reveal during %s", ErrInvalidPhase, g.Phase)
	}
	if err := checkGame(g, in.GameID); err != nil {
		return nil, err
	}
	p := g.PlayerByIdentity(in.From)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, in.From.Short())
	}
	if p.Folded || p.Revealed {
		return nil, fmt.Errorf("%w: %s has nothing to reveal", ErrInvalidReveal, p.Seat)
	}

	var cards [2]poker.Card
	switch g.Config.RevealMode {
	case RevealPlaintext:
		var err error
		if cards, err = checkPlaintext(g, in); err != nil {
			return nil, err
		}
	default:
		var ok bool
		if cards, ok = m.checkProof(g, in); !ok {
			return forfeit(g, p.Seat), nil
		}
	}

	p.Revealed = true
	if g.Revealed == nil {
		g.Revealed = make(map[poker.Seat][2]poker.Card, 2)
	}
	g.Revealed[p.Seat] = cards
	return finishShowdown(g), nil
}

func checkPlaintext(g *Game, in Reveal) ([2]poker.Card, error) {
	var cards [2]poker.Card
	if len(in.Cards) != 2 || len(in.Openings) != len(in.Cards) {
		return cards, fmt.Errorf("%w: %d cards and %d openings", ErrInvalidReveal, len(in.Cards), len(in.Openings))
	}
	stored, ok := g.Commitments[in.From]
	if !ok {
		return cards, fmt.Errorf("%w: no commitments for %s", ErrInvalidReveal, in.From.Short())
	}
	for i, o := range in.Openings {
		if o.Card != in.Cards[i] {
			return cards, fmt.Errorf("%w: opening %d is for %s, not %s", ErrInvalidReveal, i, o.Card.Code(), in.Cards[i].Code())
		}
		if !o.Card.Valid() || !commitment.Open(stored[i], o.Card.Index(), o.Blinding) {
			return cards, fmt.Errorf("%w: opening %d does not match the commitment", ErrInvalidReveal, i)
		}
		cards[i] = o.Card
	}
	return cards, nil
}

// checkProof verifies a zero-knowledge reveal. The cards accompanying the proof,
// if any, have to be the ones it proves.
func (m *Machine) checkProof(g *Game, in Reveal) ([2]poker.Card, bool) {
	var cards [2]poker.Card
	stored, ok := g.Commitments[in.From]
	if !ok || in.Proof == nil {
		return cards, false
	}
	if len(in.Cards) > 0 && !slices.Equal(in.Cards, in.Proof.Cards) {
		return cards, false
	}
	if !m.verifier.VerifyReveal(*in.Proof, stored) {
		return cards, false
	}
	copy(cards[:], in.Proof.Cards)
	return cards, true
}

// finishShowdown scores the hands once every live seat has revealed.
func finishShowdown(g *Game) []Outbound {
	live := g.live()
	for _, p := range live {
		if !p.Revealed {
			return nil
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		g.Winner = seatPtr(live[0].Seat)
		g.Outcome = OutcomeWin
		return settle(g)
	}
	board := g.Community[:]
	a := g.Revealed[live[0].Seat]
	b := g.Revealed[live[1].Seat]
	switch cmp := poker.Evaluate(a[:], board).Compare(poker.Evaluate(b[:], board)); {
	case cmp > 0:
		g.Winner = seatPtr(live[0].Seat)
		g.Outcome = OutcomeWin
	case cmp < 0:
		g.Winner = seatPtr(live[1].Seat)
		g.Outcome = OutcomeWin
	default:
		g.Winner = nil
		g.Outcome = OutcomeSplit
	}
	return settle(g)
}

// Payouts splits the pot according to the outcome. On a split the odd chip goes
// to the seat without the button.
func (g Game) Payouts() map[poker.Seat]uint64 {
	out := map[poker.Seat]uint64{poker.Seat1: 0, poker.Seat2: 0}
	switch {
	case g.Winner != nil:
		out[*g.Winner] = g.Pot
	case g.Outcome == OutcomeSplit:
		half := g.Pot / 2
		out[g.Button] = half
		out[g.Button.Other()] = g.Pot - half
	}
	return out
}

// settle pays out and notifies both seats.
func settle(g *Game) []Outbound {
	g.Phase = poker.Settlement
	g.Turn = nil
	payouts := g.Payouts()
	var out []Outbound
	for _, p := range g.Players {
		res := protocol.GameResult{
			GameID: g.ID,
			Won:    g.Winner != nil && *g.Winner == p.Seat,
			Payout: payouts[p.Seat],
		}
		if cards, ok := g.Revealed[p.Seat.Other()]; ok {
			res.OpponentCards = cards[:]
		}
		out = append(out, Outbound{To: Identity(p.Identity), Msg: res})
	}
	g.Phase = poker.Finished
	return out
}

// forfeit awards the pot to the opponent of seat and ends the hand.
func forfeit(g *Game, seat poker.Seat) []Outbound {
	p := g.Player(seat)
	p.Folded = true
	g.TimedOut = append(g.TimedOut, Identity(p.Identity))
	winner := seat.Other()
	g.Winner = seatPtr(winner)
	g.Outcome = OutcomeForfeit
	g.Turn = nil

	var out []Outbound
	if w := g.Player(winner); w != nil {
		out = append(out, Outbound{
			To:  Identity(w.Identity),
			Msg: protocol.GameResult{GameID: g.ID, Won: true, Payout: g.Pot, Forfeited: true},
		})
	}
	out = append(out, Outbound{
		To:  Identity(p.Identity),
		Msg: protocol.GameResult{GameID: g.ID, Won: false, Payout: 0, Forfeited: true},
	})
	g.Phase = poker.Finished
	return out
}

// timeoutCheck forfeits a seat that missed its deadline. It reports whether
// anything changed; a check that is too early, too late or for another game is a no-op.
func (m *Machine) timeoutCheck(g *Game, height uint64, in TimeoutCheck) ([]Outbound, bool) {
	if in.GameID != g.ID || !g.Config.Timeouts.AutoForfeit {
		return nil, false
	}
	switch {
	case g.Phase.IsBetting():
		if g.Turn == nil || height < g.TurnStartHeight+g.Config.Timeouts.BetTimeoutBlocks {
			return nil, false
		}
		return forfeit(g, *g.Turn), true
	case g.Phase == poker.Showdown:
		if g.ShowdownStartHeight == nil || height < *g.ShowdownStartHeight+g.Config.Timeouts.RevealTimeoutBlocks {
			return nil, false
		}
		for _, seat := range []poker.Seat{poker.Seat1, poker.Seat2} {
			if p := g.Player(seat); p != nil && !p.Folded && !p.Revealed {
				return forfeit(g, seat), true
			}
		}
	}
	return nil, false
}

func (m *Machine) leave(g *Game, height uint64, in Leave) ([]Outbound, error) {
	p := g.PlayerByIdentity(in.From)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, in.From.Short())
	}
	switch {
	case g.Phase == poker.WaitingForPlayers:
		stake := p.Stake
		g.Pot -= stake
		g.Players = slices.DeleteFunc(g.Players, func(q poker.PlayerInfo) bool { return Identity(q.Identity) == in.From })
		return []Outbound{{To: in.From, Msg: protocol.Refund{GameID: g.ID, Amount: stake}}}, nil
	case g.Phase.IsBetting(), g.Phase == poker.Showdown:
		return fold(g, p.Seat), nil
	}
	return nil, fmt.Errorf("%w: cannot leave during %s", ErrInvalidPhase, g.Phase)
}
