package table

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
)

func (m *Machine) bet(g *Game, height uint64, in Bet) ([]Outbound, error) {
	if !g.Phase.IsBetting() {
		return nil, fmt.Errorf("%w: cannot bet during %s", ErrInvalidPhase, g.Phase)
	}
	if err := checkGame(g, in.GameID); err != nil {
		return nil, err
	}
	p := g.PlayerByIdentity(in.From)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, in.From.Short())
	}
	if g.Turn == nil || *g.Turn != p.Seat {
		return nil, fmt.Errorf("%w: %s", ErrNotYourTurn, p.Seat)
	}
	res, err := poker.ApplyBet(*p, in.Action, g.CurrentBet, g.MinRaise)
	if err != nil {
		if errors.Is(err, poker.ErrIllegalAction) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBet, err)
		}
		return nil, err
	}
	if res.Folded {
		return fold(g, p.Seat), nil
	}
	p.Stake -= res.Paid
	p.StreetBet += res.Paid
	p.Committed += res.Paid
	p.Acted = true
	g.Pot += res.Paid
	g.CurrentBet = res.CurrentBet
	g.MinRaise = res.MinRaise
	g.ActionsThisStreet++
	return advanceTurn(g, p.Seat, height), nil
}

// fold ends the hand. If the opponent had folded already the folding seat still wins.
func fold(g *Game, seat poker.Seat) []Outbound {
	p := g.Player(seat)
	winner := seat.Other()
	if other := g.Player(winner); other == nil || other.Folded {
		winner = seat
	}
	p.Folded = true
	g.Winner = seatPtr(winner)
	g.Outcome = OutcomeWin
	return settle(g)
}

// advanceTurn passes the action on after a non-terminal bet by seat.
func advanceTurn(g *Game, seat poker.Seat, height uint64) []Outbound {
	other := g.Player(seat.Other())
	if other.CanAct() && (!other.Acted || other.StreetBet < g.CurrentBet) {
		return []Outbound{giveTurn(g, other.Seat, height)}
	}
	if streetComplete(g) {
		return advanceStreet(g, height)
	}
	if other.CanAct() {
		return []Outbound{giveTurn(g, other.Seat, height)}
	}
	return []Outbound{giveTurn(g, seat, height)}
}

// streetComplete reports whether every live seat has acted and matched the bet,
// counting all-in seats as both.
func streetComplete(g *Game) bool {
	for _, p := range g.live() {
		if p.AllIn() {
			continue
		}
		if !p.Acted || p.StreetBet != g.CurrentBet {
			return false
		}
	}
	return true
}

// advanceStreet deals the next street. While fewer than two live seats can
// still bet, streets are run out until showdown.
func advanceStreet(g *Game, height uint64) []Outbound {
	var out []Outbound
	for {
		next := g.Phase.NextStreet()
		for i := range g.Players {
			g.Players[i].StreetBet = 0
			g.Players[i].Acted = false
		}
		g.CurrentBet = 0
		g.MinRaise = g.Config.BigBlind
		g.ActionsThisStreet = 0
		g.Phase = next

		if next == poker.Showdown {
			g.Turn = nil
			g.ShowdownStartHeight = &height
			g.CommunityShown = len(g.Community)
			for _, p := range g.Players {
				out = append(out, Outbound{To: Identity(p.Identity), Msg: protocol.RequestReveal{GameID: g.ID}})
			}
			return out
		}

		from, to := next.StreetCards()
		g.CommunityShown = to
		for _, p := range g.Players {
			out = append(out, Outbound{
				To:  Identity(p.Identity),
				Msg: protocol.CommunityCards{GameID: g.ID, Phase: next, Cards: append([]poker.Card(nil), g.Community[from:to]...)},
			})
		}

		canAct := 0
		for _, p := range g.live() {
			if p.CanAct() {
				canAct++
			}
		}
		if canAct >= 2 {
			first := g.Player(g.Button.Other())
			if !first.CanAct() {
				first = g.Player(g.Button)
			}
			return append(out, giveTurn(g, first.Seat, height))
		}
	}
}
