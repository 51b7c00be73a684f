// Package table is the dealer side of a heads-up hand: a pure state machine
// from (Game, height, Input) to the next Game and the messages to send.
package table

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

// Machine applies inputs to games. It holds no game state itself.
type Machine struct {
	prover   proof.Prover
	verifier proof.Verifier
	entropy  io.Reader
}

type MachineOption func(*Machine)

// WithEntropy sets the source mixed into every deck seed. Defaults to crypto/rand.
func WithEntropy(r io.Reader) MachineOption {
	return func(m *Machine) { m.entropy = r }
}

func NewMachine(prover proof.Prover, verifier proof.Verifier, opts ...MachineOption) *Machine {
	m := &Machine{prover: prover, verifier: verifier, entropy: rand.Reader}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply runs one input at block height. On error the returned game is g itself
// and nothing is emitted.
func (m *Machine) Apply(g Game, height uint64, in Input) (Game, []Outbound, error) {
	next := g.Clone()
	var out []Outbound
	var err error
	switch in := in.(type) {
	case Join:
		out, err = m.join(&next, height, in)
	case Bet:
		out, err = m.bet(&next, height, in)
	case Reveal:
		out, err = m.reveal(&next, in)
	case Leave:
		out, err = m.leave(&next, height, in)
	case CardsReceived:
		err = m.cardsReceived(&next, in)
	case StartNewGame:
		err = m.startNewGame(&next)
	case ForceAdvance:
		out, err = m.forceAdvance(&next, height)
	case TimeoutCheck:
		var changed bool
		out, changed = m.timeoutCheck(&next, height, in)
		if !changed {
			return g, nil, nil
		}
	default:
		err = fmt.Errorf("unsupported input %T", in)
	}
	if err != nil {
		return g, nil, err
	}
	return next, out, nil
}

func (m *Machine) cardsReceived(g *Game, in CardsReceived) error {
	if err := checkGame(g, in.GameID); err != nil {
		return err
	}
	if g.PlayerByIdentity(in.From) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, in.From.Short())
	}
	return nil
}

func (m *Machine) startNewGame(g *Game) error {
	if g.Phase != poker.WaitingForPlayers && g.Phase != poker.Finished {
		return fmt.Errorf("%w: cannot start a new game during %s", ErrInvalidPhase, g.Phase)
	}
	*g = Game{ID: g.ID + 1, Phase: poker.WaitingForPlayers, Config: g.Config}
	return nil
}

func (m *Machine) forceAdvance(g *Game, height uint64) ([]Outbound, error) {
	if !g.Config.AllowForceAdvance {
		return nil, fmt.Errorf("%w: force advance is disabled", ErrForbidden)
	}
	if !g.Phase.IsBetting() {
		return nil, fmt.Errorf("%w: %s is not a betting street", ErrInvalidPhase, g.Phase)
	}
	return advanceStreet(g, height), nil
}

func checkGame(g *Game, id uint64) error {
	if id != g.ID {
		return fmt.Errorf("%w: got %d, table is on %d", ErrWrongGame, id, g.ID)
	}
	return nil
}

func seatPtr(s poker.Seat) *poker.Seat { return &s }
