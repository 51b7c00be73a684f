package table

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/circuit"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
	"github.com/luca-patrignani/zk-holdem/zk/merkle"
)

const seedDomain = "zk-holdem/deck-seed/v1"

func (m *Machine) join(g *Game, height uint64, in Join) ([]Outbound, error) {
	if g.Phase != poker.WaitingForPlayers {
		return nil, fmt.Errorf("%w: cannot join during %s", ErrInvalidPhase, g.Phase)
	}
	if len(g.Players) >= 2 {
		return nil, ErrTableFull
	}
	if g.PlayerByIdentity(in.From) != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySeated, in.From.Short())
	}
	if in.Stake < g.Config.MinStake || in.Stake > g.Config.MaxStake {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrStakeOutOfRange, in.Stake, g.Config.MinStake, g.Config.MaxStake)
	}
	seat := poker.Seat1
	if len(g.Players) == 1 {
		seat = g.Players[0].Seat.Other()
	}
	g.Players = append(g.Players, poker.PlayerInfo{
		Seat:     seat,
		Identity: string(in.From),
		HandApp:  in.HandApp,
		Stake:    in.Stake,
	})
	g.Pot += in.Stake
	if len(g.Players) < 2 {
		return nil, nil
	}
	return m.deal(g, height)
}

// deal posts the blinds, shuffles, commits to the deck and proves each player's hole cards.
func (m *Machine) deal(g *Game, height uint64) ([]Outbound, error) {
	g.Phase = poker.Dealing
	g.Button = poker.Seat2
	if g.ID%2 == 1 {
		g.Button = poker.Seat1
	}
	postBlind(g.Player(g.Button), g.Config.SmallBlind)
	postBlind(g.Player(g.Button.Other()), g.Config.BigBlind)
	g.CurrentBet = g.Config.BigBlind
	g.MinRaise = g.Config.BigBlind

	seed, err := m.seed(g)
	if err != nil {
		return nil, err
	}
	g.DeckSeed = seed
	deck := poker.Shuffle(seed)
	tree := merkle.NewTree(deck)
	g.DeckRoot = tree.Root()
	g.Commitments = make(map[Identity][2]commitment.CardCommitment, 2)

	var out []Outbound
	for _, seat := range []poker.Seat{poker.Seat1, poker.Seat2} {
		p := g.Player(seat)
		first := uint8(2 * (seat - 1))
		msg, err := m.dealHole(g, tree, deck, [2]uint8{first, first + 1})
		if err != nil {
			return nil, fmt.Errorf("dealing to %s: %w", seat, err)
		}
		g.Commitments[Identity(p.Identity)] = msg.Proof.Commitments
		out = append(out, Outbound{To: Identity(p.Identity), Msg: msg})
	}
	copy(g.Community[:], deck[4:9])
	g.CommunityShown = 0

	g.Phase = poker.PreFlop
	g.ActionsThisStreet = 0
	out = append(out, giveTurn(g, g.Button, height))
	return out, nil
}

func postBlind(p *poker.PlayerInfo, blind uint64) {
	paid := min(blind, p.Stake)
	p.Stake -= paid
	p.StreetBet = paid
	p.Committed = paid
}

func (m *Machine) dealHole(g *Game, tree *merkle.Tree, deck [poker.DeckSize]poker.Card, positions [2]uint8) (protocol.DealCards, error) {
	w := circuit.DealingWitness{DeckRoot: tree.Root(), Positions: positions}
	var openings [2]protocol.CardOpening
	for i, pos := range positions {
		path, err := tree.Proof(pos)
		if err != nil {
			return protocol.DealCards{}, err
		}
		card := deck[pos]
		blinding := commitment.DeriveBlinding(g.DeckSeed, g.ID, pos)
		c, err := commitment.Commit(card.Index(), blinding, commitment.DeriveNonce(g.DeckSeed, g.ID, pos))
		if err != nil {
			return protocol.DealCards{}, err
		}
		w.Values[i] = card.Index()
		w.Paths[i] = path
		w.Blindings[i] = blinding
		w.Commitments[i] = c
		openings[i] = protocol.CardOpening{Card: card, Blinding: blinding}
	}
	p, err := m.prover.ProveDealing(w)
	if err != nil {
		return protocol.DealCards{}, err
	}
	return protocol.DealCards{GameID: g.ID, Proof: p, Openings: openings}, nil
}

// seed mixes fresh entropy with the game id and both identities.
func (m *Machine) seed(g *Game) ([]byte, error) {
	var entropy [32]byte
	if _, err := io.ReadFull(m.entropy, entropy[:]); err != nil {
		return nil, fmt.Errorf("reading entropy: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(seedDomain))
	h.Write(entropy[:])
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], g.ID)
	h.Write(id[:])
	for _, p := range g.Players {
		h.Write([]byte(p.Identity))
	}
	return h.Sum(nil), nil
}

// giveTurn hands the action to seat and tells its player.
func giveTurn(g *Game, seat poker.Seat, height uint64) Outbound {
	g.Turn = seatPtr(seat)
	g.TurnStartHeight = height
	p := g.Player(seat)
	return Outbound{
		To: Identity(p.Identity),
		Msg: protocol.YourTurn{
			GameID:       g.ID,
			CurrentBet:   g.CurrentBet,
			Pot:          g.Pot,
			MinRaise:     g.MinRaise,
			TurnDeadline: height + g.Config.Timeouts.BetTimeoutBlocks,
			ToCall:       g.CurrentBet - p.StreetBet,
		},
	}
}
