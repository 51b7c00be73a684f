// Package hand is the player side of a table: it checks what the dealer sends,
// keeps the private openings of its hole cards and answers with bets and reveals.
package hand

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/zk-holdem/application/table"
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/escrow"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/circuit"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

var (
	ErrNotFromTable  = errors.New("message not from the table")
	ErrNotMyTurn     = errors.New("not my turn")
	ErrNotDealt      = errors.New("no cards dealt")
	ErrDisputed      = errors.New("deal disputed")
	ErrAlreadySeated = errors.New("already at the table")
	ErrUnexpected    = errors.New("unexpected message")
)

// Hand is what the player knows about the current game.
type Hand struct {
	GameID      uint64                       `json:"game_id"`
	Dealt       bool                         `json:"dealt"`
	Disputed    bool                         `json:"disputed"`
	Hole        [2]protocol.CardOpening      `json:"hole"`
	Commitments [2]commitment.CardCommitment `json:"commitments"`
	DeckRoot    [32]byte                     `json:"deck_root"`
	Community   []poker.Card                 `json:"community"`
	// Turn is set while the table waits for this player's bet.
	Turn            *protocol.YourTurn   `json:"turn,omitempty"`
	RevealRequested bool                 `json:"reveal_requested"`
	Revealed        bool                 `json:"revealed"`
	Result          *protocol.GameResult `json:"result,omitempty"`
}

func (h Hand) MyTurn() bool { return h.Turn != nil }

// Cards returns the hole cards.
func (h Hand) Cards() []poker.Card {
	if !h.Dealt {
		return nil
	}
	return []poker.Card{h.Hole[0].Card, h.Hole[1].Card}
}

// Best scores the hole cards with the community cards seen so far.
func (h Hand) Best() poker.HandScore {
	return poker.Evaluate(h.Cards(), h.Community)
}

type Option func(*Actor)

// WithAutoReveal makes the actor answer RequestReveal with its reveal.
func WithAutoReveal() Option {
	return func(a *Actor) { a.autoReveal = true }
}

func WithHandApp(name string) Option {
	return func(a *Actor) { a.handApp = name }
}

// WithRevealMode must match the table's reveal mode. Defaults to zero-knowledge reveals.
func WithRevealMode(m table.RevealMode) Option {
	return func(a *Actor) { a.mode = m }
}

// Actor maps table messages and player decisions onto messages for the table.
// It is not safe for concurrent use.
type Actor struct {
	table      protocol.Identity
	prover     proof.Prover
	verifier   proof.Verifier
	mode       table.RevealMode
	autoReveal bool
	handApp    string

	Account escrow.Account
	stake   uint64
	hand    Hand
	// finished is the id of the last game settled here.
	finished uint64
}

func NewActor(tableID protocol.Identity, account escrow.Account, prover proof.Prover, verifier proof.Verifier, opts ...Option) *Actor {
	a := &Actor{table: tableID, prover: prover, verifier: verifier, mode: table.RevealZK, Account: account}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Actor) Table() protocol.Identity { return a.table }

// Hand returns a copy of the current hand.
func (a *Actor) Hand() Hand {
	h := a.hand
	h.Community = append([]poker.Card(nil), a.hand.Community...)
	return h
}

// Stake is the amount locked for the table, zero when not seated.
func (a *Actor) Stake() uint64 { return a.stake }

func (a *Actor) JoinTable(stake uint64) (protocol.Message, error) {
	if a.stake > 0 {
		return nil, ErrAlreadySeated
	}
	if err := a.Account.Lock(stake); err != nil {
		return nil, err
	}
	a.stake = stake
	a.hand = Hand{}
	return protocol.JoinTable{Stake: stake, HandApp: a.handApp}, nil
}

func (a *Actor) Bet(action poker.BetAction) (protocol.Message, error) {
	if !a.hand.MyTurn() {
		return nil, ErrNotMyTurn
	}
	a.hand.Turn = nil
	return protocol.BetAction{GameID: a.hand.GameID, Action: action}, nil
}

// Reveal opens the hole cards, with a proof or in plaintext depending on the mode.
func (a *Actor) Reveal() (protocol.Message, error) {
	switch {
	case a.hand.Disputed:
		return nil, ErrDisputed
	case !a.hand.Dealt:
		return nil, ErrNotDealt
	}
	msg := protocol.RevealCards{GameID: a.hand.GameID, Cards: a.hand.Cards()}
	if a.mode == table.RevealPlaintext {
		msg.Proofs = []protocol.CardOpening{a.hand.Hole[0], a.hand.Hole[1]}
	} else {
		w := circuit.RevealWitness{Commitments: a.hand.Commitments}
		for i, o := range a.hand.Hole {
			w.Values[i] = o.Card.Index()
			w.Blindings[i] = o.Blinding
		}
		rp, err := a.prover.ProveReveal(w)
		if err != nil {
			return nil, fmt.Errorf("proving reveal: %w", err)
		}
		msg.Proof = &rp
	}
	a.hand.Revealed = true
	return msg, nil
}

func (a *Actor) LeaveTable() protocol.Message {
	return protocol.LeaveTable{}
}

func (a *Actor) TriggerTimeoutCheck() protocol.Message {
	return protocol.TriggerTimeoutCheck{GameID: a.hand.GameID}
}

// Handle processes a message from the table and returns the replies to send back.
func (a *Actor) Handle(from protocol.Identity, m protocol.Message) ([]protocol.Message, error) {
	if from != a.table {
		return nil, fmt.Errorf("%w: %s", ErrNotFromTable, from.Short())
	}
	switch m := m.(type) {
	case protocol.DealCards:
		return a.dealt(m), nil
	case protocol.CommunityCards:
		if m.GameID == a.hand.GameID {
			a.board(m)
		}
	case protocol.YourTurn:
		if m.GameID == a.hand.GameID {
			a.hand.Turn = &m
		}
	case protocol.RequestReveal:
		if m.GameID != a.hand.GameID {
			return nil, nil
		}
		a.hand.RevealRequested = true
		if a.autoReveal && !a.hand.Disputed && !a.hand.Revealed {
			msg, err := a.Reveal()
			if err != nil {
				return nil, err
			}
			return []protocol.Message{msg}, nil
		}
	case protocol.GameResult:
		if m.GameID != a.hand.GameID || a.hand.Result != nil || a.stake == 0 {
			return nil, nil
		}
		if err := a.Account.Settle(a.stake, m.Payout); err != nil {
			return nil, err
		}
		a.hand.Result = &m
		a.hand.Turn = nil
		a.finished = m.GameID
		a.stake = 0
	case protocol.Refund:
		// only a stake that was never dealt in is refunded
		if a.stake == 0 || a.hand.Dealt || m.Amount != a.stake {
			return nil, nil
		}
		if err := a.Account.Refund(m.Amount); err != nil {
			return nil, err
		}
		a.stake = 0
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpected, m.Kind())
	}
	return nil, nil
}

// dealt checks the dealing proof and both openings. A deal that fails is kept
// as disputed and not acknowledged.
func (a *Actor) dealt(m protocol.DealCards) []protocol.Message {
	if m.GameID <= a.finished || (a.hand.Dealt && m.GameID <= a.hand.GameID) {
		return nil
	}
	a.hand = Hand{
		GameID:      m.GameID,
		Dealt:       true,
		Hole:        m.Openings,
		Commitments: m.Proof.Commitments,
		DeckRoot:    m.Proof.DeckRoot,
	}
	ok := a.verifier.VerifyDealing(m.Proof)
	for i, o := range m.Openings {
		ok = ok && o.Card.Valid() && commitment.Open(m.Proof.Commitments[i], o.Card.Index(), o.Blinding)
	}
	if !ok {
		a.hand.Disputed = true
		return nil
	}
	return []protocol.Message{protocol.CardsReceived{GameID: m.GameID}}
}

// board places the cards of one street. Repeated or out of order streets are dropped.
func (a *Actor) board(m protocol.CommunityCards) {
	from, to := m.Phase.StreetCards()
	if to == 0 || len(m.Cards) != to-from || len(a.hand.Community) != from {
		return
	}
	a.hand.Community = append(a.hand.Community, m.Cards...)
}
