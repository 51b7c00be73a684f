package table

import (
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

// Input is one of the operations the table accepts. The set is closed.
type Input interface {
	isInput()
}

type Join struct {
	From    Identity
	Stake   uint64
	HandApp string
}

type Bet struct {
	From   Identity
	GameID uint64
	Action poker.BetAction
}

// Reveal carries either plaintext openings or a RevealProof, depending on
// the configured reveal mode.
type Reveal struct {
	From     Identity
	GameID   uint64
	Cards    []poker.Card
	Openings []protocol.CardOpening
	Proof    *proof.RevealProof
}

type Leave struct {
	From Identity
}

type CardsReceived struct {
	From   Identity
	GameID uint64
}

type StartNewGame struct{}

// ForceAdvance deals the next street without betting. It needs Config.AllowForceAdvance.
type ForceAdvance struct{}

// TimeoutCheck is permissionless: anyone may ask the table to enforce deadlines.
type TimeoutCheck struct {
	GameID uint64
}

func (Join) isInput()          {}
func (Bet) isInput()           {}
func (Reveal) isInput()        {}
func (Leave) isInput()         {}
func (CardsReceived) isInput() {}
func (StartNewGame) isInput()  {}
func (ForceAdvance) isInput()  {}
func (TimeoutCheck) isInput()  {}

// FromMessage maps a player message to the matching input.
// Messages the table only ever sends yield ok == false.
func FromMessage(from Identity, m protocol.Message) (in Input, ok bool) {
	switch m := m.(type) {
	case protocol.JoinTable:
		return Join{From: from, Stake: m.Stake, HandApp: m.HandApp}, true
	case protocol.BetAction:
		return Bet{From: from, GameID: m.GameID, Action: m.Action}, true
	case protocol.RevealCards:
		return Reveal{From: from, GameID: m.GameID, Cards: m.Cards, Openings: m.Proofs, Proof: m.Proof}, true
	case protocol.LeaveTable:
		return Leave{From: from}, true
	case protocol.CardsReceived:
		return CardsReceived{From: from, GameID: m.GameID}, true
	case protocol.TriggerTimeoutCheck:
		return TimeoutCheck{GameID: m.GameID}, true
	}
	return nil, false
}

// Outbound is a message the table wants delivered once the transition is committed.
type Outbound struct {
	To  Identity
	Msg protocol.Message
}
