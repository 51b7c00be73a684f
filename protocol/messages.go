// Package protocol defines the messages exchanged between the table and the
// players, their JSON encoding, and the signed envelopes that carry them.
package protocol

import (
	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/zk/proof"
)

// Identity is the hex encoded public key of an actor.
type Identity string

type Kind string

const (
	KindDealCards           Kind = "deal_cards"
	KindCommunityCards      Kind = "community_cards"
	KindRequestReveal       Kind = "request_reveal"
	KindYourTurn            Kind = "your_turn"
	KindGameResult          Kind = "game_result"
	KindRefund              Kind = "refund"
	KindJoinTable           Kind = "join_table"
	KindCardsReceived       Kind = "cards_received"
	KindBetAction           Kind = "bet_action"
	KindRevealCards         Kind = "reveal_cards"
	KindLeaveTable          Kind = "leave_table"
	KindTriggerTimeoutCheck Kind = "trigger_timeout_check"
)

// Message is implemented by every message variant in this package and nothing else.
type Message interface {
	Kind() Kind
	isMessage()
}

// CardOpening discloses one committed card.
type CardOpening struct {
	Card     poker.Card `json:"card"`
	Blinding []byte     `json:"blinding"`
}

// DealCards hands a player the proof of their deal and, privately, the openings
// of their two commitments.
type DealCards struct {
	GameID   uint64             `json:"game_id"`
	Proof    proof.DealingProof `json:"dealing_proof"`
	Openings [2]CardOpening     `json:"openings"`
}

type CommunityCards struct {
	GameID uint64       `json:"game_id"`
	Phase  poker.Phase  `json:"phase"`
	Cards  []poker.Card `json:"cards"`
}

type RequestReveal struct {
	GameID uint64 `json:"game_id"`
}

type YourTurn struct {
	GameID       uint64 `json:"game_id"`
	CurrentBet   uint64 `json:"current_bet"`
	Pot          uint64 `json:"pot"`
	MinRaise     uint64 `json:"min_raise"`
	TurnDeadline uint64 `json:"turn_deadline"`
	// ToCall is what the acting player must add to match CurrentBet.
	ToCall uint64 `json:"to_call"`
}

type GameResult struct {
	GameID        uint64       `json:"game_id"`
	Won           bool         `json:"won"`
	Payout        uint64       `json:"payout"`
	OpponentCards []poker.Card `json:"opponent_cards,omitempty"`
	Forfeited     bool         `json:"forfeited"`
}

// Refund returns an escrowed stake to a player who left before the deal.
type Refund struct {
	GameID uint64 `json:"game_id"`
	Amount uint64 `json:"amount"`
}

type JoinTable struct {
	Stake   uint64 `json:"stake"`
	HandApp string `json:"hand_app,omitempty"`
}

type CardsReceived struct {
	GameID uint64 `json:"game_id"`
}

type BetAction struct {
	GameID uint64          `json:"game_id"`
	Action poker.BetAction `json:"action"`
}

// RevealCards opens a player's hole cards at showdown, either with plaintext
// openings in Proofs or with a zero-knowledge RevealProof.
type RevealCards struct {
	GameID uint64             `json:"game_id"`
	Cards  []poker.Card       `json:"cards"`
	Proofs []CardOpening      `json:"proofs,omitempty"`
	Proof  *proof.RevealProof `json:"reveal_proof,omitempty"`
}

type LeaveTable struct{}

// TriggerTimeoutCheck may be sent by anyone.
type TriggerTimeoutCheck struct {
	GameID uint64 `json:"game_id"`
}

func (DealCards) Kind() Kind           { return KindDealCards }
func (CommunityCards) Kind() Kind      { return KindCommunityCards }
func (RequestReveal) Kind() Kind       { return KindRequestReveal }
func (YourTurn) Kind() Kind            { return KindYourTurn }
func (GameResult) Kind() Kind          { return KindGameResult }
func (Refund) Kind() Kind              { return KindRefund }
func (JoinTable) Kind() Kind           { return KindJoinTable }
func (CardsReceived) Kind() Kind       { return KindCardsReceived }
func (BetAction) Kind() Kind           { return KindBetAction }
func (RevealCards) Kind() Kind         { return KindRevealCards }
func (LeaveTable) Kind() Kind          { return KindLeaveTable }
func (TriggerTimeoutCheck) Kind() Kind { return KindTriggerTimeoutCheck }

func (DealCards) isMessage()           {}
func (CommunityCards) isMessage()      {}
func (RequestReveal) isMessage()       {}
func (YourTurn) isMessage()            {}
func (GameResult) isMessage()          {}
func (Refund) isMessage()              {}
func (JoinTable) isMessage()           {}
func (CardsReceived) isMessage()       {}
func (BetAction) isMessage()           {}
func (RevealCards) isMessage()         {}
func (LeaveTable) isMessage()          {}
func (TriggerTimeoutCheck) isMessage() {}
