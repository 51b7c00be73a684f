package poker

import "fmt"

// Seat identifies one of the two places at a heads-up table.
type Seat uint8

const (
	Seat1 Seat = 1
	Seat2 Seat = 2
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	if s == Seat1 {
		return Seat2
	}
	return Seat1
}

func (s Seat) Valid() bool {
	return s == Seat1 || s == Seat2
}

func (s Seat) String() string {
	switch s {
	case Seat1:
		return "seat1"
	case Seat2:
		return "seat2"
	}
	return fmt.Sprintf("Seat(%d)", uint8(s))
}

type ActionType string

const (
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
	ActionFold  ActionType = "fold"
)

// BetAction is a single betting decision. Amount is only meaningful for raises,
// where it is the increment over the current bet.
type BetAction struct {
	Type   ActionType `json:"type"`
	Amount uint64     `json:"amount,omitempty"`
}

func Check() BetAction              { return BetAction{Type: ActionCheck} }
func Call() BetAction               { return BetAction{Type: ActionCall} }
func Raise(amount uint64) BetAction { return BetAction{Type: ActionRaise, Amount: amount} }
func AllIn() BetAction              { return BetAction{Type: ActionAllIn} }
func Fold() BetAction               { return BetAction{Type: ActionFold} }

func (a BetAction) String() string {
	if a.Type == ActionRaise {
		return fmt.Sprintf("raise %d", a.Amount)
	}
	return string(a.Type)
}

// PlayerInfo is the table's view of a seated player during one hand.
type PlayerInfo struct {
	Seat     Seat   `json:"seat"`
	Identity string `json:"identity"`
	HandApp  string `json:"hand_app,omitempty"`
	// Stake is what the player has left to bet with.
	Stake     uint64 `json:"stake"`
	StreetBet uint64 `json:"street_bet"`
	Committed uint64 `json:"committed"`
	Folded    bool   `json:"folded"`
	Revealed  bool   `json:"revealed"`
	Acted     bool   `json:"acted"`
}

// AllIn reports whether the player has nothing left to bet.
func (p PlayerInfo) AllIn() bool {
	return !p.Folded && p.Stake == 0
}

// CanAct reports whether the player can still make betting decisions.
func (p PlayerInfo) CanAct() bool {
	return !p.Folded && p.Stake > 0
}
