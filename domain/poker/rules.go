package poker

import (
	"errors"
	"fmt"
)

var ErrIllegalAction = errors.New("illegal action")

// BetOutcome is the effect of a legal action on the acting player and the street.
type BetOutcome struct {
	// Paid is moved from the player's stake into the pot.
	Paid       uint64
	CurrentBet uint64
	MinRaise   uint64
	Folded     bool
}

// ApplyBet checks an action against the acting player and the street state and
// returns its effect. Nothing is mutated.
func ApplyBet(p PlayerInfo, action BetAction, currentBet, minRaise uint64) (BetOutcome, error) {
	out := BetOutcome{CurrentBet: currentBet, MinRaise: minRaise}
	if p.Folded {
		return out, fmt.Errorf("%w: player has folded", ErrIllegalAction)
	}
	switch action.Type {
	case ActionFold:
		out.Folded = true
	case ActionCheck:
		if p.StreetBet != currentBet {
			return out, fmt.Errorf("%w: cannot check, must call, raise or fold", ErrIllegalAction)
		}
	case ActionCall:
		if p.StreetBet >= currentBet {
			return out, fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		out.Paid = min(currentBet-p.StreetBet, p.Stake)
	case ActionRaise:
		if action.Amount < minRaise {
			return out, fmt.Errorf("%w: raise %d below minimum %d", ErrIllegalAction, action.Amount, minRaise)
		}
		target := currentBet + action.Amount
		if target-p.StreetBet > p.Stake {
			return out, fmt.Errorf("%w: insufficient funds to raise", ErrIllegalAction)
		}
		out.Paid = target - p.StreetBet
		out.CurrentBet = target
		out.MinRaise = max(minRaise, action.Amount)
	case ActionAllIn:
		if p.Stake == 0 {
			return out, fmt.Errorf("%w: nothing left to bet", ErrIllegalAction)
		}
		out.Paid = p.Stake
		if total := p.StreetBet + p.Stake; total > currentBet {
			out.CurrentBet = total
			out.MinRaise = max(minRaise, total-currentBet)
		}
	default:
		return out, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, action.Type)
	}
	return out, nil
}
