package poker

// Phase is the lifecycle position of a hand at the table.
type Phase string

const (
	WaitingForPlayers Phase = "waiting_for_players"
	Dealing           Phase = "dealing"
	PreFlop           Phase = "preflop"
	Flop              Phase = "flop"
	Turn              Phase = "turn"
	River             Phase = "river"
	Showdown          Phase = "showdown"
	Settlement        Phase = "settlement"
	Finished          Phase = "finished"
)

// IsBetting reports whether players make betting decisions in p.
func (p Phase) IsBetting() bool {
	switch p {
	case PreFlop, Flop, Turn, River:
		return true
	}
	return false
}

// NextStreet returns the phase that follows a betting street.
// River is followed by Showdown; a non-betting phase is returned unchanged.
func (p Phase) NextStreet() Phase {
	switch p {
	case PreFlop:
		return Flop
	case Flop:
		return Turn
	case Turn:
		return River
	case River:
		return Showdown
	}
	return p
}

// CommunityVisible returns how many community cards are face up in p.
func (p Phase) CommunityVisible() int {
	switch p {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown, Settlement, Finished:
		return 5
	}
	return 0
}

// StreetCards returns the slice bounds of the community cards dealt when
// entering p, e.g. [0,3) for the flop.
func (p Phase) StreetCards() (from, to int) {
	switch p {
	case Flop:
		return 0, 3
	case Turn:
		return 3, 4
	case River:
		return 4, 5
	}
	return 0, 0
}
