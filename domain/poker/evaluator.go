package poker

import (
	"fmt"
	"sort"

	"github.com/paulhankin/poker"
)

// HandRank is the category of a five card hand, ordered from weakest to strongest.
type HandRank uint8

const (
	HighCard HandRank = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var handRankNames = [...]string{
	"high card", "one pair", "two pair", "three of a kind", "straight",
	"flush", "full house", "four of a kind", "straight flush", "royal flush",
}

func (r HandRank) String() string {
	if int(r) < len(handRankNames) {
		return handRankNames[r]
	}
	return fmt.Sprintf("HandRank(%d)", r)
}

// HandScore totally orders hands: category first, then tiebreakers compared
// lexicographically. Two hands of equal strength have equal scores.
type HandScore struct {
	Rank        HandRank `json:"rank"`
	Tiebreakers []uint8  `json:"tiebreakers"`
}

// Compare returns -1, 0 or 1 when s is weaker than, equal to or stronger than o.
func (s HandScore) Compare(o HandScore) int {
	if s.Rank != o.Rank {
		if s.Rank < o.Rank {
			return -1
		}
		return 1
	}
	for i := 0; i < len(s.Tiebreakers) && i < len(o.Tiebreakers); i++ {
		if s.Tiebreakers[i] != o.Tiebreakers[i] {
			if s.Tiebreakers[i] < o.Tiebreakers[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(s.Tiebreakers) < len(o.Tiebreakers):
		return -1
	case len(s.Tiebreakers) > len(o.Tiebreakers):
		return 1
	}
	return 0
}

func (s HandScore) String() string {
	return fmt.Sprintf("%s %v", s.Rank, s.Tiebreakers)
}

// Evaluate scores the best five card hand that can be made from the hole and
// community cards. At showdown this is 2 hole + 5 community cards, i.e. 21 subsets.
// With fewer than 5 cards in total the score is a high card hand over what is there.
func Evaluate(hole []Card, community []Card) HandScore {
	all := make([]Card, 0, len(hole)+len(community))
	all = append(all, hole...)
	all = append(all, community...)

	if len(all) < 5 {
		ranks := make([]uint8, len(all))
		for i, c := range all {
			ranks[i] = c.rank
		}
		sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
		return HandScore{Rank: HighCard, Tiebreakers: ranks}
	}

	best := HandScore{Rank: HighCard}
	var five [5]Card
	var choose func(start, depth int)
	choose = func(start, depth int) {
		if depth == 5 {
			if s := EvaluateFive(five); s.Compare(best) > 0 {
				best = s
			}
			return
		}
		for i := start; i <= len(all)-(5-depth); i++ {
			five[depth] = all[i]
			choose(i+1, depth+1)
		}
	}
	choose(0, 0)
	return best
}

// EvaluateFive scores exactly five cards.
func EvaluateFive(cards [5]Card) HandScore {
	ranks := make([]uint8, 5)
	flush := true
	for i, c := range cards {
		ranks[i] = c.rank
		if c.suit != cards[0].suit {
			flush = false
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	distinct := true
	for i := 1; i < 5; i++ {
		if ranks[i] == ranks[i-1] {
			distinct = false
			break
		}
	}
	wheel := ranks[0] == Ace && ranks[1] == 5 && ranks[2] == 4 && ranks[3] == 3 && ranks[4] == 2
	straight := distinct && (ranks[0]-ranks[4] == 4 || wheel)
	high := ranks[0]
	if wheel {
		high = 5
	}

	switch {
	case straight && flush && high == Ace:
		return HandScore{Rank: RoyalFlush, Tiebreakers: []uint8{}}
	case straight && flush:
		return HandScore{Rank: StraightFlush, Tiebreakers: []uint8{high}}
	}

	groups := groupRanks(ranks)
	switch {
	case groups[0].count == 4:
		return HandScore{Rank: FourOfAKind, Tiebreakers: []uint8{groups[0].rank, groups[1].rank}}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandScore{Rank: FullHouse, Tiebreakers: []uint8{groups[0].rank, groups[1].rank}}
	case flush:
		return HandScore{Rank: Flush, Tiebreakers: ranks}
	case straight:
		return HandScore{Rank: Straight, Tiebreakers: []uint8{high}}
	case groups[0].count == 3:
		return HandScore{Rank: ThreeOfAKind, Tiebreakers: groups.ranks()}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandScore{Rank: TwoPair, Tiebreakers: groups.ranks()}
	case groups[0].count == 2:
		return HandScore{Rank: OnePair, Tiebreakers: groups.ranks()}
	}
	return HandScore{Rank: HighCard, Tiebreakers: ranks}
}

type rankGroup struct {
	rank  uint8
	count int
}

type rankGroups []rankGroup

func (g rankGroups) ranks() []uint8 {
	out := make([]uint8, len(g))
	for i, r := range g {
		out[i] = r.rank
	}
	return out
}

// groupRanks counts equal ranks and orders the groups by count, then rank, descending.
func groupRanks(ranks []uint8) rankGroups {
	var groups rankGroups
	for _, r := range ranks {
		found := false
		for i := range groups {
			if groups[i].rank == r {
				groups[i].count++
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, rankGroup{rank: r, count: 1})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// Describe returns a human readable description of the best hand in cards,
// e.g. "two pair, kings and fours". It needs between 5 and 7 cards.
func Describe(cards []Card) (string, error) {
	pc, err := toPaulhankin(cards)
	if err != nil {
		return "", err
	}
	return poker.Describe(pc)
}

// toPaulhankin converts cards to the paulhankin/poker representation, where aces are rank 1.
func toPaulhankin(cards []Card) ([]poker.Card, error) {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		var s poker.Suit
		switch c.suit {
		case Heart:
			s = poker.Heart
		case Diamond:
			s = poker.Diamond
		case Club:
			s = poker.Club
		case Spade:
			s = poker.Spade
		}
		r := poker.Rank(c.rank)
		if c.rank == Ace {
			r = 1
		}
		pc, err := poker.MakeCard(s, r)
		if err != nil {
			return nil, fmt.Errorf("invalid card at idx %d: %w", i, err)
		}
		out[i] = pc
	}
	return out, nil
}
