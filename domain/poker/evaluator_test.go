package poker

import (
	"math/rand"
	"testing"

	"github.com/paulhankin/poker"
)

func mustCards(t *testing.T, s string) []Card {
	t.Helper()
	cards, err := ParseCards(s)
	if err != nil {
		t.Fatal(err)
	}
	return cards
}

func score(t *testing.T, hole, community string) HandScore {
	t.Helper()
	return Evaluate(mustCards(t, hole), mustCards(t, community))
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name      string
		hole      string
		community string
		rank      HandRank
		tie       []uint8
	}{
		{"royal flush", "As Ks", "Qs Js Ts 2d 3c", RoyalFlush, []uint8{}},
		{"straight flush", "9h 8h", "7h 6h 5h Ac Ad", StraightFlush, []uint8{9}},
		{"steel wheel", "Ad 2d", "3d 4d 5d Kc Ks", StraightFlush, []uint8{5}},
		{"four of a kind", "7c 7d", "7h 7s Kd 2c 3c", FourOfAKind, []uint8{7, King}},
		{"full house", "Qc Qd", "Qh 4s 4d 2c 9c", FullHouse, []uint8{Queen, 4}},
		{"flush", "Ah 9h", "6h 4h 2h Kd Kc", Flush, []uint8{Ace, 9, 6, 4, 2}},
		{"straight", "8c 7d", "6h 5s 4d Kc 2c", Straight, []uint8{8}},
		{"wheel", "Ac 2d", "3h 4s 5d Kc 9c", Straight, []uint8{5}},
		{"three of a kind", "5c 5d", "5h As Kd 2c 3c", ThreeOfAKind, []uint8{5, Ace, King}},
		{"two pair", "Kc Kd", "4h 4s Ad 2c 3c", TwoPair, []uint8{King, 4, Ace}},
		{"one pair", "Jc Jd", "4h 7s Ad 2c 9c", OnePair, []uint8{Jack, Ace, 9, 7}},
		{"high card", "Ac Jd", "4h 7s 9d 2c 3h", HighCard, []uint8{Ace, Jack, 9, 7, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := score(t, tt.hole, tt.community)
			if s.Rank != tt.rank {
				t.Fatalf("expected %s, got %s", tt.rank, s.Rank)
			}
			if len(s.Tiebreakers) != len(tt.tie) {
				t.Fatalf("expected tiebreakers %v, got %v", tt.tie, s.Tiebreakers)
			}
			for i := range tt.tie {
				if s.Tiebreakers[i] != tt.tie[i] {
					t.Fatalf("expected tiebreakers %v, got %v", tt.tie, s.Tiebreakers)
				}
			}
		})
	}
}

func TestCategoryOrdering(t *testing.T) {
	ordered := []HandScore{
		score(t, "Ac Jd", "4h 7s 9d 2c 3h"),
		score(t, "Jc Jd", "4h 7s Ad 2c 9c"),
		score(t, "Kc Kd", "4h 4s Ad 2c 3c"),
		score(t, "5c 5d", "5h As Kd 2c 3c"),
		score(t, "Ac 2d", "3h 4s 5d Kc 9c"),
		score(t, "Ah 9h", "6h 4h 2h Kd Kc"),
		score(t, "Qc Qd", "Qh 4s 4d 2c 9c"),
		score(t, "7c 7d", "7h 7s Kd 2c 3c"),
		score(t, "9h 8h", "7h 6h 5h Ac Ad"),
		score(t, "As Ks", "Qs Js Ts 2d 3c"),
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Compare(ordered[i-1]) <= 0 {
			t.Fatalf("%s should beat %s", ordered[i], ordered[i-1])
		}
		if ordered[i-1].Compare(ordered[i]) >= 0 {
			t.Fatalf("%s should lose to %s", ordered[i-1], ordered[i])
		}
	}
}

func TestWheelIsLowestStraight(t *testing.T) {
	wheel := score(t, "Ac 2d", "3h 4s 5d Kc 9c")
	six := score(t, "6c 2d", "3h 4s 5d Kc 9c")
	if wheel.Compare(six) >= 0 {
		t.Fatalf("wheel %s should lose to six high %s", wheel, six)
	}
}

func TestFlushesCompareByRanks(t *testing.T) {
	board := "Kh 8h 3h 2c 2d"
	a := score(t, "Ah 4h", board)
	b := score(t, "Qh Jh", board)
	if a.Compare(b) <= 0 {
		t.Fatalf("ace high flush %s should beat %s", a, b)
	}
}

func TestPairsCompareKickers(t *testing.T) {
	board := "9s 9d 5c 3h 2s"
	a := score(t, "Ac Td", board)
	b := score(t, "Ad 8c", board)
	if a.Compare(b) <= 0 {
		t.Fatalf("%s should beat %s on the second kicker", a, b)
	}
	c := score(t, "Ah Tc", board)
	if a.Compare(c) != 0 {
		t.Fatalf("%s and %s should tie", a, c)
	}
}

func TestIdenticalInputsTie(t *testing.T) {
	a := score(t, "Ac Kd", "Qh Js 9d 4c 2h")
	b := score(t, "Ac Kd", "Qh Js 9d 4c 2h")
	if a.Compare(b) != 0 {
		t.Fatal("identical hands should compare equal")
	}
	// board plays for both
	c := score(t, "2c 3d", "As Ks Qs Js Ts")
	d := score(t, "4c 5d", "As Ks Qs Js Ts")
	if c.Compare(d) != 0 {
		t.Fatal("royal flush on board should split")
	}
}

func TestEvaluateShortHand(t *testing.T) {
	s := Evaluate(mustCards(t, "2c Ad"), nil)
	if s.Rank != HighCard || len(s.Tiebreakers) != 2 || s.Tiebreakers[0] != Ace {
		t.Fatalf("unexpected score %s", s)
	}
}

// TestAgreesWithEval7 checks the ordering against paulhankin/poker on random deals.
func TestAgreesWithEval7(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sign := func(v int) int {
		switch {
		case v < 0:
			return -1
		case v > 0:
			return 1
		}
		return 0
	}
	for n := 0; n < 300; n++ {
		perm := rng.Perm(DeckSize)
		cards := make([]Card, 9)
		for i := range cards {
			cards[i], _ = CardFromIndex(uint8(perm[i]))
		}
		board := cards[4:9]
		a := Evaluate(cards[0:2], board)
		b := Evaluate(cards[2:4], board)

		var ha, hb [7]poker.Card
		pa, err := toPaulhankin(append(append([]Card{}, cards[0:2]...), board...))
		if err != nil {
			t.Fatal(err)
		}
		pb, err := toPaulhankin(append(append([]Card{}, cards[2:4]...), board...))
		if err != nil {
			t.Fatal(err)
		}
		copy(ha[:], pa)
		copy(hb[:], pb)
		want := sign(int(poker.Eval7(&ha)) - int(poker.Eval7(&hb)))
		if got := a.Compare(b); got != want {
			t.Fatalf("deal %d: Compare=%d, Eval7 says %d (%s vs %s)", n, got, want, a, b)
		}
	}
}

func TestDescribe(t *testing.T) {
	desc, err := Describe(mustCards(t, "As Ks Qs Js Ts 2d 3c"))
	if err != nil {
		t.Fatal(err)
	}
	if desc == "" {
		t.Fatal("expected a description")
	}
}
