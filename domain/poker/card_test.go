package poker

import (
	"encoding/json"
	"testing"
)

func TestCardIndexRoundTrip(t *testing.T) {
	for i := uint8(0); i < DeckSize; i++ {
		c, err := CardFromIndex(i)
		if err != nil {
			t.Fatal(err)
		}
		if c.Index() != i {
			t.Fatalf("expected index %d, got %d", i, c.Index())
		}
		back, err := NewCard(c.Suit(), c.Rank())
		if err != nil {
			t.Fatal(err)
		}
		if back != c {
			t.Fatalf("expected %v, got %v", c, back)
		}
	}
}

func TestCardFromIndexOutOfRange(t *testing.T) {
	for _, i := range []uint8{52, 53, 64, 255} {
		if _, err := CardFromIndex(i); err == nil {
			t.Fatalf("expected error for index %d", i)
		}
	}
}

func TestCardIndexLayout(t *testing.T) {
	tests := []struct {
		name  string
		suit  uint8
		rank  uint8
		index uint8
	}{
		{"two of hearts", Heart, Two, 0},
		{"ace of hearts", Heart, Ace, 12},
		{"two of diamonds", Diamond, Two, 13},
		{"ten of clubs", Club, Ten, 34},
		{"ace of spades", Spade, Ace, 51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCard(tt.suit, tt.rank)
			if err != nil {
				t.Fatal(err)
			}
			if c.Index() != tt.index {
				t.Fatalf("expected %d, got %d", tt.index, c.Index())
			}
		})
	}
}

func TestNewCardRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		suit uint8
		rank uint8
	}{
		{"suit too high", 4, Ace},
		{"rank one", Heart, 1},
		{"rank zero", Heart, 0},
		{"rank fifteen", Spade, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCard(tt.suit, tt.rank); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		in   string
		suit uint8
		rank uint8
	}{
		{"As", Spade, Ace},
		{"Td", Diamond, Ten},
		{"10d", Diamond, Ten},
		{"2h", Heart, Two},
		{"kc", Club, King},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCard(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if c.Suit() != tt.suit || c.Rank() != tt.rank {
				t.Fatalf("expected %d/%d, got %d/%d", tt.suit, tt.rank, c.Suit(), c.Rank())
			}
		})
	}
	for _, bad := range []string{"", "A", "Ax", "1s", "Zs"} {
		if _, err := ParseCard(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCardCode(t *testing.T) {
	cards, err := ParseCards("As Td 9c 2h")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"As", "Td", "9c", "2h"}
	for i, c := range cards {
		if c.Code() != want[i] {
			t.Fatalf("expected %s, got %s", want[i], c.Code())
		}
	}
	if (Card{}).Code() != "??" {
		t.Fatal("zero card should not have a code")
	}
	if (Card{}).String() != FaceDown {
		t.Fatal("zero card should render face down")
	}
}

func TestCardJSON(t *testing.T) {
	c, _ := NewCard(Club, Queen)
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "36" {
		t.Fatalf("expected 36, got %s", b)
	}
	var back Card
	if err := json.Unmarshal([]byte("52"), &back); err == nil {
		t.Fatal("expected error for index 52")
	}
	b, err = json.Marshal([2]Card{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[null,null]" {
		t.Fatalf("expected nulls, got %s", b)
	}
	if err := json.Unmarshal([]byte("null"), &back); err != nil || back != (Card{}) {
		t.Fatalf("null should decode to the zero card, got %v, %v", back, err)
	}
	if _, err := json.Marshal(Card{suit: 9, rank: 3}); err == nil {
		t.Fatal("expected error for invalid card")
	}
}
