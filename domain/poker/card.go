package poker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Card suit constants (0-3). The order fixes the dense card index.
const (
	Heart   = 0 // ♥ (red)
	Diamond = 1 // ♦ (red)
	Club    = 2 // ♣ (black)
	Spade   = 3 // ♠ (black)
)

// Card rank constants for face cards and ace. Ranks run from Two (2) to Ace (14).
const (
	Two   = 2
	Ten   = 10
	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14 // high in value, also low in the 5-4-3-2-A straight
)

// DeckSize is the number of distinct cards.
const DeckSize = 52

// Card represents a playing card with suit and rank.
type Card struct {
	suit uint8 // 0-3: hearts, diamonds, clubs, spades
	rank uint8 // 2-14: two through ace
}

// NewCard creates a new Card with validation.
//
// Parameters:
//   - suit: 0-3 (Heart, Diamond, Club, Spade)
//   - rank: 2-14 (2-10=face value, Jack=11, Queen=12, King=13, Ace=14)
//
// Returns the Card or an error if suit or rank is invalid.
func NewCard(suit uint8, rank uint8) (Card, error) {
	if suit > Spade || rank < Two || rank > Ace {
		return Card{}, fmt.Errorf("invalid card %d, %d", suit, rank)
	}
	return Card{suit: suit, rank: rank}, nil
}

// CardFromIndex converts a dense index in [0, 52) to a Card.
// It is the inverse of Card.Index.
func CardFromIndex(index uint8) (Card, error) {
	if index >= DeckSize {
		return Card{}, fmt.Errorf("card index %d out of range", index)
	}
	return Card{suit: index / 13, rank: index%13 + Two}, nil
}

// Suit returns the suit value of the Card (0-3: hearts, diamonds, clubs, spades).
func (c Card) Suit() uint8 {
	return c.suit
}

// Rank returns the rank value of the Card (2-14: two through ace).
func (c Card) Rank() uint8 {
	return c.rank
}

// Index returns suit*13 + (rank-2).
func (c Card) Index() uint8 {
	return c.suit*13 + (c.rank - Two)
}

// Valid reports whether c was built from a legal suit and rank. The zero Card is not valid.
func (c Card) Valid() bool {
	return c.suit <= Spade && c.rank >= Two && c.rank <= Ace
}

var rankSymbols = map[uint8]string{Ten: "T", Jack: "J", Queen: "Q", King: "K", Ace: "A"}

var suitLetters = map[byte]uint8{'h': Heart, 'd': Diamond, 'c': Club, 's': Spade}

// String returns a human-readable representation of the Card using suit symbols
// (♥, ♦, ♣, ♠) and rank abbreviations (T, J, Q, K, A or number).
func (c Card) String() string {
	if !c.Valid() {
		return FaceDown
	}
	var suit string
	switch c.suit {
	case Heart:
		suit = pterm.LightRed("♥")
	case Diamond:
		suit = pterm.LightRed("♦")
	case Club:
		suit = pterm.Black("♣")
	case Spade:
		suit = pterm.Black("♠")
	}
	return c.rankString() + suit
}

// Code returns the two-letter ASCII form of the card, e.g. "As" or "Td".
func (c Card) Code() string {
	if !c.Valid() {
		return "??"
	}
	return c.rankString() + string("hdcs"[c.suit])
}

func (c Card) rankString() string {
	if s, ok := rankSymbols[c.rank]; ok {
		return s
	}
	return fmt.Sprintf("%d", c.rank)
}

// FaceDown is the display character for hidden cards
const FaceDown = "▓"

// ParseCard parses the two-letter ASCII form produced by Code.
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit, ok := suitLetters[strings.ToLower(s)[len(s)-1]]
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}
	r := strings.ToUpper(s[:len(s)-1])
	for rank, sym := range rankSymbols {
		if sym == r {
			return NewCard(suit, rank)
		}
	}
	var rank uint8
	if _, err := fmt.Sscanf(r, "%d", &rank); err != nil {
		return Card{}, fmt.Errorf("invalid rank in %q: %w", s, err)
	}
	return NewCard(suit, rank)
}

// ParseCards parses a space separated list of cards such as "As Kd 2c".
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MarshalJSON encodes the card as its dense index, or null for a card not dealt yet.
func (c Card) MarshalJSON() ([]byte, error) {
	if c == (Card{}) {
		return []byte("null"), nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("cannot encode invalid card %d/%d", c.suit, c.rank)
	}
	return json.Marshal(c.Index())
}

// UnmarshalJSON decodes a dense index.
func (c *Card) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Card{}
		return nil
	}
	var idx uint8
	if err := json.Unmarshal(b, &idx); err != nil {
		return err
	}
	card, err := CardFromIndex(idx)
	if err != nil {
		return err
	}
	*c = card
	return nil
}
