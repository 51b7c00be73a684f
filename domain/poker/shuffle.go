package poker

import (
	"encoding/binary"
	"io"

	"go.dedis.ch/kyber/v4/suites"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// NewDeck returns the 52 cards ordered by index.
func NewDeck() [DeckSize]Card {
	var deck [DeckSize]Card
	for i := range deck {
		deck[i], _ = CardFromIndex(uint8(i))
	}
	return deck
}

// Shuffle returns a permutation of the deck that depends only on seed.
// A Fisher-Yates pass draws its swap indices from the suite XOF keyed with the seed,
// with rejection sampling so every permutation is equally likely.
func Shuffle(seed []byte) [DeckSize]Card {
	deck := NewDeck()
	xof := suite.XOF(seed)
	for i := DeckSize - 1; i > 0; i-- {
		j := uniform(xof, uint64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// uniform returns a value in [0, n) read from r without modulo bias.
func uniform(r io.Reader, n uint64) uint64 {
	limit := (uint64(1) << 32) / n * n
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			panic(err) // an XOF stream does not run dry
		}
		v := uint64(binary.BigEndian.Uint32(buf[:]))
		if v < limit {
			return v % n
		}
	}
}
