// Package poker implements the domain logic for heads-up Texas Hold'em:
// cards and their dense index, the seeded deck shuffle, hand evaluation and
// the betting rules.
//
// # Cards
//
// A Card has a suit (Heart, Diamond, Club, Spade) and a rank from Two to Ace.
// Index maps it to suit*13 + rank-2 in [0, 52); CardFromIndex is the inverse.
// That index is what commitments and circuits work with.
//
// # Hand Evaluation
//
// Evaluate picks the best five card hand out of the hole and community cards
// and returns a HandScore: a category plus tiebreakers, totally ordered by
// Compare. Describe renders the best hand as text.
//
// # Betting
//
// ApplyBet validates a check, call, raise, all-in or fold for the acting
// player and reports how much moves into the pot.
package poker
