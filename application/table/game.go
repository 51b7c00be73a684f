package table

import (
	"fmt"

	"github.com/luca-patrignani/zk-holdem/domain/poker"
	"github.com/luca-patrignani/zk-holdem/protocol"
	"github.com/luca-patrignani/zk-holdem/zk/commitment"
)

type Identity = protocol.Identity

// RevealMode decides what a showdown reveal must carry.
type RevealMode string

const (
	// RevealZK requires a RevealProof checked by the table's verifier.
	RevealZK RevealMode = "zk"
	// RevealPlaintext requires the opening of each commitment.
	RevealPlaintext RevealMode = "plaintext"
)

type TimeoutConfig struct {
	BetTimeoutBlocks    uint64 `json:"bet_timeout_blocks"`
	RevealTimeoutBlocks uint64 `json:"reveal_timeout_blocks"`
	AutoForfeit         bool   `json:"auto_forfeit"`
}

type Config struct {
	MinStake   uint64        `json:"min_stake"`
	MaxStake   uint64        `json:"max_stake"`
	SmallBlind uint64        `json:"small_blind"`
	BigBlind   uint64        `json:"big_blind"`
	Timeouts   TimeoutConfig `json:"timeouts"`
	RevealMode RevealMode    `json:"reveal_mode"`
	// AllowForceAdvance enables the ForceAdvance input. Meant for tests.
	AllowForceAdvance bool `json:"allow_force_advance"`
}

func DefaultConfig() Config {
	return Config{
		MinStake:   10,
		MaxStake:   1000,
		SmallBlind: 5,
		BigBlind:   10,
		Timeouts: TimeoutConfig{
			BetTimeoutBlocks:    50,
			RevealTimeoutBlocks: 100,
			AutoForfeit:         true,
		},
		RevealMode: RevealZK,
	}
}

func (c Config) Validate() error {
	switch {
	case c.BigBlind == 0:
		return fmt.Errorf("big blind must be positive")
	case c.SmallBlind > c.BigBlind:
		return fmt.Errorf("small blind %d above big blind %d", c.SmallBlind, c.BigBlind)
	case c.MinStake < c.BigBlind:
		return fmt.Errorf("min stake %d below big blind %d", c.MinStake, c.BigBlind)
	case c.MinStake > c.MaxStake:
		return fmt.Errorf("min stake %d above max stake %d", c.MinStake, c.MaxStake)
	case c.RevealMode != RevealZK && c.RevealMode != RevealPlaintext:
		return fmt.Errorf("unknown reveal mode %q", c.RevealMode)
	}
	return nil
}

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeWin     Outcome = "win"
	OutcomeSplit   Outcome = "split"
	OutcomeForfeit Outcome = "forfeit"
)

// Game is the table state of one hand. A nil Winner with OutcomeSplit is a split pot.
type Game struct {
	ID                  uint64                                    `json:"id"`
	Phase               poker.Phase                               `json:"phase"`
	Players             []poker.PlayerInfo                        `json:"players"`
	Pot                 uint64                                    `json:"pot"`
	CurrentBet          uint64                                    `json:"current_bet"`
	MinRaise            uint64                                    `json:"min_raise"`
	Community           [5]poker.Card                             `json:"community"`
	CommunityShown      int                                       `json:"community_shown"`
	Turn                *poker.Seat                               `json:"turn,omitempty"`
	Winner              *poker.Seat                               `json:"winner,omitempty"`
	Outcome             Outcome                                   `json:"outcome,omitempty"`
	Button              poker.Seat                                `json:"button,omitempty"`
	DeckRoot            [32]byte                                  `json:"deck_root"`
	DeckSeed            []byte                                    `json:"deck_seed,omitempty"`
	Commitments         map[Identity][2]commitment.CardCommitment `json:"commitments,omitempty"`
	Revealed            map[poker.Seat][2]poker.Card              `json:"revealed,omitempty"`
	TurnStartHeight     uint64                                    `json:"turn_start_height"`
	ShowdownStartHeight *uint64                                   `json:"showdown_start_height,omitempty"`
	TimedOut            []Identity                                `json:"timed_out,omitempty"`
	ActionsThisStreet   int                                       `json:"actions_this_street"`
	Config              Config                                    `json:"config"`
}

// NewGame returns the first game of a table, waiting for players.
func NewGame(cfg Config) Game {
	return Game{ID: 1, Phase: poker.WaitingForPlayers, Config: cfg}
}

// Clone returns a copy of g that shares no memory with it.
func (g Game) Clone() Game {
	c := g
	c.Players = append([]poker.PlayerInfo(nil), g.Players...)
	c.DeckSeed = append([]byte(nil), g.DeckSeed...)
	c.TimedOut = append([]Identity(nil), g.TimedOut...)
	if g.Turn != nil {
		t := *g.Turn
		c.Turn = &t
	}
	if g.Winner != nil {
		w := *g.Winner
		c.Winner = &w
	}
	if g.ShowdownStartHeight != nil {
		h := *g.ShowdownStartHeight
		c.ShowdownStartHeight = &h
	}
	if g.Commitments != nil {
		c.Commitments = make(map[Identity][2]commitment.CardCommitment, len(g.Commitments))
		for id, cs := range g.Commitments {
			var cp [2]commitment.CardCommitment
			for i := range cs {
				cp[i] = commitment.CardCommitment{
					Commitment: append([]byte(nil), cs[i].Commitment...),
					Nonce:      append([]byte(nil), cs[i].Nonce...),
				}
			}
			c.Commitments[id] = cp
		}
	}
	if g.Revealed != nil {
		c.Revealed = make(map[poker.Seat][2]poker.Card, len(g.Revealed))
		for s, cards := range g.Revealed {
			c.Revealed[s] = cards
		}
	}
	return c
}

// Player returns the player in seat s.
func (g *Game) Player(s poker.Seat) *poker.PlayerInfo {
	for i := range g.Players {
		if g.Players[i].Seat == s {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerByIdentity returns the seated player with identity id.
func (g *Game) PlayerByIdentity(id Identity) *poker.PlayerInfo {
	for i := range g.Players {
		if Identity(g.Players[i].Identity) == id {
			return &g.Players[i]
		}
	}
	return nil
}

// VisibleCommunity returns the community cards dealt face up so far.
func (g Game) VisibleCommunity() []poker.Card {
	return append([]poker.Card(nil), g.Community[:g.CommunityShown]...)
}

func (g *Game) live() []*poker.PlayerInfo {
	var out []*poker.PlayerInfo
	for i := range g.Players {
		if !g.Players[i].Folded {
			out = append(out, &g.Players[i])
		}
	}
	return out
}
