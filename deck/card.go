// Package deck holds the playing cards, the data-driven card-effect table,
// and the draw/discard piles. All randomness flows through a caller-supplied
// PCG source so that shuffles replay bit-identically from the same state.
package deck

import (
	"fmt"
)

type Rank uint8

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var rankChars = " A23456789TJQK"

func (r Rank) String() string {
	if r < 1 || r > 13 {
		return "?"
	}
	return string(rankChars[r])
}

type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitChars = "CDHS"

func (s Suit) String() string {
	if s > Spades {
		return "?"
	}
	return string(suitChars[s])
}

// A Card is one of the 52 cards of a standard deck.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// MarshalText encodes a card as its two-letter name, e.g. "7H" or "AS".
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	s := string(b)
	if len(s) != 2 {
		return fmt.Errorf("bad card %q", s)
	}
	var rank Rank
	for i := 1; i <= 13; i++ {
		if rankChars[i] == s[0] {
			rank = Rank(i)
		}
	}
	var suit = Suit(255)
	for i := 0; i < 4; i++ {
		if suitChars[i] == s[1] {
			suit = Suit(i)
		}
	}
	if rank == 0 || suit > Spades {
		return fmt.Errorf("bad card %q", s)
	}
	*c = Card{Rank: rank, Suit: suit}
	return nil
}

// An Effect is what a rank does when played. Movement is always the full hop
// count of the card; SplitMove cards may divide it between two pieces.
type Effect struct {
	// Hops is the number of hops the card moves a piece.
	Hops int `yaml:"hops"`
	// Backward moves the piece against the direction of play.
	Backward bool `yaml:"backward"`
	// Entry lets the card bring a piece out of holding instead of moving.
	Entry bool `yaml:"entry"`
	// SplitMove lets the hop count be divided between two pieces.
	SplitMove bool `yaml:"split_move"`
	// ExtraTurn grants the player another turn after resolution.
	ExtraTurn bool `yaml:"extra_turn"`
	// ExitCapture lets a piece trapped in the capture hole move again.
	ExitCapture bool `yaml:"exit_capture"`
}

// An EffectTable maps every rank to its effect. It is part of the ruleset;
// turn extension and entry gating read these flags, never a hardcoded
// per-rank table.
type EffectTable map[Rank]Effect

// DefaultEffects is the canonical card mapping: aces and kings enter (or
// move 1 and 13), fours move backward, sevens split, sixes grant an extra
// turn, jacks release trapped pieces, everything else moves its face value.
func DefaultEffects() EffectTable {
	t := EffectTable{}
	for r := Ace; r <= King; r++ {
		t[r] = Effect{Hops: int(r)}
	}
	t[Ace] = Effect{Hops: 1, Entry: true}
	t[King] = Effect{Hops: 13, Entry: true}
	t[Four] = Effect{Hops: 4, Backward: true}
	t[Seven] = Effect{Hops: 7, SplitMove: true}
	t[Six] = Effect{Hops: 6, ExtraTurn: true}
	t[Jack] = Effect{Hops: 11, ExitCapture: true}
	return t
}

// Validate checks that every rank has an effect with a positive hop count.
func (t EffectTable) Validate() error {
	for r := Ace; r <= King; r++ {
		eff, ok := t[r]
		if !ok {
			return fmt.Errorf("rank %v has no effect", r)
		}
		if eff.Hops < 1 {
			return fmt.Errorf("rank %v has hop count %d", r, eff.Hops)
		}
	}
	return nil
}
