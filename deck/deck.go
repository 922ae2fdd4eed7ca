package deck

import (
	"errors"

	"github.com/dgryski/go-pcgr"
)

// ErrEmpty is returned when both piles are exhausted. It cannot happen with
// a full 52-card deck and fewer than 52 undiscarded cards in flight.
var ErrEmpty = errors.New("deck: no cards left in draw or discard pile")

// A Deck is the draw pile and the discard pile. Both are plain exported
// slices so the whole thing serializes into game state; the PCG source that
// drives shuffles lives in the game state too and is passed in per call.
type Deck struct {
	Draw    []Card `json:"draw"`
	Discard []Card `json:"discard"`
}

// New returns a full 52-card deck, shuffled with rng.
func New(rng *pcgr.Rand) Deck {
	cards := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	d := Deck{Draw: cards}
	d.shuffle(rng)
	return d
}

// shuffle is a Fisher-Yates over the draw pile, consuming rng in a fixed
// order so identical states shuffle identically.
func (d *Deck) shuffle(rng *pcgr.Rand) {
	for i := len(d.Draw) - 1; i > 0; i-- {
		j := int(rng.Bound(uint32(i + 1)))
		d.Draw[i], d.Draw[j] = d.Draw[j], d.Draw[i]
	}
}

// DrawCard pops the top of the draw pile, reshuffling the discard pile into
// it first if the draw pile is empty.
func (d *Deck) DrawCard(rng *pcgr.Rand) (Card, error) {
	if len(d.Draw) == 0 {
		if len(d.Discard) == 0 {
			return Card{}, ErrEmpty
		}
		d.Draw = d.Discard
		d.Discard = nil
		d.shuffle(rng)
	}
	c := d.Draw[len(d.Draw)-1]
	d.Draw = d.Draw[:len(d.Draw)-1]
	return c, nil
}

// DiscardCard puts a consumed card on the discard pile.
func (d *Deck) DiscardCard(c Card) {
	d.Discard = append(d.Discard, c)
}

func (d *Deck) Remaining() int { return len(d.Draw) }

// Copy deep-copies both piles.
func (d *Deck) Copy() Deck {
	nd := Deck{
		Draw:    make([]Card, len(d.Draw)),
		Discard: make([]Card, len(d.Discard)),
	}
	copy(nd.Draw, d.Draw)
	copy(nd.Discard, d.Discard)
	return nd
}
