package cards

import (
	"errors"
	"math/rand"
	"time"
)

// ErrDeckEmpty is returned when drawing from a deck with no live cards
var ErrDeckEmpty = errors.New("deck is empty")

// Deck holds the live cards still to be dealt and the dead cards already drawn.
// A deck lives for one hand.
type Deck struct {
	live []Card
	dead []Card
	rng  *rand.Rand
}

// NewDeck creates a full 52 card deck drawing with rng.
// A nil rng is seeded from the clock.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	live := make([]Card, 0, 52)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			live = append(live, Card{Rank: rank, Suit: suit})
		}
	}

	return &Deck{live: live, dead: make([]Card, 0, 52), rng: rng}
}

// NewDeckOf creates a deck whose live set is exactly cs, for short or stacked decks
func NewDeckOf(rng *rand.Rand, cs ...Card) *Deck {
	d := NewDeck(rng)
	d.live = append(d.live[:0], cs...)
	return d
}

// Draw removes a uniformly chosen card from the live set and returns it
func (d *Deck) Draw() (Card, error) {
	if len(d.live) == 0 {
		return Card{}, ErrDeckEmpty
	}

	i := d.rng.Intn(len(d.live))
	c := d.live[i]
	last := len(d.live) - 1
	d.live[i] = d.live[last]
	d.live = d.live[:last]
	d.dead = append(d.dead, c)

	return c, nil
}

// Burn draws a card and discards it
func (d *Deck) Burn() error {
	_, err := d.Draw()
	return err
}

// Live returns how many cards remain to be drawn
func (d *Deck) Live() int {
	return len(d.live)
}

// Dead returns a copy of the cards drawn so far
func (d *Deck) Dead() Cards {
	return Of(d.dead...)
}
