package cards

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidCard is returned when a card shorthand cannot be parsed
var ErrInvalidCard = errors.New("invalid card")

// Rank is the face value of a card, TWO=2 through ACE=14
type Rank int8

const (
	RankZero Rank = 0
	Two      Rank = iota + 1
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists the real ranks from lowest to highest
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// String returns the single character used for the rank on the wire
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return string(rune('0' + r))
	case r == Ten:
		return "T"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	}
	return "0"
}

// Suit of a card
type Suit int8

const (
	SuitNone Suit = iota
	Spade
	Heart
	Diamond
	Club
)

// Suits lists the real suits in wire order
var Suits = []Suit{Spade, Heart, Diamond, Club}

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spade:
		return "♠"
	case Heart:
		return "♥"
	case Diamond:
		return "♦"
	case Club:
		return "♣"
	}
	return "?"
}

// Letter is the ASCII suit used on the wire
func (s Suit) Letter() string {
	switch s {
	case Spade:
		return "S"
	case Heart:
		return "H"
	case Diamond:
		return "D"
	case Club:
		return "C"
	}
	return "?"
}

// Name is the English suit name, e.g. "Hearts"
func (s Suit) Name() string {
	switch s {
	case Spade:
		return "Spades"
	case Heart:
		return "Hearts"
	case Diamond:
		return "Diamonds"
	case Club:
		return "Clubs"
	}
	return "None"
}

// Card represents a playing card. The zero value is the empty card.
type Card struct {
	Rank Rank
	Suit Suit
}

// New creates a card
func New(r Rank, s Suit) Card {
	return Card{Rank: r, Suit: s}
}

// IsReal reports whether the card is one of the 52 playing cards
func (c Card) IsReal() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spade && c.Suit <= Club
}

// Hash is unique per rank and suit pair
func (c Card) Hash() int {
	return int(c.Rank) + int(c.Suit)*15
}

// String returns the rank character followed by the suit symbol, or "null" for the empty card
func (c Card) String() string {
	if !c.IsReal() {
		return "null"
	}
	return c.Rank.String() + c.Suit.String()
}

// Code is the ASCII shorthand sent on the wire, e.g. "AS", "TD" or "null"
func (c Card) Code() string {
	if !c.IsReal() {
		return "null"
	}
	return c.Rank.String() + c.Suit.Letter()
}

// MarshalText writes the card as its wire code
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.Code()), nil
}

// UnmarshalText accepts any shorthand Parse accepts
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse reads a card from its shorthand,
// e.g. "A♠", "As", "AS", "10h", "Th" or "null"
func Parse(s string) (Card, error) {
	if s == "null" {
		return Card{}, nil
	}

	last, size := utf8.DecodeLastRuneInString(s)
	if last == utf8.RuneError || len(s) <= size {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}

	var suit Suit
	switch last {
	case '♠', 's', 'S':
		suit = Spade
	case '♥', 'h', 'H':
		suit = Heart
	case '♦', 'd', 'D':
		suit = Diamond
	case '♣', 'c', 'C':
		suit = Club
	default:
		return Card{}, fmt.Errorf("%w: suit %q", ErrInvalidCard, string(last))
	}

	var rank Rank
	switch v := s[:len(s)-size]; v {
	case "A", "a":
		rank = Ace
	case "K", "k":
		rank = King
	case "Q", "q":
		rank = Queen
	case "J", "j":
		rank = Jack
	case "T", "t", "10":
		rank = Ten
	default:
		if len(v) != 1 || v[0] < '2' || v[0] > '9' {
			return Card{}, fmt.Errorf("%w: rank %q", ErrInvalidCard, v)
		}
		rank = Rank(v[0] - '0')
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// MustParse is Parse for literals in tests and fixtures
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}
