package cards

import "strings"

// Cards is an ordered run of cards, such as a hand or the board
type Cards []Card

// NewCards creates n empty card slots
func NewCards(n int) Cards {
	return make(Cards, n)
}

// Of creates a collection from explicit cards
func Of(cs ...Card) Cards {
	out := make(Cards, len(cs))
	copy(out, cs)
	return out
}

// Copy returns an independent copy
func (cs Cards) Copy() Cards {
	return Of(cs...)
}

// Get returns the card at i, or the empty card when i is out of range
func (cs Cards) Get(i int) Card {
	if i < 0 || i >= len(cs) {
		return Card{}
	}
	return cs[i]
}

// Set replaces the card at i. Out of range indexes are ignored.
func (cs Cards) Set(i int, c Card) {
	if i < 0 || i >= len(cs) {
		return
	}
	cs[i] = c
}

// ContainsNonCard reports whether any slot holds a card that is not real
func (cs Cards) ContainsNonCard() bool {
	for _, c := range cs {
		if !c.IsReal() {
			return true
		}
	}
	return false
}

// String joins the cards with spaces
func (cs Cards) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// ParseCards reads space separated card shorthands
func ParseCards(s string) (Cards, error) {
	var out Cards
	for _, f := range strings.Fields(s) {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MustParseCards is ParseCards for literals
func MustParseCards(s string) Cards {
	cs, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cs
}
