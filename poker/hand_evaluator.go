package poker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lazharichir/jpoker/cards"
)

// ErrInvalidHand is returned when a hand is not five real cards
var ErrInvalidHand = errors.New("hand must be five real cards")

// HandRank represents the category of a five card hand
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (r HandRank) String() string {
	switch r {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a kind"
	case StraightFlush:
		return "Straight Flush"
	}
	return "Unknown"
}

// RankedCards is a five card hand with its category and tie-break score.
// Cards are ordered with the cards that make the hand first.
type RankedCards struct {
	Cards cards.Cards
	Rank  HandRank
	Score int
}

// Compare orders two ranked hands by category, then by score.
// It returns -1, 0 or 1.
func Compare(a, b RankedCards) int {
	switch {
	case a.Rank < b.Rank:
		return -1
	case a.Rank > b.Rank:
		return 1
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	}
	return 0
}

// Beats reports whether r ranks strictly above other
func (r RankedCards) Beats(other RankedCards) bool {
	return Compare(r, other) > 0
}

// String describes the hand for showdown broadcasts, e.g. "Full House, 7s full of 2s"
func (r RankedCards) String() string {
	if len(r.Cards) != 5 {
		return r.Rank.String()
	}
	c := r.Cards
	switch r.Rank {
	case HighCard:
		return fmt.Sprintf("High Card %s", c[0].Rank)
	case Pair:
		return fmt.Sprintf("Pair of %ss", c[0].Rank)
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", c[0].Rank, c[2].Rank)
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a kind of %ss", c[0].Rank)
	case Straight:
		return fmt.Sprintf("Straight, %s to %s", c[4].Rank, c[0].Rank)
	case Flush:
		return fmt.Sprintf("Flush of %s, %s high", c[0].Suit.Name(), c[0].Rank)
	case FullHouse:
		return fmt.Sprintf("Full House, %ss full of %ss", c[0].Rank, c[3].Rank)
	case FourOfAKind:
		return fmt.Sprintf("Four of a kind of %ss", c[0].Rank)
	case StraightFlush:
		if r.Score == int(cards.Ace) {
			return "Royal Flush"
		}
		return fmt.Sprintf("Straight Flush of %s, %s to %s", c[0].Suit.Name(), c[4].Rank, c[0].Rank)
	}
	return r.Rank.String()
}

// RankFive ranks exactly five real cards
func RankFive(hand cards.Cards) (RankedCards, error) {
	if len(hand) != 5 || hand.ContainsNonCard() {
		return RankedCards{}, ErrInvalidHand
	}

	sorted := hand.Copy()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})

	// ranks grouped by count, each group in descending rank order
	counts := make(map[cards.Rank]int)
	for _, c := range sorted {
		counts[c.Rank]++
	}
	var quads, sets, pairs, singles []cards.Rank
	for i, c := range sorted {
		if i > 0 && sorted[i-1].Rank == c.Rank {
			continue
		}
		switch counts[c.Rank] {
		case 4:
			quads = append(quads, c.Rank)
		case 3:
			sets = append(sets, c.Rank)
		case 2:
			pairs = append(pairs, c.Rank)
		default:
			singles = append(singles, c.Rank)
		}
	}

	switch {
	case len(quads) == 1:
		return ranked(FourOfAKind, sorted, quads[0], singles[0]), nil
	case len(sets) == 1 && len(pairs) == 1:
		return ranked(FullHouse, sorted, sets[0], pairs[0]), nil
	case len(sets) == 1:
		return ranked(ThreeOfAKind, sorted, sets[0], singles[0], singles[1]), nil
	case len(pairs) == 2:
		return ranked(TwoPair, sorted, pairs[0], pairs[1], singles[0]), nil
	case len(pairs) == 1:
		return ranked(Pair, sorted, pairs[0], singles[0], singles[1], singles[2]), nil
	}

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	high, straight := runHigh(singles)
	if straight && high == cards.Five && singles[0] == cards.Ace {
		// wheel: the ace plays low
		singles = append(singles[1:], cards.Ace)
	}

	switch {
	case flush && straight:
		r := ranked(StraightFlush, sorted, singles...)
		r.Score = int(high)
		return r, nil
	case flush:
		return ranked(Flush, sorted, singles...), nil
	case straight:
		r := ranked(Straight, sorted, singles...)
		r.Score = int(high)
		return r, nil
	}
	return ranked(HighCard, sorted, singles...), nil
}

// runHigh reports whether five distinct ranks, highest first, form a run
// and returns the run's top card. A-5-4-3-2 counts with the ace low.
func runHigh(ranks []cards.Rank) (cards.Rank, bool) {
	if len(ranks) != 5 {
		return 0, false
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0], true
	}
	if ranks[0] == cards.Ace && ranks[1] == cards.Five && ranks[4] == cards.Two {
		return cards.Five, true
	}
	return 0, false
}

// ranked orders sorted by the given ranks and scores them base 15, first rank most significant
func ranked(rank HandRank, sorted cards.Cards, order ...cards.Rank) RankedCards {
	out := make(cards.Cards, 0, len(sorted))
	score := 0
	for _, r := range order {
		score = score*15 + int(r)
		for _, c := range sorted {
			if c.Rank == r {
				out = append(out, c)
			}
		}
	}
	return RankedCards{Cards: out, Rank: rank, Score: score}
}

// BestHandOf7 returns the strongest five card hand made from two hole cards
// and five community cards. Invalid input ranks as the weakest possible hand.
func BestHandOf7(hole, community cards.Cards) RankedCards {
	worst := RankedCards{Rank: HighCard, Score: 0}
	if len(hole) != HoleCardCount || len(community) != BoardCardCount ||
		hole.ContainsNonCard() || community.ContainsNonCard() {
		return worst
	}

	all := make(cards.Cards, 0, 7)
	all = append(all, hole...)
	all = append(all, community...)

	best := worst
	found := false
	five := make(cards.Cards, 0, 5)
	// every 5-card subset is the 7 cards minus a pair (i, j)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			five = five[:0]
			for k, c := range all {
				if k != i && k != j {
					five = append(five, c)
				}
			}
			r, err := RankFive(five)
			if err != nil {
				continue
			}
			if !found || r.Beats(best) {
				best = r
				found = true
			}
		}
	}
	return best
}
