package poker

import (
	"math/rand"
	"testing"

	"github.com/lazharichir/jpoker/cards"
	oracle "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankFive(t *testing.T) {
	tests := []struct {
		name  string
		hand  string
		rank  HandRank
		score int
		desc  string
		first string
	}{
		{"high card", "9s Kd 2c 5h 7s", HighCard, (((13*15+9)*15+7)*15+5)*15 + 2, "High Card K", "K♦"},
		{"pair", "9s 9d Ac 5h 7s", Pair, ((9*15+14)*15+7)*15 + 5, "Pair of 9s", "9♠"},
		{"two pair", "9s 9d Ac Ah 7s", TwoPair, (14*15+9)*15 + 7, "Two Pair, As and 9s", "A♣"},
		{"three of a kind", "7s 7d 7c Ah 2s", ThreeOfAKind, (7*15+14)*15 + 2, "Three of a kind of 7s", "7♠"},
		{"straight", "5s 6d 7c 8h 9s", Straight, 9, "Straight, 5 to 9", "9♠"},
		{"wheel straight", "As 2d 3c 4h 5s", Straight, 5, "Straight, A to 5", "5♠"},
		{"broadway straight", "Ts Jd Qc Kh As", Straight, 14, "Straight, T to A", "A♠"},
		{"flush", "2h 9h Kh 5h 7h", Flush, (((13*15+9)*15+7)*15+5)*15 + 2, "Flush of Hearts, K high", "K♥"},
		{"full house", "7s 7d 7c 2h 2s", FullHouse, 7*15 + 2, "Full House, 7s full of 2s", "7♠"},
		{"full house pair high", "2s 2d 2c Kh Ks", FullHouse, 2*15 + 13, "Full House, 2s full of Ks", "2♠"},
		{"four of a kind", "As Ad Ac Ah Ks", FourOfAKind, 15*14 + 13, "Four of a kind of As", "A♠"},
		{"straight flush", "5c 6c 7c 8c 9c", StraightFlush, 9, "Straight Flush of Clubs, 5 to 9", "9♣"},
		{"steel wheel", "Ad 2d 3d 4d 5d", StraightFlush, 5, "Straight Flush of Diamonds, A to 5", "5♦"},
		{"royal flush", "Ts Js Qs Ks As", StraightFlush, 14, "Royal Flush", "A♠"},
		{"ace high is not a wrap straight", "Qs Kd Ac 2h 3s", HighCard, (((14*15+13)*15+12)*15+3)*15 + 2, "High Card A", "A♣"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RankFive(cards.MustParseCards(tt.hand))
			require.NoError(t, err)
			assert.Equal(t, tt.rank, got.Rank)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.desc, got.String())
			assert.Equal(t, tt.first, got.Cards[0].String())
			assert.Len(t, got.Cards, 5)
		})
	}
}

func TestRankFiveOrdersMadeCardsFirst(t *testing.T) {
	got, err := RankFive(cards.MustParseCards("Kd 3c 9s Ks 3h"))
	require.NoError(t, err)
	assert.Equal(t, "K♦ K♠ 3♣ 3♥ 9♠", got.Cards.String())
}

func TestRankFiveInvalid(t *testing.T) {
	_, err := RankFive(cards.MustParseCards("As Kd Qc Jh"))
	assert.ErrorIs(t, err, ErrInvalidHand)

	hand := cards.MustParseCards("As Kd Qc Jh 9s")
	hand.Set(2, cards.Card{})
	_, err = RankFive(hand)
	assert.ErrorIs(t, err, ErrInvalidHand)
}

func TestCompareCategoryOrder(t *testing.T) {
	hands := []string{
		"Ks Qd 9c 5h 3s",
		"2s 2d 4c 5h 7s",
		"2s 2d 4c 4h 7s",
		"2s 2d 2c 4h 7s",
		"As 2d 3c 4h 5s",
		"2h 4h 6h 8h Th",
		"2s 2d 2c 3h 3s",
		"2s 2d 2c 2h 3s",
		"As 2s 3s 4s 5s",
	}
	var prev RankedCards
	for i, h := range hands {
		r, err := RankFive(cards.MustParseCards(h))
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, 1, Compare(r, prev), "%s should beat %s", r, prev)
			assert.Equal(t, -1, Compare(prev, r))
		}
		prev = r
	}
}

func TestBestHandOf7(t *testing.T) {
	t.Run("royal flush from hole and board", func(t *testing.T) {
		got := BestHandOf7(cards.MustParseCards("As Ks"), cards.MustParseCards("Qs Js Ts 2h 3d"))
		assert.Equal(t, StraightFlush, got.Rank)
		assert.Equal(t, 14, got.Score)
	})

	t.Run("quads with king kicker", func(t *testing.T) {
		got := BestHandOf7(cards.MustParseCards("As Ah"), cards.MustParseCards("Ad Ac Ks Kh 2d"))
		assert.Equal(t, FourOfAKind, got.Rank)
		assert.Equal(t, 223, got.Score)
	})

	t.Run("board plays", func(t *testing.T) {
		got := BestHandOf7(cards.MustParseCards("2c 3d"), cards.MustParseCards("Th Jh Qh Kh Ah"))
		assert.Equal(t, "Royal Flush", got.String())
	})

	t.Run("invalid input is the weakest hand", func(t *testing.T) {
		board := cards.MustParseCards("Qs Js Ts 2h 3d")
		board.Set(4, cards.Card{})
		got := BestHandOf7(cards.MustParseCards("As Ks"), board)
		assert.Equal(t, HighCard, got.Rank)
		assert.Equal(t, 0, got.Score)

		got = BestHandOf7(cards.MustParseCards("As"), cards.MustParseCards("Qs Js Ts 2h 3d"))
		assert.Equal(t, RankedCards{Rank: HighCard}, got)
	})
}

func TestBestHandOf7BeatsEverySubset(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for n := 0; n < 200; n++ {
		all := drawSeven(t, rng)
		best := BestHandOf7(all[:2], all[2:])

		for i := 0; i < 7; i++ {
			for j := i + 1; j < 7; j++ {
				var five cards.Cards
				for k, c := range all {
					if k != i && k != j {
						five = append(five, c)
					}
				}
				r, err := RankFive(five)
				require.NoError(t, err)
				require.GreaterOrEqual(t, Compare(best, r), 0, "%s should not lose to %s", best, r)
			}
		}
	}
}

// The ranker must agree with an independent evaluator on which of two
// seven card hands wins.
func TestBestHandOf7AgreesWithOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for n := 0; n < 2000; n++ {
		a := drawSeven(t, rng)
		b := drawSeven(t, rng)

		got := Compare(BestHandOf7(a[:2], a[2:]), BestHandOf7(b[:2], b[2:]))
		want := sign(int(oracleEval(t, a)) - int(oracleEval(t, b)))
		require.Equal(t, want, got, "%s vs %s", a, b)
	}
}

func drawSeven(t *testing.T, rng *rand.Rand) cards.Cards {
	t.Helper()
	deck := cards.NewDeck(rng)
	out := make(cards.Cards, 7)
	for i := range out {
		c, err := deck.Draw()
		require.NoError(t, err)
		out[i] = c
	}
	return out
}

func oracleEval(t *testing.T, cs cards.Cards) int16 {
	t.Helper()
	var hand [7]oracle.Card
	for i, c := range cs {
		rank := int(c.Rank)
		if c.Rank == cards.Ace {
			rank = 1
		}
		oc, err := oracle.MakeCard(oracle.Suit(4-int(c.Suit)), oracle.Rank(rank))
		require.NoError(t, err)
		hand[i] = oc
	}
	return oracle.Eval7(&hand)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
