package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatedTable(t *testing.T, maxSeats int, seats ...int) *TableData {
	t.Helper()
	td := NewTableData(1, maxSeats)
	for _, i := range seats {
		require.True(t, td.SetSeatOccupied(i, NewPlayer(StartingChips, "s")))
	}
	return td
}

func TestNextSeat(t *testing.T) {
	td := seatedTable(t, 6, 0, 2, 5)

	tests := []struct {
		name string
		from int
		dir  Direction
		want int
	}{
		{"anti-clockwise skips empty seats", 5, AntiClockwise, 2},
		{"anti-clockwise wraps below zero", 0, AntiClockwise, 5},
		{"clockwise skips empty seats", 2, Clockwise, 5},
		{"clockwise wraps past the end", 5, Clockwise, 0},
		{"from an empty seat", 4, AntiClockwise, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := td.NextOccupied(tt.from, tt.dir)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("single player finds itself last", func(t *testing.T) {
		one := seatedTable(t, 6, 3)
		got, ok := one.NextOccupied(3, AntiClockwise)
		require.True(t, ok)
		assert.Equal(t, 3, got)
	})

	t.Run("empty table", func(t *testing.T) {
		_, ok := NewTableData(1, 6).NextOccupied(0, AntiClockwise)
		assert.False(t, ok)
	})
}

func TestSeatOccupancy(t *testing.T) {
	td := seatedTable(t, 6, 1)

	assert.False(t, td.SetSeatOccupied(1, NewPlayer(10, "x")), "seat already taken")
	assert.False(t, td.SetSeatOccupied(6, NewPlayer(10, "x")), "seat out of range")
	assert.False(t, td.SetSeatOccupied(-1, NewPlayer(10, "x")), "negative seat")
	assert.Equal(t, []int{1}, td.OccupiedSeats())
}

func TestSetSeatFreeFoldsPlayerInHand(t *testing.T) {
	td := seatedTable(t, 6, 1, 3, 4)
	for _, i := range td.OccupiedSeats() {
		td.Seats[i].InHand = true
	}
	td.PlayersInHand = 3

	require.True(t, td.SetSeatFree(3))
	assert.Equal(t, 2, td.PlayersInHand)
	assert.False(t, td.SeatIsOccupied(3))
	assert.Equal(t, []int{1, 4}, td.InHandSeats())

	assert.False(t, td.SetSeatFree(3))
	assert.Equal(t, 2, td.PlayersInHand)

	assert.True(t, td.Fold(1))
	assert.False(t, td.Fold(1), "second fold is a no-op")
	assert.Equal(t, 1, td.PlayersInHand)
}

func TestPlayerPay(t *testing.T) {
	p := NewPlayer(300, "s")
	assert.Equal(t, 200, p.Pay(200))
	assert.Equal(t, 100, p.Pay(200), "pay is capped by the stack")
	assert.Equal(t, 0, p.ChipCount)
	assert.Equal(t, 300, p.CurrentBet)
	assert.Equal(t, 0, p.Pay(-5))
	assert.Equal(t, 0, p.Owes(100))
	assert.Equal(t, 100, p.Owes(400))
}

func TestCloneIsDeep(t *testing.T) {
	td := seatedTable(t, 6, 2)
	td.Pot = 300
	c := td.Clone()
	c.Seats[2].ChipCount = 1
	c.Board[0].Rank = 5

	assert.Equal(t, StartingChips, td.Seats[2].ChipCount)
	assert.False(t, td.Board[0].IsReal())
	assert.Equal(t, StartingChips+300, td.TotalChips())
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("raise")
	assert.True(t, ok)
	assert.Equal(t, ActionRaise, a)
	assert.Equal(t, "RAISE", a.String())

	_, ok = ParseAction("shove")
	assert.False(t, ok)
	assert.True(t, IsValidSeatCount(8))
	assert.False(t, IsValidSeatCount(7))
}
