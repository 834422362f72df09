package poker

import (
	"sort"

	"github.com/lazharichir/jpoker/cards"
)

// TableData is the state of one table: its seats, board and betting.
// The server engine owns one per table and clients keep a mirror of it.
type TableData struct {
	ID            int
	MaxSeats      int
	Seats         map[int]*Player
	Board         cards.Cards
	Pot           int
	Bet           int
	Dealer        int
	SmallBlind    int
	BigBlind      int
	Stage         Stage
	PlayersInHand int
}

// NewTableData creates an idle table with every seat free
func NewTableData(id, maxSeats int) *TableData {
	return &TableData{
		ID:       id,
		MaxSeats: maxSeats,
		Seats:    make(map[int]*Player),
		Board:    cards.NewCards(BoardCardCount),
		Stage:    StageIdle,
	}
}

// IsValidSeat reports whether i is a seat index of this table
func (t *TableData) IsValidSeat(i int) bool {
	return i >= 0 && i < t.MaxSeats
}

// SeatIsOccupied reports whether a player sits on seat i
func (t *TableData) SeatIsOccupied(i int) bool {
	_, ok := t.Seats[i]
	return ok
}

// PlayerOnSeat returns the player on seat i or nil
func (t *TableData) PlayerOnSeat(i int) *Player {
	return t.Seats[i]
}

// SetSeatOccupied seats p on a free, valid seat
func (t *TableData) SetSeatOccupied(i int, p *Player) bool {
	if !t.IsValidSeat(i) || t.SeatIsOccupied(i) || p == nil {
		return false
	}
	t.Seats[i] = p
	return true
}

// SetSeatFree removes the player on seat i, folding them first if they are in the hand
func (t *TableData) SetSeatFree(i int) bool {
	if !t.SeatIsOccupied(i) {
		return false
	}
	t.Fold(i)
	delete(t.Seats, i)
	return true
}

// Fold takes the player on seat i out of the hand. It reports whether
// the player was in the hand.
func (t *TableData) Fold(i int) bool {
	p := t.Seats[i]
	if p == nil || !p.InHand {
		return false
	}
	p.InHand = false
	p.Action = ActionFold
	if t.PlayersInHand > 0 {
		t.PlayersInHand--
	}
	return true
}

// InHand reports whether seat i holds a player still in the hand
func (t *TableData) InHand(i int) bool {
	p := t.Seats[i]
	return p != nil && p.InHand
}

// OccupiedSeats returns the occupied seat indexes in ascending order
func (t *TableData) OccupiedSeats() []int {
	seats := make([]int, 0, len(t.Seats))
	for i := range t.Seats {
		seats = append(seats, i)
	}
	sort.Ints(seats)
	return seats
}

// InHandSeats returns the seats still in the hand in ascending order
func (t *TableData) InHandSeats() []int {
	var seats []int
	for _, i := range t.OccupiedSeats() {
		if t.Seats[i].InHand {
			seats = append(seats, i)
		}
	}
	return seats
}

// SeatsOf returns the seats owned by a session
func (t *TableData) SeatsOf(sessionID string) []int {
	var seats []int
	for _, i := range t.OccupiedSeats() {
		if t.Seats[i].SessionID == sessionID {
			seats = append(seats, i)
		}
	}
	return seats
}

// NextSeat walks from seat `from` in direction dir and returns the first seat
// accepted by match. The starting seat itself is considered last.
func (t *TableData) NextSeat(from int, dir Direction, match func(i int, p *Player) bool) (int, bool) {
	if t.MaxSeats <= 0 {
		return 0, false
	}
	for step := 1; step <= t.MaxSeats; step++ {
		i := ((from+step*int(dir))%t.MaxSeats + t.MaxSeats) % t.MaxSeats
		if p, ok := t.Seats[i]; ok && match(i, p) {
			return i, true
		}
	}
	return 0, false
}

// NextOccupied is NextSeat over any occupied seat
func (t *TableData) NextOccupied(from int, dir Direction) (int, bool) {
	return t.NextSeat(from, dir, func(int, *Player) bool { return true })
}

// NextInHand is NextSeat over seats still in the hand
func (t *TableData) NextInHand(from int, dir Direction) (int, bool) {
	return t.NextSeat(from, dir, func(_ int, p *Player) bool { return p.InHand })
}

// Occupied returns the number of seated players
func (t *TableData) Occupied() int {
	return len(t.Seats)
}

// TotalChips sums every seated stack, the pot and nothing else.
// Bets already paid are part of the pot.
func (t *TableData) TotalChips() int {
	total := t.Pot
	for _, p := range t.Seats {
		total += p.ChipCount
	}
	return total
}

// ResetBoard clears the community cards
func (t *TableData) ResetBoard() {
	t.Board = cards.NewCards(BoardCardCount)
}

// ResetRound clears the per-round bets at the end of a street
func (t *TableData) ResetRound() {
	t.Bet = 0
	for _, p := range t.Seats {
		p.CurrentBet = 0
		p.Raise = 0
		p.Action = ActionNone
	}
}

// Clone returns a deep copy safe to hand to another goroutine
func (t *TableData) Clone() *TableData {
	c := *t
	c.Board = t.Board.Copy()
	c.Seats = make(map[int]*Player, len(t.Seats))
	for i, p := range t.Seats {
		cp := *p
		cp.Hand = p.Hand.Copy()
		c.Seats[i] = &cp
	}
	return &c
}
