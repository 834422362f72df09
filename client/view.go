package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lazharichir/jpoker/cards"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
)

// Field names an observable value of a TableView
type Field string

const (
	FieldTableID  Field = "tableID"
	FieldMaxHands Field = "maxHands"
	FieldPot      Field = "pot"
)

// TableView is the client copy of one table, kept up to date from the
// table messages the server broadcasts
type TableView struct {
	mutex     sync.Mutex
	data      *poker.TableData
	mySeat    int
	acting    int
	owed      int
	winners   []Winner
	observers map[Field][]func(int)
}

// Winner is one game:winner message of the last hand
type Winner struct {
	Seat       int
	Amount     int
	Descriptor string
}

// NewTableView creates an empty view of a table
func NewTableView(id, maxSeats int) *TableView {
	return &TableView{
		data:      poker.NewTableData(id, maxSeats),
		mySeat:    -1,
		acting:    -1,
		observers: make(map[Field][]func(int)),
	}
}

// Observe calls fn with the current value of field and again every time it changes
func (v *TableView) Observe(field Field, fn func(int)) error {
	v.mutex.Lock()
	value, ok := v.value(field)
	if !ok {
		v.mutex.Unlock()
		return fmt.Errorf("unknown field %q", field)
	}
	v.observers[field] = append(v.observers[field], fn)
	v.mutex.Unlock()

	fn(value)
	return nil
}

func (v *TableView) value(field Field) (int, bool) {
	switch field {
	case FieldTableID:
		return v.data.ID, true
	case FieldMaxHands:
		return v.data.MaxSeats, true
	case FieldPot:
		return v.data.Pot, true
	}
	return 0, false
}

// Snapshot returns a copy of the table state
func (v *TableView) Snapshot() *poker.TableData {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.data.Clone()
}

// MySeat returns the seat this client sits on, or -1
func (v *TableView) MySeat() int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.mySeat
}

// Acting returns the seat asked to act and what it owes, or -1
func (v *TableView) Acting() (seat, owed int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.acting, v.owed
}

// Winners returns the winners announced since the last game:start
func (v *TableView) Winners() []Winner {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return append([]Winner(nil), v.winners...)
}

// Apply updates the view from one table message. Observers of changed
// fields are called after the view is updated.
func (v *TableView) Apply(msg string) error {
	v.mutex.Lock()
	before := map[Field]int{}
	for field := range v.observers {
		before[field], _ = v.value(field)
	}

	err := v.apply(protocol.ParseCommand(msg))

	var notify []func()
	for field, old := range before {
		now, _ := v.value(field)
		if now == old {
			continue
		}
		for _, fn := range v.observers[field] {
			fn := fn
			notify = append(notify, func() { fn(now) })
		}
	}
	v.mutex.Unlock()

	for _, fn := range notify {
		fn()
	}
	if err != nil {
		return fmt.Errorf("table %d message %q: %w", v.data.ID, msg, err)
	}
	return nil
}

var errMalformed = errors.New("malformed message")

func (v *TableView) apply(cmd protocol.Command) error {
	d := v.data
	switch {
	case cmd.Is("sit"), cmd.Is("seattaken"):
		seat, ok := cmd.Int(1)
		chips, ok2 := cmd.IntField("chips")
		if !ok || !ok2 || !d.IsValidSeat(seat) {
			return errMalformed
		}
		p := d.PlayerOnSeat(seat)
		if p == nil {
			p = poker.NewPlayer(chips, "")
			d.SetSeatOccupied(seat, p)
		}
		p.ChipCount = chips
		if in, ok := cmd.Field("inhand"); ok {
			p.InHand = in == "true"
		}
		if cmd.Is("sit") {
			v.mySeat = seat
		}

	case cmd.Is("seatvacated"):
		seat, ok := cmd.Int(1)
		if !ok {
			return errMalformed
		}
		d.SetSeatFree(seat)
		if seat == v.mySeat {
			v.mySeat = -1
		}

	case cmd.Is("update"):
		for _, f := range []struct {
			key string
			dst *int
		}{
			{"pot", &d.Pot}, {"bet", &d.Bet}, {"dealer", &d.Dealer},
			{"small", &d.SmallBlind}, {"big", &d.BigBlind},
		} {
			if n, ok := cmd.IntField(f.key); ok {
				*f.dst = n
			}
		}
		if n, ok := cmd.IntField("stage"); ok {
			d.Stage = poker.Stage(n)
		}

	case cmd.Is("board"):
		for k := 0; k < poker.BoardCardCount; k++ {
			c, err := cards.Parse(cmd.Arg(k + 1))
			if err != nil {
				return err
			}
			d.Board.Set(k, c)
		}

	case cmd.Is("game"):
		return v.applyGame(cmd)

	default:
		return errMalformed
	}
	return nil
}

func (v *TableView) applyGame(cmd protocol.Command) error {
	d := v.data
	switch {
	case cmd.Is("game", "start"):
		dealer, ok1 := cmd.IntField("dealer")
		small, ok2 := cmd.IntField("small")
		big, ok3 := cmd.IntField("big")
		if !ok1 || !ok2 || !ok3 {
			return errMalformed
		}
		d.Dealer, d.SmallBlind, d.BigBlind = dealer, small, big
		d.ResetBoard()
		d.ResetRound()
		d.Pot = 0
		d.Stage = poker.StagePreDeal
		d.PlayersInHand = 0
		for _, p := range d.Seats {
			p.ResetForNewHand()
			if p.InHand = p.ChipCount > 0; p.InHand {
				d.PlayersInHand++
			}
		}
		v.winners = nil

	case cmd.Is("game", "seat"):
		return v.applySeat(cmd)

	case cmd.Is("game", "rounddone"):
		pot, ok := cmd.Int(2)
		if !ok {
			return errMalformed
		}
		d.Pot = pot
		d.ResetRound()
		v.acting = -1

	case cmd.Is("game", "flop"), cmd.Is("game", "turn"), cmd.Is("game", "river"):
		from, stage := 0, poker.StageFlop
		switch cmd.Arg(1) {
		case "turn":
			from, stage = 3, poker.StageTurn
		case "river":
			from, stage = 4, poker.StageRiver
		}
		for k := 2; k < len(cmd); k++ {
			c, err := cards.Parse(cmd.Arg(k))
			if err != nil {
				return err
			}
			d.Board.Set(from+k-2, c)
		}
		d.Stage = stage

	case cmd.Is("game", "winner"):
		seat, ok1 := cmd.Int(2)
		amount, ok2 := cmd.Int(3)
		if !ok1 || !ok2 {
			return errMalformed
		}
		if p := d.PlayerOnSeat(seat); p != nil {
			p.ChipCount += amount
		}
		d.Pot = max(d.Pot-amount, 0)
		d.Stage = poker.StageShowdown
		v.winners = append(v.winners, Winner{Seat: seat, Amount: amount, Descriptor: cmd.Arg(4)})

	case cmd.Is("game", "end"):
		d.Stage = poker.StageIdle
		d.Pot = 0
		d.Bet = 0
		v.acting = -1

	default:
		return errMalformed
	}
	return nil
}

// applySeat handles game:seat:i:...
func (v *TableView) applySeat(cmd protocol.Command) error {
	d := v.data
	seat, ok := cmd.Int(2)
	if !ok {
		return errMalformed
	}
	p := d.PlayerOnSeat(seat)
	if p == nil {
		return fmt.Errorf("seat %d is empty", seat)
	}

	switch cmd.Arg(3) {
	case "card":
		k, ok := cmd.Int(4)
		if !ok {
			return errMalformed
		}
		c, err := cards.Parse(cmd.Arg(5))
		if err != nil {
			return err
		}
		p.Hand.Set(k, c)
		p.InHand = true
		d.Stage = poker.StageHoleCards

	case "blind":
		amount, ok := cmd.Int(4)
		if !ok {
			return errMalformed
		}
		d.Pot += p.Pay(amount)
		d.Bet = max(d.Bet, p.CurrentBet)

	case "toact":
		owed, ok := cmd.Int(4)
		if !ok {
			return errMalformed
		}
		v.acting, v.owed = seat, owed

	case "action":
		action, ok := poker.ParseAction(cmd.Arg(4))
		if !ok {
			return errMalformed
		}
		p.Action = action
		switch action {
		case poker.ActionFold:
			d.Fold(seat)
		case poker.ActionCall, poker.ActionRaise:
			bet, ok := cmd.Int(5)
			if !ok {
				return errMalformed
			}
			d.Pot += p.Pay(bet - p.CurrentBet)
			d.Bet = max(d.Bet, bet)
		}
		v.acting = -1

	default:
		return errMalformed
	}
	return nil
}
