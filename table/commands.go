package table

import (
	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
)

// handle processes one inbox entry on the engine goroutine
func (t *Table) handle(env envelope) {
	defer t.publish()

	if env.leave {
		t.vacateSession(env.from.ID())
		return
	}
	if !t.HasConnected(env.from.ID()) {
		t.log.Warn("command from a session not at the table", "session", env.from.ID())
		return
	}

	data, err := protocol.DecodeTableData(env.packet)
	if err != nil {
		t.log.Warn("bad table data", "session", env.from.ID(), "err", err)
		return
	}
	cmd := protocol.ParseCommand(data.Message)
	t.log.Debug("table command", "session", env.from.ID(), "cmd", data.Message)

	switch {
	case cmd.Is("quit"):
		t.RemoveConnected(env.from.ID())
		t.vacateSession(env.from.ID())
	case cmd.Is("update"):
		t.handleUpdate(env.from)
	case cmd.Is("sit"):
		t.handleSit(env.from, cmd)
	case cmd.Is("standup"):
		t.handleStandup(env.from, cmd)
	case cmd.Is("game"):
		t.handleGame(env.from, cmd)
	default:
		t.log.Warn("unknown table command", "session", env.from.ID(), "cmd", data.Message)
	}
}

// handleSit seats the requester on a free seat. A session may hold one seat.
func (t *Table) handleSit(from Conn, cmd protocol.Command) {
	seat, ok := cmd.Int(1)
	if !ok || !t.data.IsValidSeat(seat) || t.data.SeatIsOccupied(seat) {
		return
	}
	if len(t.data.SeatsOf(from.ID())) > 0 {
		return
	}

	p := poker.NewPlayer(poker.StartingChips, from.ID())
	t.data.SetSeatOccupied(seat, p)

	t.broadcastExcept(from.ID(), protocol.Msg("seattaken", seat, "chips", p.ChipCount))
	t.send(from, protocol.Msg("sit", seat, "chips", p.ChipCount))
	t.events.Emit(events.SeatTaken{TableID: t.id, Seat: seat, Session: from.ID(), Chips: p.ChipCount})
	t.log.Info("seat taken", "seat", seat, "session", from.ID())
}

func (t *Table) handleStandup(from Conn, cmd protocol.Command) {
	seat, ok := cmd.Int(1)
	if !ok {
		return
	}
	p := t.data.PlayerOnSeat(seat)
	if p == nil || p.SessionID != from.ID() {
		return
	}
	t.vacate(seat)
}

// handleGame records the decision of the player whose turn it is.
// Anything sent out of turn is ignored.
func (t *Table) handleGame(from Conn, cmd protocol.Command) {
	action, ok := poker.ParseAction(cmd.Arg(1))
	if !ok || action == poker.ActionNone {
		return
	}
	seat, ok := cmd.Int(2)
	if !ok || seat != t.acting {
		return
	}
	p := t.data.PlayerOnSeat(seat)
	if p == nil || p.SessionID != from.ID() || !p.InHand {
		return
	}

	raise := 0
	if action == poker.ActionRaise {
		if raise, ok = cmd.Int(3); !ok {
			return
		}
	}
	p.Action = action
	p.Raise = raise
}

// handleUpdate sends the requester the full table state
func (t *Table) handleUpdate(from Conn) {
	d := t.data
	t.send(from, protocol.Msg("update",
		"stage", int(d.Stage),
		"pot", d.Pot,
		"bet", d.Bet,
		"dealer", d.Dealer,
		"small", d.SmallBlind,
		"big", d.BigBlind,
	))

	board := []any{"board"}
	for _, c := range d.Board {
		board = append(board, c)
	}
	t.send(from, protocol.Msg(board...))

	for _, i := range d.OccupiedSeats() {
		p := d.Seats[i]
		t.send(from, protocol.Msg("seattaken", i, "chips", p.ChipCount, "inhand", p.InHand))
		if p.SessionID == from.ID() && p.InHand {
			for k, c := range p.Hand {
				t.send(from, protocol.Msg("game", "seat", i, "card", k, c))
			}
		}
	}
}

func (t *Table) vacateSession(id string) {
	for _, seat := range t.data.SeatsOf(id) {
		t.vacate(seat)
	}
}

// vacate frees a seat, folding its player out of the hand in progress
func (t *Table) vacate(seat int) {
	if !t.data.SetSeatFree(seat) {
		return
	}
	t.broadcast(protocol.Msg("seatvacated", seat))
	t.events.Emit(events.SeatVacated{TableID: t.id, Seat: seat})
	t.log.Info("seat vacated", "seat", seat)
}
