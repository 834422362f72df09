package table

import (
	"context"
	"log/slog"
	"time"

	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/poker"
)

// Run is the engine task. It serializes every inbox packet with the hand
// flow and returns when ctx is cancelled.
func (t *Table) Run(ctx context.Context) {
	defer close(t.done)
	t.log.Info("table engine started", "seats", t.maxSeats)

	for {
		if err := t.waitForPlayers(ctx); err != nil {
			break
		}
		if err := t.pause(ctx, t.timings.Settle); err != nil {
			break
		}
		if len(t.eligibleSeats()) < 2 {
			continue
		}
		if err := t.playHand(ctx); err != nil {
			break
		}
	}
	t.log.Info("table engine stopped")
}

// waitForPlayers handles inbox packets until two seated players have chips
func (t *Table) waitForPlayers(ctx context.Context) error {
	for len(t.eligibleSeats()) < 2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-t.inbox:
			t.handle(env)
		}
	}
	return nil
}

// pause waits for d while still handling inbox packets
func (t *Table) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case env := <-t.inbox:
			t.handle(env)
		}
	}
}

// awaitAction waits for the player on seat to act. A timeout, or the player
// leaving the hand while we wait, comes back as FOLD. When everybody else
// leaves instead there is nothing to decide and it returns ActionNone.
func (t *Table) awaitAction(ctx context.Context, seat int) (poker.Action, error) {
	p := t.data.PlayerOnSeat(seat)
	if p.ChipCount == 0 {
		// all in: nothing left to decide
		return poker.ActionCall, nil
	}

	p.Action = poker.ActionNone
	t.acting = seat
	defer func() { t.acting = -1 }()

	timer := time.NewTimer(t.timings.ActionTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return poker.ActionNone, ctx.Err()
		case <-timer.C:
			t.log.Info("action timed out", "seat", seat)
			return poker.ActionFold, nil
		case env := <-t.inbox:
			t.handle(env)
			if t.data.PlayerOnSeat(seat) != p || !p.InHand {
				return poker.ActionFold, nil
			}
			if t.data.PlayersInHand <= 1 {
				return poker.ActionNone, nil
			}
			if p.Action != poker.ActionNone {
				return p.Action, nil
			}
		}
	}
}

// eligibleSeats are the occupied seats whose player can still post chips
func (t *Table) eligibleSeats() []int {
	var seats []int
	for _, i := range t.data.OccupiedSeats() {
		if t.data.Seats[i].ChipCount > 0 {
			seats = append(seats, i)
		}
	}
	return seats
}

func hasChips(_ int, p *poker.Player) bool {
	return p.ChipCount > 0
}

func (t *Table) debugState(msg string) {
	if t.log.Enabled(context.Background(), slog.LevelDebug) {
		t.log.Debug(msg, "state", logging.Dump(t.data))
	}
}
