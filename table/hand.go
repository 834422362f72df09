package table

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lazharichir/jpoker/cards"
	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
)

// hand is the bookkeeping of the hand in progress
type hand struct {
	id   string
	deck *cards.Deck
	paid map[*poker.Player]int // chips each player put in the pot
}

type street struct {
	stage poker.Stage
	name  string
	count int
}

var streets = []street{
	{poker.StageFlop, "flop", 3},
	{poker.StageTurn, "turn", 1},
	{poker.StageRiver, "river", 1},
}

// playHand runs one hand from the deal to the payout. Only a cancelled
// context is returned as an error; every other failure aborts the hand.
func (t *Table) playHand(ctx context.Context) error {
	if err := t.pause(ctx, t.timings.Pace); err != nil {
		return err
	}
	seats := t.eligibleSeats()
	if len(seats) < 2 {
		return nil
	}

	d := t.data
	h := &hand{
		id:   uuid.NewString(),
		deck: t.newDeck(t.rng),
		paid: make(map[*poker.Player]int),
	}

	d.Dealer, _ = d.NextSeat(d.Dealer, poker.AntiClockwise, hasChips)
	d.SmallBlind, _ = d.NextSeat(d.Dealer, poker.AntiClockwise, hasChips)
	d.BigBlind, _ = d.NextSeat(d.SmallBlind, poker.AntiClockwise, hasChips)

	t.broadcast(protocol.Msg("game", "start", "dealer", d.Dealer, "small", d.SmallBlind, "big", d.BigBlind))
	t.events.Emit(events.HandStarted{
		TableID:    t.id,
		HandID:     h.id,
		Dealer:     d.Dealer,
		SmallBlind: d.SmallBlind,
		BigBlind:   d.BigBlind,
		Seats:      seats,
	})
	t.log.Info("hand started", "hand", h.id, "dealer", d.Dealer, "players", len(seats))

	d.ResetBoard()
	d.ResetRound()
	d.Pot = 0
	for _, p := range d.Seats {
		p.ResetForNewHand()
	}
	for _, i := range seats {
		d.Seats[i].InHand = true
	}
	d.PlayersInHand = len(seats)
	d.Stage = poker.StageHoleCards

	if err := t.dealHoleCards(h, seats); err != nil {
		t.abortHand(h, err)
		return nil
	}

	t.postBlind(h, d.SmallBlind, poker.SmallBlindAmount)
	t.postBlind(h, d.BigBlind, poker.BigBlindAmount)
	t.publish()

	left, err := t.bettingRound(ctx, h, d.BigBlind, poker.BigBlindAmount)
	if err != nil {
		return err
	}
	if left <= 1 {
		return t.onePlayerLeft(ctx, h)
	}

	next := 0
	for _, s := range streets {
		if err := t.roundDone(ctx); err != nil {
			return err
		}
		if err := t.dealBoard(h, s, next); err != nil {
			t.abortHand(h, err)
			return nil
		}
		next += s.count

		left, err := t.bettingRound(ctx, h, d.Dealer, 0)
		if err != nil {
			return err
		}
		if left <= 1 {
			return t.onePlayerLeft(ctx, h)
		}
	}

	if err := t.roundDone(ctx); err != nil {
		return err
	}
	t.showdown(h)
	return nil
}

// dealHoleCards deals one card to every player, then the second one.
// Owners see their cards, everybody else gets null.
func (t *Table) dealHoleCards(h *hand, seats []int) error {
	for k := 0; k < poker.HoleCardCount; k++ {
		for _, i := range seats {
			c, err := h.deck.Draw()
			if err != nil {
				return fmt.Errorf("deal hole card: %w", err)
			}
			p := t.data.Seats[i]
			p.Hand.Set(k, c)

			held := cards.Hole(c)
			for _, conn := range t.conns() {
				view := held.ViewFor(conn.ID() == p.SessionID)
				t.send(conn, protocol.Msg("game", "seat", i, "card", k, view))
			}
		}
	}
	return nil
}

func (t *Table) dealBoard(h *hand, s street, from int) error {
	if err := h.deck.Burn(); err != nil {
		return fmt.Errorf("burn before %s: %w", s.name, err)
	}
	parts := []any{"game", s.name}
	for k := 0; k < s.count; k++ {
		c, err := h.deck.Draw()
		if err != nil {
			return fmt.Errorf("deal %s: %w", s.name, err)
		}
		t.data.Board.Set(from+k, c)
		parts = append(parts, c)
	}
	t.data.Stage = s.stage
	t.publish()
	t.broadcast(protocol.Msg(parts...))
	return nil
}

func (t *Table) postBlind(h *hand, seat, amount int) {
	p := t.data.Seats[seat]
	paid := p.Pay(amount)
	h.paid[p] += paid
	t.data.Pot += paid
	if p.CurrentBet > t.data.Bet {
		t.data.Bet = p.CurrentBet
	}
	t.broadcast(protocol.Msg("game", "seat", seat, "blind", paid))
}

// bettingRound walks anti-clockwise from start, the seat before the first
// actor, until the last actor has acted. It returns the players left in
// the hand.
func (t *Table) bettingRound(ctx context.Context, h *hand, start, bet int) (int, error) {
	d := t.data
	d.Bet = bet

	end := start
	if !d.InHand(end) {
		end, _ = d.NextInHand(end, poker.Clockwise)
	}

	i := start
	for {
		if d.PlayersInHand <= 1 {
			return d.PlayersInHand, nil
		}
		next, ok := d.NextInHand(i, poker.AntiClockwise)
		if !ok {
			return 0, nil
		}
		i = next
		p := d.Seats[i]

		t.publish()
		t.broadcast(protocol.Msg("game", "seat", i, "toact", p.Owes(d.Bet)))

		action, err := t.awaitAction(ctx, i)
		if err != nil {
			return 0, err
		}
		if action == poker.ActionNone {
			continue
		}
		if raised := t.apply(h, i, p, action); raised {
			end, _ = d.NextInHand(i, poker.Clockwise)
		}
		p.Action = poker.ActionNone
		p.Raise = 0
		t.publish()

		if i == end {
			break
		}
		if !d.InHand(end) {
			end, _ = d.NextInHand(end, poker.Clockwise)
			if end == i {
				break
			}
		}
	}
	return d.PlayersInHand, nil
}

// apply resolves one action and broadcasts it. It reports whether the bet was raised.
func (t *Table) apply(h *hand, seat int, p *poker.Player, action poker.Action) bool {
	d := t.data

	if action == poker.ActionCheck && p.Owes(d.Bet) > 0 {
		action = poker.ActionCall
	}
	raise := 0
	if action == poker.ActionRaise {
		raise = p.Raise
		if raise < poker.BigBlindAmount {
			raise = poker.BigBlindAmount
		}
		if most := p.ChipCount + p.CurrentBet - d.Bet; raise > most {
			raise = most
		}
		if raise <= 0 {
			action = poker.ActionCall
		}
	}

	var msg string
	switch action {
	case poker.ActionFold:
		// a player who left while we waited is already folded
		d.Fold(seat)
		msg = protocol.Msg("game", "seat", seat, "action", action)
	case poker.ActionCheck:
		msg = protocol.Msg("game", "seat", seat, "action", action)
	case poker.ActionCall:
		paid := p.Pay(p.Owes(d.Bet))
		h.paid[p] += paid
		d.Pot += paid
		msg = protocol.Msg("game", "seat", seat, "action", action, d.Bet)
	case poker.ActionRaise:
		paid := p.Pay(d.Bet + raise - p.CurrentBet)
		h.paid[p] += paid
		d.Pot += paid
		d.Bet = p.CurrentBet
		msg = protocol.Msg("game", "seat", seat, "action", action, d.Bet)
	}

	t.broadcast(msg)
	t.events.Emit(events.PlayerActed{
		TableID: t.id,
		HandID:  h.id,
		Seat:    seat,
		Action:  action.String(),
		Bet:     d.Bet,
	})
	return action == poker.ActionRaise
}

// roundDone closes a street and resets the bets
func (t *Table) roundDone(ctx context.Context) error {
	t.broadcast(protocol.Msg("game", "rounddone", t.data.Pot))
	t.data.ResetRound()
	t.publish()
	return t.pause(ctx, t.timings.Pace)
}

// onePlayerLeft pays the pot to the last player in the hand
func (t *Table) onePlayerLeft(ctx context.Context, h *hand) error {
	seats := t.data.InHandSeats()
	if len(seats) == 0 {
		t.abortHand(h, fmt.Errorf("no player left in hand"))
		return nil
	}
	t.award(h, seats[0], t.data.Pot, "")
	t.publish()
	if err := t.pause(ctx, t.timings.Pace); err != nil {
		return err
	}
	t.finishHand(h, false)
	return nil
}

// showdown ranks every hand still in and pays the best one. On a tie the
// lowest seat wins the whole pot unless split pots are enabled.
func (t *Table) showdown(h *hand) {
	d := t.data
	d.Stage = poker.StageShowdown

	var best poker.RankedCards
	var winners []int
	for _, i := range d.InHandSeats() {
		ranked := poker.BestHandOf7(d.Seats[i].Hand, d.Board)
		switch c := poker.Compare(ranked, best); {
		case len(winners) == 0 || c > 0:
			best = ranked
			winners = []int{i}
		case c == 0 && t.split:
			winners = append(winners, i)
		}
	}
	if len(winners) == 0 {
		t.abortHand(h, fmt.Errorf("no player left at showdown"))
		return
	}

	descriptor := best.String()
	share := d.Pot / len(winners)
	rest := d.Pot - share*len(winners)
	for n, i := range winners {
		amount := share
		if n == 0 {
			amount += rest
		}
		t.award(h, i, amount, descriptor)
	}
	t.log.Info("showdown", "hand", h.id, "winners", winners, "hand_rank", descriptor)
	t.finishHand(h, false)
}

func (t *Table) award(h *hand, seat, amount int, descriptor string) {
	if descriptor == "" {
		t.broadcast(protocol.Msg("game", "winner", seat, amount))
	} else {
		t.broadcast(protocol.Msg("game", "winner", seat, amount, descriptor))
	}
	t.data.Seats[seat].ChipCount += amount
	t.data.Pot -= amount
	t.events.Emit(events.PotAwarded{
		TableID:    t.id,
		HandID:     h.id,
		Seat:       seat,
		Amount:     amount,
		Descriptor: descriptor,
	})
}

// abortHand gives every seated player back what they put in and ends the hand
func (t *Table) abortHand(h *hand, cause error) {
	t.log.Error("hand aborted", "hand", h.id, "err", cause)
	for _, p := range t.data.Seats {
		p.ChipCount += h.paid[p]
	}
	t.finishHand(h, true)
}

func (t *Table) finishHand(h *hand, aborted bool) {
	d := t.data
	d.Pot = 0
	d.ResetRound()
	for _, p := range d.Seats {
		p.InHand = false
	}
	d.PlayersInHand = 0
	d.Stage = poker.StageIdle
	t.publish()
	t.debugState("hand finished")

	t.broadcast(protocol.Msg("game", "end"))
	t.events.Emit(events.HandEnded{TableID: t.id, HandID: h.id, Aborted: aborted})
}
