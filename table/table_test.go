package table

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every table message it receives
type fakeConn struct {
	id string

	mu       sync.Mutex
	msgs     []string
	onMsg    func(msg string)
	rejected int
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(p protocol.Packet) bool {
	data, err := protocol.DecodeTableData(p)
	if err != nil {
		c.mu.Lock()
		c.rejected++
		c.mu.Unlock()
		return false
	}
	c.mu.Lock()
	c.msgs = append(c.msgs, data.Message)
	hook := c.onMsg
	c.mu.Unlock()
	if hook != nil {
		hook(data.Message)
	}
	return true
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func (c *fakeConn) has(msg string) bool {
	for _, m := range c.messages() {
		if m == msg {
			return true
		}
	}
	return false
}

func (c *fakeConn) hasPrefix(prefix string) bool {
	for _, m := range c.messages() {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// waitForMsg polls until conn has received msg
func waitForMsg(t *testing.T, c *fakeConn, msg string) {
	t.Helper()
	require.Eventually(t, func() bool { return c.has(msg) }, 3*time.Second, time.Millisecond,
		"%s never received %q, got %v", c.id, msg, c.messages())
}

// indexOf returns the position of msg in conn's history or -1
func indexOf(c *fakeConn, msg string) int {
	for i, m := range c.messages() {
		if m == msg {
			return i
		}
	}
	return -1
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Emit(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) all() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func fastTimings() Timings {
	return Timings{Settle: 20 * time.Millisecond, Pace: time.Millisecond, ActionTimeout: 3 * time.Second}
}

func newTestTable(t *testing.T, seats int, timings Timings, sink events.Sink) *Table {
	t.Helper()
	return New(1, seats, Options{
		Timings: timings,
		Rand:    rand.New(rand.NewSource(42)),
		Events:  sink,
	})
}

// start runs the engine until the test ends
func start(t *testing.T, tbl *Table) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go tbl.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-tbl.Done()
	})
	return cancel
}

func say(t *testing.T, tbl *Table, from *fakeConn, msg string) {
	t.Helper()
	require.True(t, tbl.Enqueue(from, protocol.NewTableData(tbl.ID(), msg)))
}

func join(t *testing.T, tbl *Table, conns ...*fakeConn) {
	t.Helper()
	for _, c := range conns {
		require.True(t, tbl.AddConnected(c))
	}
}

func TestInboxIsolation(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	c := newFakeConn("a")
	join(t, tbl, c)

	before := tbl.Snapshot()

	tests := []struct {
		name   string
		packet protocol.Packet
	}{
		{"wrong table id", protocol.NewTableData(2, "sit:0")},
		{"connect packet", protocol.NewTableConnect(1)},
		{"close packet", protocol.NewTableClose(1)},
		{"global packet", protocol.NewGetTables()},
		{"empty packet", protocol.Packet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tbl.Enqueue(c, tt.packet))
		})
	}

	assert.Len(t, tbl.inbox, 0)
	assert.Equal(t, before, tbl.Snapshot())
}

func TestSitAndStandup(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a, b := newFakeConn("a"), newFakeConn("b")
	join(t, tbl, a, b)
	start(t, tbl)

	say(t, tbl, a, "sit:3")
	waitForMsg(t, a, "sit:3:chips:5000")
	waitForMsg(t, b, "seattaken:3:chips:5000")
	assert.False(t, a.hasPrefix("seattaken:3"), "the requester gets sit, not seattaken")

	// taken seat, second seat for the same session, out of range seat
	say(t, tbl, b, "sit:3")
	say(t, tbl, a, "sit:4")
	say(t, tbl, b, "sit:6")
	// standup by someone who does not own the seat
	say(t, tbl, b, "standup:3")
	say(t, tbl, b, "update")
	waitForMsg(t, b, "seattaken:3:chips:5000:inhand:false")

	snap := tbl.Snapshot()
	assert.Equal(t, 1, snap.Occupied())
	assert.Equal(t, "a", snap.PlayerOnSeat(3).SessionID)
	assert.Equal(t, byte(1), tbl.Summary().Occupied)

	say(t, tbl, a, "standup:3")
	waitForMsg(t, a, "seatvacated:3")
	waitForMsg(t, b, "seatvacated:3")
	require.Eventually(t, func() bool { return tbl.Summary().Occupied == 0 }, time.Second, time.Millisecond)
}

func TestCommandsFromUnknownSessionAreIgnored(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a, stranger := newFakeConn("a"), newFakeConn("x")
	join(t, tbl, a)
	start(t, tbl)

	say(t, tbl, stranger, "sit:0")
	say(t, tbl, a, "update")
	waitForMsg(t, a, "board:null:null:null:null:null")
	assert.Equal(t, 0, tbl.Snapshot().Occupied())
	assert.Empty(t, stranger.messages())
}

func TestLeaveVacatesSeats(t *testing.T) {
	tbl := newTestTable(t, 8, fastTimings(), nil)
	a, b := newFakeConn("a"), newFakeConn("b")
	join(t, tbl, a, b)
	start(t, tbl)

	say(t, tbl, a, "sit:5")
	waitForMsg(t, a, "sit:5:chips:5000")

	assert.True(t, tbl.Leave(a))
	assert.False(t, tbl.Leave(a), "leaving twice is a no-op")
	waitForMsg(t, b, "seatvacated:5")
	assert.False(t, tbl.HasConnected("a"))
}

func TestQuitCommand(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a, b := newFakeConn("a"), newFakeConn("b")
	join(t, tbl, a, b)
	start(t, tbl)

	say(t, tbl, a, "sit:2")
	say(t, tbl, a, "quit")
	waitForMsg(t, b, "seatvacated:2")
	assert.False(t, tbl.HasConnected("a"))
}

// Three players; after a preflop raise the other two fold and the raiser
// takes the pot without a flop.
func TestFoldToOneShortCircuit(t *testing.T) {
	sink := &recordingSink{}
	timings := fastTimings()
	timings.Settle = 100 * time.Millisecond
	tbl := newTestTable(t, 6, timings, sink)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	join(t, tbl, a, b, c)
	cancel := start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")
	say(t, tbl, c, "sit:2")

	// dealer 2, small 1, big 0; the dealer acts first preflop
	waitForMsg(t, a, "game:start:dealer:2:small:1:big:0")
	waitForMsg(t, a, "game:seat:0:blind:200")
	waitForMsg(t, a, "game:seat:2:toact:200")
	say(t, tbl, c, "game:raise:2:400")

	waitForMsg(t, a, "game:seat:2:action:RAISE:600")
	waitForMsg(t, a, "game:seat:1:toact:500")
	say(t, tbl, b, "game:fold:1")

	waitForMsg(t, a, "game:seat:0:toact:400")
	say(t, tbl, a, "game:fold:0")

	waitForMsg(t, b, "game:winner:2:900")
	waitForMsg(t, b, "game:end")
	cancel()
	<-tbl.Done()

	for _, conn := range []*fakeConn{a, b, c} {
		assert.False(t, conn.hasPrefix("game:flop"), "no flop is dealt")
	}
	assert.Less(t, indexOf(b, "game:seat:1:action:FOLD"), indexOf(b, "game:seat:0:action:FOLD"))
	assert.Less(t, indexOf(b, "game:seat:0:action:FOLD"), indexOf(b, "game:winner:2:900"))

	snap := tbl.Snapshot()
	assert.Equal(t, 4800, snap.PlayerOnSeat(0).ChipCount)
	assert.Equal(t, 4900, snap.PlayerOnSeat(1).ChipCount)
	assert.Equal(t, 5300, snap.PlayerOnSeat(2).ChipCount)
	assert.Equal(t, 0, snap.Pot)
	assert.Equal(t, poker.StageIdle, snap.Stage)

	var awarded []events.PotAwarded
	for _, e := range sink.all() {
		if pa, ok := e.(events.PotAwarded); ok {
			awarded = append(awarded, pa)
		}
	}
	require.Len(t, awarded, 1)
	assert.Equal(t, 2, awarded[0].Seat)
	assert.Equal(t, 900, awarded[0].Amount)
}

// A silent actor is folded when the action timer fires and play moves on.
func TestTimeoutForcesFold(t *testing.T) {
	timings := fastTimings()
	timings.ActionTimeout = 50 * time.Millisecond
	tbl := newTestTable(t, 6, timings, nil)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	join(t, tbl, a, b, c)
	start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")
	say(t, tbl, c, "sit:2")

	waitForMsg(t, a, "game:seat:2:toact:200")
	waitForMsg(t, a, "game:seat:2:action:FOLD")
	waitForMsg(t, a, "game:seat:1:toact:100")

	snap := tbl.Snapshot()
	assert.Equal(t, 2, snap.PlayersInHand)
	assert.False(t, snap.PlayerOnSeat(2).InHand)

	// the small blind times out too and the big blind collects
	waitForMsg(t, a, "game:seat:1:action:FOLD")
	waitForMsg(t, a, "game:winner:0:300")
}

func TestHoleCardsAreOnlyShownToTheirOwner(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a, b, watcher := newFakeConn("a"), newFakeConn("b"), newFakeConn("w")
	join(t, tbl, a, b, watcher)
	start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")
	waitForMsg(t, watcher, "game:seat:0:card:1:null")
	waitForMsg(t, watcher, "game:seat:1:card:1:null")

	for k := 0; k < 2; k++ {
		assert.True(t, watcher.has(fmt.Sprintf("game:seat:0:card:%d:null", k)))
		assert.True(t, b.has(fmt.Sprintf("game:seat:0:card:%d:null", k)))
		assert.False(t, a.has(fmt.Sprintf("game:seat:0:card:%d:null", k)))
		assert.True(t, a.hasPrefix(fmt.Sprintf("game:seat:0:card:%d:", k)))
	}
}

// bot answers every toact addressed to its seat through the table inbox
func bot(tbl *Table, c *fakeConn, seat int, decide func(owed int) string) {
	prefix := fmt.Sprintf("game:seat:%d:toact:", seat)
	c.onMsg = func(msg string) {
		if !strings.HasPrefix(msg, prefix) {
			return
		}
		var owed int
		fmt.Sscanf(strings.TrimPrefix(msg, prefix), "%d", &owed)
		reply := decide(owed)
		go tbl.Enqueue(c, protocol.NewTableData(tbl.ID(), reply))
	}
}

func TestHandPlayedToShowdown(t *testing.T) {
	sink := &recordingSink{}
	timings := fastTimings()
	timings.Settle = 100 * time.Millisecond
	tbl := newTestTable(t, 6, timings, sink)
	a, b := newFakeConn("a"), newFakeConn("b")
	passive := func(seat int) func(int) string {
		return func(owed int) string {
			if owed > 0 {
				return fmt.Sprintf("game:call:%d", seat)
			}
			return fmt.Sprintf("game:check:%d", seat)
		}
	}
	bot(tbl, a, 0, passive(0))
	bot(tbl, b, 1, passive(1))
	join(t, tbl, a, b)
	cancel := start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")

	// heads-up the big blind wraps back onto the dealer
	waitForMsg(t, a, "game:start:dealer:1:small:0:big:1")
	waitForMsg(t, a, "game:end")
	cancel()
	<-tbl.Done()

	msgs := a.messages()
	var order []string
	for _, m := range msgs {
		for _, p := range []string{"game:flop:", "game:turn:", "game:river:", "game:winner:"} {
			if strings.HasPrefix(m, p) {
				order = append(order, p)
			}
		}
	}
	assert.Equal(t, []string{"game:flop:", "game:turn:", "game:river:", "game:winner:"}, order)
	assert.True(t, a.has("game:rounddone:400"))

	snap := tbl.Snapshot()
	assert.Equal(t, 10000, snap.TotalChips())
	assert.Equal(t, 0, snap.Pot)
	assert.ElementsMatch(t, []int{4800, 5200},
		[]int{snap.PlayerOnSeat(0).ChipCount, snap.PlayerOnSeat(1).ChipCount},
		"a single winner collects the pot")

	var names []string
	for _, e := range sink.all() {
		names = append(names, e.EventName())
	}
	assert.Contains(t, names, "hand-started")
	assert.Contains(t, names, "pot-awarded")
	assert.Equal(t, "hand-ended", names[len(names)-1])
}

// Randomly acting players never create or destroy chips.
func TestPotConservation(t *testing.T) {
	timings := Timings{Settle: time.Millisecond, Pace: time.Millisecond, ActionTimeout: 3 * time.Second}
	sink := &recordingSink{}
	tbl := newTestTable(t, 8, timings, sink)

	const players = 4
	total := players * poker.StartingChips

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(7))
	var violations []int
	check := func() {
		if got := tbl.Snapshot().TotalChips(); got != total {
			mu.Lock()
			violations = append(violations, got)
			mu.Unlock()
		}
	}

	conns := make([]*fakeConn, players)
	for i := range conns {
		seat := i * 2
		conns[i] = newFakeConn(fmt.Sprintf("p%d", i))
		bot(tbl, conns[i], seat, func(owed int) string {
			check()
			mu.Lock()
			r := rng.Intn(10)
			mu.Unlock()
			switch {
			case r == 0:
				return fmt.Sprintf("game:fold:%d", seat)
			case r < 3:
				return fmt.Sprintf("game:raise:%d:%d", seat, 100*(r+1))
			case r < 5:
				return fmt.Sprintf("game:check:%d", seat)
			}
			return fmt.Sprintf("game:call:%d", seat)
		})
	}
	join(t, tbl, conns...)
	for i, c := range conns {
		say(t, tbl, c, fmt.Sprintf("sit:%d", i*2))
	}
	start(t, tbl)

	require.Eventually(t, func() bool {
		ended := 0
		for _, e := range sink.all() {
			if _, ok := e.(events.HandEnded); ok {
				ended++
			}
		}
		return ended >= 5
	}, 10*time.Second, time.Millisecond)

	check()
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, violations)
}

func TestNotEnoughPlayersKeepsTableIdle(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a := newFakeConn("a")
	join(t, tbl, a)
	start(t, tbl)

	say(t, tbl, a, "sit:0")
	waitForMsg(t, a, "sit:0:chips:5000")
	time.Sleep(50 * time.Millisecond)
	assert.False(t, a.hasPrefix("game:start"))
	assert.Equal(t, poker.StageIdle, tbl.Snapshot().Stage)
}

func TestRaiseBelowBigBlindIsRaisedToIt(t *testing.T) {
	timings := fastTimings()
	tbl := newTestTable(t, 6, timings, nil)
	a, b := newFakeConn("a"), newFakeConn("b")
	join(t, tbl, a, b)
	start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")

	// heads-up: dealer 1, small 0, big 1; seat 0 acts first owing 100
	waitForMsg(t, a, "game:seat:0:toact:100")
	say(t, tbl, a, "game:raise:0:1")
	waitForMsg(t, b, "game:seat:0:action:RAISE:400")
	waitForMsg(t, b, "game:seat:1:toact:200")

	// an illegal check while owing chips is treated as a call
	say(t, tbl, b, "game:check:1")
	waitForMsg(t, a, "game:seat:1:action:CALL:400")
	waitForMsg(t, a, "game:rounddone:800")
}

func TestOutOfTurnActionIgnored(t *testing.T) {
	tbl := newTestTable(t, 6, fastTimings(), nil)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	join(t, tbl, a, b, c)
	start(t, tbl)

	say(t, tbl, a, "sit:0")
	say(t, tbl, b, "sit:1")
	say(t, tbl, c, "sit:2")

	waitForMsg(t, a, "game:seat:2:toact:200")
	// seat 0 is not to act, and b does not own seat 2
	say(t, tbl, a, "game:fold:0")
	say(t, tbl, b, "game:fold:2")
	say(t, tbl, c, "game:call:2")
	waitForMsg(t, a, "game:seat:2:action:CALL:200")
	assert.False(t, a.has("game:seat:0:action:FOLD"))
	assert.False(t, a.has("game:seat:2:action:FOLD"))
}
