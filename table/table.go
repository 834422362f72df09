package table

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazharichir/jpoker/cards"
	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
)

// Conn is a connected session as seen by a table
type Conn interface {
	ID() string
	// Send queues a packet for the session and reports whether it was accepted.
	Send(p protocol.Packet) bool
}

// Timings controls the pacing of the engine
type Timings struct {
	Settle        time.Duration // before a hand starts
	Pace          time.Duration // between streets and before the deal
	ActionTimeout time.Duration // per actor, after which they fold
}

// DefaultTimings are the production delays
func DefaultTimings() Timings {
	return Timings{
		Settle:        2 * time.Second,
		Pace:          2 * time.Second,
		ActionTimeout: 21 * time.Second,
	}
}

// Options configures a Table. Zero values select defaults.
type Options struct {
	Timings   Timings
	Rand      *rand.Rand
	Log       *slog.Logger
	Events    events.Sink
	SplitPots bool
	InboxSize int
	// Deck builds the deck of each hand. Defaults to cards.NewDeck.
	Deck func(rng *rand.Rand) *cards.Deck
}

// envelope is one inbox entry. leave marks a session departure.
type envelope struct {
	from   Conn
	packet protocol.Packet
	leave  bool
}

// Table is one poker table. Its state is owned by the goroutine running Run;
// other goroutines talk to it through Enqueue, the connected set and snapshots.
type Table struct {
	id       int
	maxSeats int

	data    *poker.TableData
	acting  int
	timings Timings
	rng     *rand.Rand
	newDeck func(*rand.Rand) *cards.Deck
	split   bool
	events  events.Sink
	log     *slog.Logger

	inbox chan envelope
	done  chan struct{}

	mu        sync.RWMutex
	connected map[string]Conn

	occupied atomic.Int32
	snapshot atomic.Pointer[poker.TableData]
}

// New creates a table. maxSeats is not validated here; the lobby does it.
func New(id, maxSeats int, opts Options) *Table {
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.Events == nil {
		opts.Events = events.Discard
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.Deck == nil {
		opts.Deck = cards.NewDeck
	}

	t := &Table{
		id:        id,
		maxSeats:  maxSeats,
		data:      poker.NewTableData(id, maxSeats),
		acting:    -1,
		timings:   opts.Timings,
		rng:       opts.Rand,
		newDeck:   opts.Deck,
		split:     opts.SplitPots,
		events:    opts.Events,
		log:       opts.Log.With("table", id),
		inbox:     make(chan envelope, opts.InboxSize),
		done:      make(chan struct{}),
		connected: make(map[string]Conn),
	}
	t.publish()
	return t
}

func (t *Table) ID() int       { return t.id }
func (t *Table) MaxSeats() int { return t.maxSeats }

// Enqueue hands a TABLE_DATA packet addressed to this table to the engine.
// Anything else is dropped and false is returned.
func (t *Table) Enqueue(from Conn, p protocol.Packet) bool {
	if p.Code() != protocol.CodeTableData {
		t.log.Warn("dropping packet with wrong code", "code", p.Code())
		return false
	}
	if id := p.TableID(); id != t.id {
		t.log.Warn("dropping packet for another table", "packet_table", id)
		return false
	}
	return t.post(envelope{from: from, packet: p})
}

func (t *Table) post(env envelope) bool {
	select {
	case t.inbox <- env:
		return true
	case <-t.done:
		return false
	}
}

// AddConnected registers a session so it receives table broadcasts.
// It reports false when the session was already connected.
func (t *Table) AddConnected(c Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.connected[c.ID()]; ok {
		return false
	}
	t.connected[c.ID()] = c
	return true
}

// RemoveConnected unregisters a session without touching its seats
func (t *Table) RemoveConnected(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.connected[id]; !ok {
		return false
	}
	delete(t.connected, id)
	return true
}

func (t *Table) HasConnected(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.connected[id]
	return ok
}

// ConnectedCount returns the number of connected sessions
func (t *Table) ConnectedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.connected)
}

// Leave disconnects a session from the table. Its seats are folded and
// vacated by the engine.
func (t *Table) Leave(c Conn) bool {
	if !t.RemoveConnected(c.ID()) {
		return false
	}
	t.post(envelope{from: c, leave: true})
	return true
}

// Summary describes the table for a TABLE_LIST
func (t *Table) Summary() protocol.TableSummary {
	return protocol.TableSummary{
		ID:       t.id,
		Seats:    byte(t.maxSeats),
		Occupied: byte(t.occupied.Load()),
	}
}

// Snapshot returns a copy of the table state as last published by the engine
func (t *Table) Snapshot() *poker.TableData {
	return t.snapshot.Load().Clone()
}

// Done is closed once Run has returned
func (t *Table) Done() <-chan struct{} {
	return t.done
}

func (t *Table) publish() {
	t.occupied.Store(int32(t.data.Occupied()))
	t.snapshot.Store(t.data.Clone())
}

func (t *Table) conns() []Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	list := make([]Conn, 0, len(t.connected))
	for _, c := range t.connected {
		list = append(list, c)
	}
	return list
}

func (t *Table) send(c Conn, msg string) {
	if !c.Send(protocol.NewTableData(t.id, msg)) {
		t.log.Debug("send dropped", "session", c.ID(), "msg", msg)
	}
}

func (t *Table) broadcast(msg string) {
	t.broadcastExcept("", msg)
}

func (t *Table) broadcastExcept(skip string, msg string) {
	p := protocol.NewTableData(t.id, msg)
	for _, c := range t.conns() {
		if c.ID() == skip {
			continue
		}
		if !c.Send(p) {
			t.log.Debug("send dropped", "session", c.ID(), "msg", msg)
		}
	}
}
