package connection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/protocol"
)

// State is where a session is in its lifecycle
type State int32

const (
	StateHandshaking State = iota
	StateAuthPending
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateAuthPending:
		return "auth_pending"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// SendQueueSize is the number of packets a session buffers before it is
// considered too slow and closed
const SendQueueSize = 256

const (
	flushTimeout     = 2 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Session is one connected client
type Session struct {
	id   string
	conn io.ReadWriteCloser
	send chan protocol.Packet
	log  *slog.Logger

	state  atomic.Int32
	closed chan struct{}
	once   sync.Once
	pumps  sync.WaitGroup

	mutex  sync.RWMutex
	user   string
	tables map[int]struct{}

	onClose []func(*Session)
}

// NewSession wraps an accepted connection. Nothing is read or written until
// Handshake and Start are called.
func NewSession(conn io.ReadWriteCloser, log *slog.Logger) *Session {
	if log == nil {
		log = logging.Discard()
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		conn:   conn,
		send:   make(chan protocol.Packet, SendQueueSize),
		log:    log.With("session", id),
		closed: make(chan struct{}),
		tables: make(map[int]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

// SetState moves the session forward. A closed session stays closed.
func (s *Session) SetState(st State) {
	for {
		cur := s.state.Load()
		if State(cur) == StateClosed {
			return
		}
		if s.state.CompareAndSwap(cur, int32(st)) {
			return
		}
	}
}

// Logger returns the session scoped logger
func (s *Session) Logger() *slog.Logger { return s.log }

// OnClose registers a callback run once when the session closes
func (s *Session) OnClose(fn func(*Session)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onClose = append(s.onClose, fn)
}

// Handshake exchanges version lines, server first. A peer that does not
// answer within handshakeTimeout fails the handshake.
func (s *Session) Handshake() error {
	if d, ok := s.conn.(readDeadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(handshakeTimeout))
		defer d.SetReadDeadline(time.Time{})
	}
	line, err := protocol.ServerHandshake(s.conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	s.log.Debug("client version", "version", line)
	s.SetState(StateAuthPending)
	return nil
}

// Reject writes a single packet straight to the connection and closes it.
// It is used before the pumps run.
func (s *Session) Reject(p protocol.Packet) error {
	err := protocol.WriteFrame(s.conn, p)
	s.Close()
	s.conn.Close()
	return err
}

// Send queues a packet for the writer. A session whose queue is full is closed.
func (s *Session) Send(p protocol.Packet) bool {
	if s.State() == StateClosed {
		return false
	}
	select {
	case s.send <- p:
		return true
	default:
		s.log.Warn("send queue full, closing session")
		go s.Close()
		return false
	}
}

// Start runs the writer and reads frames, passing each packet to handle,
// until the connection fails or the session is closed.
func (s *Session) Start(handle func(*Session, protocol.Packet)) {
	s.pumps.Add(1)
	go s.writePump()
	s.readPump(handle)
}

func (s *Session) readPump(handle func(*Session, protocol.Packet)) {
	defer s.Close()
	for {
		p, err := protocol.ReadFrame(s.conn)
		if err != nil {
			if s.State() != StateClosed && !errors.Is(err, io.EOF) {
				s.log.Info("read failed", "err", err)
			}
			return
		}
		if s.State() == StateClosed {
			return
		}
		s.log.Debug("packet in", "code", p.Code(), "packet", logging.Dump(p))
		handle(s, p)
	}
}

// writePump writes queued packets until the session closes, then flushes
// what is left and closes the connection.
func (s *Session) writePump() {
	defer s.pumps.Done()
	defer s.conn.Close()

	for {
		select {
		case p := <-s.send:
			if err := protocol.WriteFrame(s.conn, p); err != nil {
				s.log.Info("write failed", "err", err)
				go s.Close()
				return
			}
		case <-s.closed:
			s.flush()
			return
		}
	}
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

func (s *Session) flush() {
	if d, ok := s.conn.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(flushTimeout))
	}
	for {
		select {
		case p := <-s.send:
			if err := protocol.WriteFrame(s.conn, p); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Close marks the session closed and runs the close callbacks. The writer
// flushes pending packets before the connection is closed.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.closed)

		s.mutex.RLock()
		callbacks := slices.Clone(s.onClose)
		s.mutex.RUnlock()
		for _, fn := range callbacks {
			fn(s)
		}
		s.log.Info("session closed")
	})
	return nil
}

// CloseNow closes the session without waiting for the peer to drain its queue
func (s *Session) CloseNow() error {
	s.Close()
	return s.conn.Close()
}

// Done is closed once the session is closed
func (s *Session) Done() <-chan struct{} { return s.closed }

// Wait blocks until the writer has finished
func (s *Session) Wait() { s.pumps.Wait() }

func (s *Session) User() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.user
}

func (s *Session) SetUser(user string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.user = user
}

// AddTable records a connected table. It reports false when already present.
func (s *Session) AddTable(id int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.tables[id]; ok {
		return false
	}
	s.tables[id] = struct{}{}
	return true
}

// RemoveTable forgets a table. It reports false when it was not connected.
func (s *Session) RemoveTable(id int) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.tables[id]; !ok {
		return false
	}
	delete(s.tables, id)
	return true
}

func (s *Session) HasTable(id int) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.tables[id]
	return ok
}

// Tables returns the connected table ids in ascending order
func (s *Session) Tables() []int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ids := make([]int, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
