package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/lazharichir/jpoker/table"
)

var (
	ErrTableExists  = errors.New("table already exists")
	ErrInvalidSeats = errors.New("invalid number of seats")
	ErrNoSuchTable  = errors.New("table not found")
)

// Lobby is the registry of every table on the server
type Lobby struct {
	tables map[int]*table.Table
	mutex  sync.RWMutex

	// template for new tables; Rand is left nil so each engine seeds its own
	tableOpts table.Options
	log       *slog.Logger

	ctx     context.Context
	running sync.WaitGroup
}

// NewLobby creates an empty lobby. opts is applied to every table it creates.
func NewLobby(opts table.Options, log *slog.Logger) *Lobby {
	if log == nil {
		log = logging.Discard()
	}
	opts.Rand = nil
	if opts.Log == nil {
		opts.Log = log
	}
	return &Lobby{
		tables:    make(map[int]*table.Table),
		tableOpts: opts,
		log:       log,
	}
}

// CreateTable registers a table. Tables created after StartAll start right away.
func (l *Lobby) CreateTable(id, maxSeats int) (*table.Table, error) {
	if !poker.IsValidSeatCount(maxSeats) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeats, maxSeats)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.tables[id]; exists {
		return nil, fmt.Errorf("%w: %d", ErrTableExists, id)
	}
	t := table.New(id, maxSeats, l.tableOpts)
	l.tables[id] = t
	if l.ctx != nil {
		l.run(t)
	}
	l.log.Debug("table created", "table", id, "seats", maxSeats)
	return t, nil
}

// Bootstrap creates count tables with ids from 1, the first half with six
// seats and the rest with eight.
func (l *Lobby) Bootstrap(count int) error {
	for i := 0; i < count; i++ {
		seats := 6
		if i >= count/2 {
			seats = 8
		}
		if _, err := l.CreateTable(i+1, seats); err != nil {
			return err
		}
	}
	return nil
}

// GetTable retrieves a table by ID
func (l *Lobby) GetTable(id int) (*table.Table, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	t, exists := l.tables[id]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchTable, id)
	}
	return t, nil
}

// GetTables returns all tables sorted by id
func (l *Lobby) GetTables() []*table.Table {
	l.mutex.RLock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	l.mutex.RUnlock()

	sort.Slice(tables, func(i, j int) bool { return tables[i].ID() < tables[j].ID() })
	return tables
}

// Snapshot lists every table for a TABLE_LIST packet
func (l *Lobby) Snapshot() []protocol.TableSummary {
	tables := l.GetTables()
	list := make([]protocol.TableSummary, len(tables))
	for i, t := range tables {
		list[i] = t.Summary()
	}
	return list
}

// StartAll runs the engine of every table until ctx is cancelled
func (l *Lobby) StartAll(ctx context.Context) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.ctx != nil {
		return
	}
	l.ctx = ctx
	for _, t := range l.tables {
		l.run(t)
	}
}

func (l *Lobby) run(t *table.Table) {
	l.running.Add(1)
	go func() {
		defer l.running.Done()
		t.Run(l.ctx)
	}()
}

// Wait blocks until every started engine has returned
func (l *Lobby) Wait() {
	l.running.Wait()
}
