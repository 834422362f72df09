package events

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/logging"
)

// DefaultQueueSize is the number of events buffered before new ones are dropped
const DefaultQueueSize = 1024

// Dispatcher hands table events to its sinks on its own goroutine so a slow
// sink (Redis) never stalls a table engine
type Dispatcher struct {
	sinks   []events.Sink
	queue   chan events.Event
	dropped atomic.Int64
	log     *slog.Logger
	done    chan struct{}
}

// NewDispatcher creates a dispatcher. Events are delivered once Run is called.
func NewDispatcher(size int, log *slog.Logger, sinks ...events.Sink) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{
		sinks: sinks,
		queue: make(chan events.Event, size),
		log:   log,
		done:  make(chan struct{}),
	}
}

// Emit queues an event without blocking
func (d *Dispatcher) Emit(event events.Event) {
	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		d.log.Warn("event queue full, dropping event", "event", event.EventName(), "table", events.GetTableID(event))
	}
}

// Run delivers events until ctx is cancelled, then drains what is queued
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-d.queue:
					d.dispatch(event)
				default:
					return
				}
			}
		case event := <-d.queue:
			d.dispatch(event)
		}
	}
}

func (d *Dispatcher) dispatch(event events.Event) {
	d.log.Debug("dispatching event", "event", event.EventName(), "table", events.GetTableID(event), "payload", logging.Dump(event))
	for _, sink := range d.sinks {
		sink.Emit(event)
	}
}

// Dropped reports how many events were lost to a full queue
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Done is closed once Run has returned
func (d *Dispatcher) Done() <-chan struct{} { return d.done }
