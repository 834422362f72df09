package events

import "reflect"

// Event is the interface that all table events must implement.
type Event interface {
	EventName() string // Returns a unique name for the event type
}

// Sink receives events emitted by table engines. Emit must not block.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a plain function to a Sink
type SinkFunc func(event Event)

func (f SinkFunc) Emit(event Event) { f(event) }

// Discard drops every event
var Discard Sink = SinkFunc(func(Event) {})

// GetTableID returns the TableID field of an event, or -1 when it has none.
func GetTableID(event Event) int {
	val := reflect.ValueOf(event)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return -1
	}
	field := val.FieldByName("TableID")
	if field.IsValid() && field.Kind() == reflect.Int {
		return int(field.Int())
	}
	return -1
}
