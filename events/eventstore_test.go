package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/lazharichir/jpoker/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventStore(t *testing.T) {
	store := NewInMemoryEventStore(0)

	t.Run("Append and load events", func(t *testing.T) {
		require.NoError(t, store.Append(HandStarted{TableID: 3, HandID: "h1", Dealer: 0, SmallBlind: 5, BigBlind: 4, Seats: []int{0, 4, 5}}))
		require.NoError(t, store.Append(PlayerActed{TableID: 3, HandID: "h1", Seat: 5, Action: "CALL", Bet: 200}))
		require.NoError(t, store.Append(PotAwarded{TableID: 3, HandID: "h1", Seat: 4, Amount: 600}))
		require.NoError(t, store.Append(SeatTaken{TableID: 7, Seat: 1}))

		events, err := store.LoadEvents(3)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "hand-started", events[0].EventName())
		assert.Equal(t, "player-acted", events[1].EventName())
		assert.Equal(t, "pot-awarded", events[2].EventName())
	})

	t.Run("Load events for non-existent table", func(t *testing.T) {
		events, err := store.LoadEvents(99)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Loaded slice is a copy", func(t *testing.T) {
		events, err := store.LoadEvents(3)
		require.NoError(t, err)
		events[0] = HandEnded{TableID: 3}
		again, _ := store.LoadEvents(3)
		assert.Equal(t, "hand-started", again[0].EventName())
	})
}

type untabled struct{}

func (untabled) EventName() string { return "untabled" }

func TestAppendWithoutTableID(t *testing.T) {
	store := NewInMemoryEventStore(0)
	assert.Error(t, store.Append(untabled{}))
	assert.Zero(t, store.Rejected(), "Append reports the error itself")

	store.Emit(untabled{})
	store.Emit(SeatVacated{TableID: 1})
	assert.Equal(t, int64(1), store.Rejected())
	assert.Equal(t, -1, GetTableID(untabled{}))
	assert.Equal(t, 2, GetTableID(&SeatVacated{TableID: 2}))
}

func TestInMemoryEventStoreLimit(t *testing.T) {
	store := NewInMemoryEventStore(2)
	for seat := 0; seat < 5; seat++ {
		store.Emit(SeatVacated{TableID: 1, Seat: seat})
	}
	events, err := store.LoadEvents(1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].(SeatVacated).Seat)
	assert.Equal(t, 4, events[1].(SeatVacated).Seat)
}

func TestMarshalEnvelope(t *testing.T) {
	data, err := Marshal(PotAwarded{TableID: 4, HandID: "abc", Seat: 2, Amount: 300, Descriptor: "Pair of 9s"})
	require.NoError(t, err)

	var got struct {
		Name    string         `json:"name"`
		TableID int            `json:"tableId"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "pot-awarded", got.Name)
	assert.Equal(t, 4, got.TableID)
	assert.Equal(t, "Pair of 9s", got.Payload["descriptor"])
	assert.EqualValues(t, 300, got.Payload["amount"])
}

func TestSinkFunc(t *testing.T) {
	var names []string
	var sink Sink = SinkFunc(func(e Event) { names = append(names, e.EventName()) })
	sink.Emit(HandEnded{TableID: 1})
	Discard.Emit(HandEnded{TableID: 1})
	assert.Equal(t, []string{"hand-ended"}, names)
}

// Runs against a real server when JPOKER_TEST_REDIS_ADDR is set.
func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("JPOKER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JPOKER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	pub := NewRedisPublisher(addr, "jpoker:test", logging.Discard())
	defer pub.Close()

	require.NoError(t, pub.Ping(ctx))

	sub := pub.rdb.Subscribe(ctx, "jpoker:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, HandEnded{TableID: 9, HandID: "x"}))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, `"name":"hand-ended"`)
}
