package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Envelope is the JSON document published for each event
type Envelope struct {
	Name    string `json:"name"`
	TableID int    `json:"tableId"`
	Payload Event  `json:"payload"`
}

// RedisPublisher publishes table events on a Redis pub/sub channel.
// Publishing is fire-and-forget: failures are logged and dropped.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	timeout time.Duration
	log     *slog.Logger
}

func NewRedisPublisher(addr, channel string, log *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Ping checks the connection to Redis
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publish sends one event and reports the error
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", event.EventName(), err)
	}
	return nil
}

func (p *RedisPublisher) Emit(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.Publish(ctx, event); err != nil {
		p.log.Warn("event publish failed", "event", event.EventName(), "err", err)
	}
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// Marshal encodes an event inside its Envelope
func Marshal(event Event) ([]byte, error) {
	data, err := json.Marshal(Envelope{
		Name:    event.EventName(),
		TableID: GetTableID(event),
		Payload: event,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}
	return data, nil
}
