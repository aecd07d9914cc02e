package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// streamMaxLen caps the durable event stream, enforced via XADD MAXLEN ~.
const streamMaxLen int64 = 10000

// EventBus implements domain.EventBus on Redis: Pub/Sub for live fan-out to
// the dashboard and notifier, plus an optional capped stream that keeps a
// tail of recent events across restarts.
type EventBus struct {
	rdb    *redis.Client
	stream string
}

// NewEventBus creates an EventBus backed by the given Client. When stream is
// non-empty every published payload is also appended to that stream.
func NewEventBus(c *Client, stream string) *EventBus {
	return &EventBus{rdb: c.Underlying(), stream: stream}
}

// Publish sends payload to channel and, when a stream is configured, appends
// it there with approximate trimming.
func (b *EventBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}

	if b.stream == "" {
		return nil
	}
	args := &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", b.stream, err)
	}
	return nil
}

// Subscribe creates a Pub/Sub subscription and returns a read-only channel
// of raw payloads. The subscription is torn down and the channel closed when
// ctx is cancelled.
func (b *EventBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = b.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = b.rdb.Subscribe(ctx, channel)
	}

	// Receive the confirmation so a broken connection fails here, not on
	// first read.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// RecentEvents reads up to limit events from the tail of the stream and
// returns them oldest first. Entries that fail to decode are skipped.
func (b *EventBus) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if b.stream == "" || limit <= 0 {
		return nil, nil
	}

	msgs, err := b.rdb.XRevRangeN(ctx, b.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: stream range %s: %w", b.stream, err)
	}

	events := make([]domain.Event, 0, len(msgs))
	// XRevRange yields newest first; walk backwards to restore order.
	for i := len(msgs) - 1; i >= 0; i-- {
		raw, ok := msgs[i].Values["payload"]
		if !ok {
			continue
		}
		var data []byte
		switch v := raw.(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// hasPattern returns true when the channel includes glob-style wildcards, in
// which case PSubscribe must be used instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// Compile-time interface checks.
var (
	_ domain.EventBus     = (*EventBus)(nil)
	_ domain.EventHistory = (*EventBus)(nil)
)
