// Package bus provides the in-process event bus used when Redis is not
// configured.
package bus

import (
	"context"
	"sync"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// subscriberBuffer is the per-subscriber channel capacity. Publishes to a
// full subscriber are dropped rather than blocking the detection cycle.
const subscriberBuffer = 128

// Memory is an in-process domain.EventBus. Delivery is best-effort fan-out:
// subscribers that fall behind lose events, publishers never block.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan []byte
	next int
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]chan []byte)}
}

// Publish delivers payload to every current subscriber of channel.
func (m *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber for channel. The returned channel is
// closed once ctx is cancelled. Closing always happens after the subscriber
// has been removed from the registry, so Publish never writes to a closed
// channel.
func (m *Memory) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBuffer)

	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[int]chan []byte)
	}
	id := m.next
	m.next++
	m.subs[channel][id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[channel], id)
		if len(m.subs[channel]) == 0 {
			delete(m.subs, channel)
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Compile-time interface check.
var _ domain.EventBus = (*Memory)(nil)
