package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType classifies detection-cycle observability events.
type EventType string

const (
	EventCycleStarted     EventType = "cycle_started"
	EventPrices           EventType = "prices"
	EventOpportunityFound EventType = "opportunity_found"
	EventNoOpportunity    EventType = "no_opportunity"
	EventQuoteError       EventType = "quote_error"
	EventPrecisionError   EventType = "precision_error"
	EventStoreError       EventType = "store_error"
)

// Event is one observability record emitted by the detection cycle. Events
// are fan-out only; dropping one never affects detection or persistence.
type Event struct {
	ID          string           `json:"id"`
	Type        EventType        `json:"type"`
	At          time.Time        `json:"at"`
	Pass        string           `json:"pass,omitempty"`  // pass correlation ID
	Venue       string           `json:"venue,omitempty"` // failing venue on *_error
	PriceA      *decimal.Decimal `json:"price_a,omitempty"`
	PriceB      *decimal.Decimal `json:"price_b,omitempty"`
	Opportunity *Opportunity     `json:"opportunity,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// NewEvent stamps a fresh event with a UUID and the current UTC time.
func NewEvent(t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, At: time.Now().UTC()}
}

// Marshal renders the event in its wire form for the bus and the websocket
// feed.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// EventBus carries cycle events to in-process and external consumers.
type EventBus interface {
	// Publish delivers a payload to all current subscribers of channel.
	// Implementations must not block the caller on slow consumers.
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a stream of payloads for channel. The returned
	// channel is closed once ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
