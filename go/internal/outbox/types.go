package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types written to the trade outbox
const (
	EventTypeTradeAccepted = "TradeAccepted"
)

// ErrEventNotPending is returned when an outbox event does not exist or
// has already been sent.
var ErrEventNotPending = errors.New("outbox event not found or already sent")

// OutboxEvent represents an outbox event for the application layer
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// EventPublisher pushes an outbox event to the message bus
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
