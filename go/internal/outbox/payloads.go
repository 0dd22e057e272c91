package outbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event payload types that are shared between the trade and gateway packages

// TradeSidePayload is what one team sent in an accepted trade
type TradeSidePayload struct {
	TID    int    `json:"tid"`
	Abbrev string `json:"abbrev"`
	PIDs   []int  `json:"pids"`
	DPIDs  []int  `json:"dpids"`
}

// TradeAcceptedPayload is the payload for a TradeAccepted event
type TradeAcceptedPayload struct {
	EventID    uuid.UUID           `json:"event_id"`
	Season     int                 `json:"season"`
	Teams      [2]TradeSidePayload `json:"teams"`
	Text       string              `json:"text"`
	Forced     bool                `json:"forced"`
	AcceptedAt time.Time           `json:"accepted_at"`
}

// TIDs lists both teams involved.
func (p TradeAcceptedPayload) TIDs() []int {
	return []int{p.Teams[0].TID, p.Teams[1].TID}
}

// NewTradeAcceptedEvent builds the outbox row for an accepted trade.
func NewTradeAcceptedEvent(payload TradeAcceptedPayload) (OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal TradeAccepted payload: %w", err)
	}
	if err := validateEventPayload(raw); err != nil {
		return OutboxEvent{}, fmt.Errorf("invalid TradeAccepted payload: %w", err)
	}
	return OutboxEvent{
		ID:        uuid.New(),
		EventType: EventTypeTradeAccepted,
		Payload:   raw,
		CreatedAt: payload.AcceptedAt,
	}, nil
}

// DecodeTradeAccepted parses the payload of a TradeAccepted event.
func DecodeTradeAccepted(event OutboxEvent) (*TradeAcceptedPayload, error) {
	if event.EventType != EventTypeTradeAccepted {
		return nil, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	var p TradeAcceptedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal TradeAccepted payload: %w", err)
	}
	return &p, nil
}

// validateEventPayload performs basic validation on event payloads
func validateEventPayload(payload []byte) error {
	if len(payload) == 0 {
		return errors.New("payload cannot be empty")
	}
	if !json.Valid(payload) {
		return errors.New("payload must be valid JSON")
	}
	return nil
}
