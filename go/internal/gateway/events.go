package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/tradeengine/go/internal/outbox"
)

// LeagueWide subscribes a connection to every team's events.
const LeagueWide = -1

// FeedEvent is what websocket clients receive
type FeedEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TIDs      []int           `json:"tids"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of feed event
type EventType string

const (
	EventTypeTradeAccepted EventType = outbox.EventTypeTradeAccepted
)

// FromEnvelope converts a bus message into a feed event addressed to the
// teams it involves.
func FromEnvelope(env outbox.Envelope) (*FeedEvent, error) {
	switch EventType(env.EventType) {
	case EventTypeTradeAccepted:
		payload, err := outbox.DecodeTradeAccepted(outbox.OutboxEvent{
			EventType: env.EventType,
			Payload:   env.Payload,
		})
		if err != nil {
			return nil, err
		}
		return &FeedEvent{
			ID:        env.EventID,
			Type:      EventTypeTradeAccepted,
			TIDs:      payload.TIDs(),
			Timestamp: env.Timestamp,
			Data:      env.Payload,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.EventType)
	}
}
