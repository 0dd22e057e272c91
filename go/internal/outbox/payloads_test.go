package outbox

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() TradeAcceptedPayload {
	return TradeAcceptedPayload{
		EventID: uuid.New(),
		Season:  2025,
		Teams: [2]TradeSidePayload{
			{TID: 0, Abbrev: "BOS", PIDs: []int{1}, DPIDs: []int{10}},
			{TID: 1, Abbrev: "DEN", PIDs: []int{2}, DPIDs: []int{}},
		},
		Text:       "The Boston Whalers traded Kevin Lane to the Denver Peaks for Marco Diaz.",
		AcceptedAt: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestTradeAcceptedEvent(t *testing.T) {
	payload := samplePayload()

	event, err := NewTradeAcceptedEvent(payload)
	require.NoError(t, err)

	assert.Equal(t, EventTypeTradeAccepted, event.EventType)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, payload.AcceptedAt, event.CreatedAt)
	assert.Nil(t, event.SentAt)

	decoded, err := DecodeTradeAccepted(event)
	require.NoError(t, err)
	assert.Equal(t, payload.Text, decoded.Text)
	assert.Equal(t, []int{0, 1}, decoded.TIDs())
	assert.Equal(t, []int{10}, decoded.Teams[0].DPIDs)
}

func TestDecodeTradeAccepted_WrongType(t *testing.T) {
	_, err := DecodeTradeAccepted(OutboxEvent{EventType: "DraftStarted", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestValidateEventPayload(t *testing.T) {
	assert.Error(t, validateEventPayload(nil))
	assert.Error(t, validateEventPayload([]byte(`{"season":`)))
	assert.NoError(t, validateEventPayload([]byte(`{"season":2025}`)))
}

func TestEnvelope(t *testing.T) {
	event, err := NewTradeAcceptedEvent(samplePayload())
	require.NoError(t, err)
	now := time.Date(2025, 1, 15, 7, 0, 0, 0, time.FixedZone("EST", -5*3600))

	data, err := json.Marshal(NewEnvelope(event, now))
	require.NoError(t, err)

	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, event.ID.String(), env.EventID)
	assert.Equal(t, time.UTC, env.Timestamp.Location())
	assert.True(t, now.Equal(env.Timestamp))

	decoded, err := DecodeTradeAccepted(OutboxEvent{EventType: env.EventType, Payload: env.Payload})
	require.NoError(t, err)
	assert.Equal(t, 2025, decoded.Season)

	_, err = DecodeEnvelope([]byte(`{"eventId":"x"}`))
	assert.Error(t, err)
}

func TestJetStreamConfig_Subject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	assert.Equal(t, "trade.events.TradeAccepted", cfg.Subject(EventTypeTradeAccepted))
	assert.Equal(t, "TRADE_EVENTS", cfg.StreamName)
}
