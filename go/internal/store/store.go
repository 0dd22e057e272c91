package store

import (
	"errors"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/outbox"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrOwnerChanged is returned when a traded asset is no longer held by the
// team sending it.
var ErrOwnerChanged = errors.New("asset no longer owned by sending team")

// PlayerMove reassigns a player from FromTID to TID.
type PlayerMove struct {
	PID     int
	FromTID int
	TID     int
}

// PickMove reassigns a draft pick from FromTID to TID.
type PickMove struct {
	DPID    int
	FromTID int
	TID     int
	Abbrev  string
}

// TradeExecution is everything written when a trade is accepted. It is
// applied atomically: all moves, the log event, the outbox row and the
// cleared trade draft, or nothing.
type TradeExecution struct {
	PlayerMoves []PlayerMove
	PickMoves   []PickMove
	Event       models.TradeEvent
	Outbox      outbox.OutboxEvent
	// ClearDraft resets the persisted proposal to an empty one between
	// the same two teams.
	ClearDraft *models.TradeProposal
}

// DraftUpdateFunc transforms the persisted trade draft. cur is nil when
// no draft has been saved yet.
type DraftUpdateFunc func(cur *models.TradeProposal) (models.TradeProposal, error)
