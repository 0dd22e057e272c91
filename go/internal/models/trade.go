package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeSide is one team's half of a proposal: the assets that team sends.
type TradeSide struct {
	TID   int   `json:"tid"`
	PIDs  []int `json:"pids"`
	DPIDs []int `json:"dpids"`
}

// Empty reports whether the side sends nothing.
func (s TradeSide) Empty() bool {
	return len(s.PIDs) == 0 && len(s.DPIDs) == 0
}

// Clone returns a deep copy so negotiation can grow it without aliasing.
func (s TradeSide) Clone() TradeSide {
	return TradeSide{
		TID:   s.TID,
		PIDs:  append([]int(nil), s.PIDs...),
		DPIDs: append([]int(nil), s.DPIDs...),
	}
}

// TradeProposal is a two-sided trade. Teams[0] is the initiator (usually
// the user), Teams[1] the counterparty.
type TradeProposal struct {
	Teams [2]TradeSide `json:"teams"`
}

// Clone deep copies both sides.
func (p TradeProposal) Clone() TradeProposal {
	return TradeProposal{Teams: [2]TradeSide{p.Teams[0].Clone(), p.Teams[1].Clone()}}
}

// NewTradeProposal starts an empty proposal between two teams.
func NewTradeProposal(initiatorTID, counterpartyTID int) TradeProposal {
	return TradeProposal{Teams: [2]TradeSide{
		{TID: initiatorTID, PIDs: []int{}, DPIDs: []int{}},
		{TID: counterpartyTID, PIDs: []int{}, DPIDs: []int{}},
	}}
}

// SummaryPlayer is a traded player as shown in a summary.
type SummaryPlayer struct {
	PID      int      `json:"pid"`
	Name     string   `json:"name"`
	Age      int      `json:"age"`
	Ovr      int      `json:"ovr"`
	Pot      int      `json:"pot"`
	Contract Contract `json:"contract"`
	Injury   Injury   `json:"injury"`
}

// SummaryPick is a traded pick as shown in a summary.
type SummaryPick struct {
	DPID int    `json:"dpid"`
	Desc string `json:"desc"`
}

// SummaryTeam describes what one side sends and its post-trade payroll.
type SummaryTeam struct {
	TID   int             `json:"tid"`
	Name  string          `json:"name"`
	Trade []SummaryPlayer `json:"trade"`
	Picks []SummaryPick   `json:"picks"`
	Total int             `json:"total"` // outgoing salary, thousands

	// PayrollAfterTrade is in millions, decimal string for display.
	PayrollAfterTrade string `json:"payroll_after_trade"`
	OverCap           bool   `json:"over_cap"`

	// Ratio is received salary as a percent of sent salary. Nil when the
	// side sends no salary but receives some.
	Ratio *int `json:"ratio,omitempty"`
}

// TradeSummary is the validated view of a proposal.
type TradeSummary struct {
	Teams   [2]SummaryTeam `json:"teams"`
	Warning string         `json:"warning,omitempty"`
}

// HasWarning reports whether the cap-match rule blocks the trade.
func (s TradeSummary) HasWarning() bool {
	return s.Warning != ""
}

// TradeEventType is the type column of logged league events.
const TradeEventType = "trade"

// TradeEvent is the log record written when a trade executes.
type TradeEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Season    int       `json:"season"`
	PIDs      []int     `json:"pids"`
	DPIDs     []int     `json:"dpids"`
	TIDs      []int     `json:"tids"`
	CreatedAt time.Time `json:"created_at"`
}
