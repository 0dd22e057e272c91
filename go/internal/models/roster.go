package models

// RosterPosition represents the position a player has on a roster
type RosterPosition string

const (
	RosterPositionStarter RosterPosition = "STARTER"
	RosterPositionBench   RosterPosition = "BENCH"
	RosterPositionIR      RosterPosition = "IR"
)

// AcquisitionType represents how a player was acquired
type AcquisitionType string

const (
	AcquisitionTypeDraft     AcquisitionType = "DRAFT"
	AcquisitionTypeTrade     AcquisitionType = "TRADE"
	AcquisitionTypeFreeAgent AcquisitionType = "FREE_AGENT"
)

// RosterSlot is a player's place in a sorted roster.
type RosterSlot struct {
	PID      int            `json:"pid"`
	Order    int            `json:"order"`
	Position RosterPosition `json:"position"`
}
