package models

import "fmt"

// Special team ids for players that are not on a roster.
const (
	PlayerUndrafted = -2
	PlayerFreeAgent = -1
)

// Skill is a two-letter-ish skill code derived from a player's ratings.
type Skill string

const (
	SkillThreePoint  Skill = "3"
	SkillAthlete     Skill = "A"
	SkillBallHandler Skill = "B"
	SkillInteriorD   Skill = "Di"
	SkillPerimeterD  Skill = "Dp"
	SkillPostScorer  Skill = "Po"
	SkillPasser      Skill = "Ps"
	SkillRebounder   Skill = "R"
)

// Contract amounts are in thousands of currency units.
type Contract struct {
	Amount int `json:"amount"`
	Exp    int `json:"exp"` // last season covered by the contract
}

// Injury describes a player's current injury, if any.
type Injury struct {
	Type           string `json:"type"`
	GamesRemaining int    `json:"games_remaining"`
}

// Healthy reports whether the player has no games left to miss.
func (i Injury) Healthy() bool {
	return i.GamesRemaining <= 0
}

// Ratings holds the latest rating snapshot used by valuation.
type Ratings struct {
	Ovr    int     `json:"ovr"`
	Pot    int     `json:"pot"`
	Skills []Skill `json:"skills"`
}

// Player represents a basketball player in a league save
type Player struct {
	PID                int             `json:"pid"`
	TID                int             `json:"tid"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	BornYear           int             `json:"born_year"`
	DraftYear          int             `json:"draft_year"`
	Value              float64         `json:"value"`
	ValueWithContract  float64         `json:"value_with_contract"`
	Ratings            Ratings         `json:"ratings"`
	Contract           Contract        `json:"contract"`
	Injury             Injury          `json:"injury"`
	GamesUntilTradable int             `json:"games_until_tradable"`
	RosterOrder        int             `json:"roster_order"`
	RosterPosition     RosterPosition  `json:"roster_position"`
	AcquiredVia        AcquisitionType `json:"acquired_via"`
}

// Name returns the display name of the player
func (p Player) Name() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

// Age returns the player's age during the given season
func (p Player) Age(season int) int {
	return season - p.BornYear
}
