package models

import "fmt"

// Strategy is the front office plan of an AI team.
type Strategy string

const (
	StrategyContending Strategy = "contending"
	StrategyRebuilding Strategy = "rebuilding"
)

// TeamSeason is a team's record in one season
type TeamSeason struct {
	TID    int `json:"tid"`
	Season int `json:"season"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
}

// GP returns games played.
func (ts TeamSeason) GP() int {
	return ts.Won + ts.Lost
}

// Team represents a franchise in the league
type Team struct {
	TID      int          `json:"tid"`
	Region   string       `json:"region"`
	Name     string       `json:"name"`
	Abbrev   string       `json:"abbrev"`
	Strategy Strategy     `json:"strategy"`
	Seasons  []TeamSeason `json:"seasons,omitempty"`
}

// FullName returns "Region Name", e.g. "Boston Whalers".
func (t Team) FullName() string {
	return fmt.Sprintf("%s %s", t.Region, t.Name)
}

// Season returns the team's record for a season, if one exists.
func (t Team) Season(season int) (TeamSeason, bool) {
	for _, ts := range t.Seasons {
		if ts.Season == season {
			return ts, true
		}
	}
	return TeamSeason{}, false
}

// TeamContext is the slice of team state valuation reads. It is never
// mutated by the trade engine.
type TeamContext struct {
	TID      int      `json:"tid"`
	Strategy Strategy `json:"strategy"`
	Payroll  int      `json:"payroll"`
	// GamesPlayed is bounded to [0, numGames].
	GamesPlayed int `json:"games_played"`
	// GamesPlayedFraction is GamesPlayed / numGames, 0 when numGames is 0.
	GamesPlayedFraction float64 `json:"games_played_fraction"`
	CapSpace            int     `json:"cap_space"`
}
