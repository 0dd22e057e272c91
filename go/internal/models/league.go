package models

// Phase is the point of the league calendar.
type Phase int

const (
	PhaseExpansionDraft     Phase = -2
	PhaseFantasyDraft       Phase = -1
	PhasePreseason          Phase = 0
	PhaseRegularSeason      Phase = 1
	PhaseAfterTradeDeadline Phase = 2
	PhasePlayoffs           Phase = 3
	PhaseDraftLottery       Phase = 4
	PhaseDraft              Phase = 5
	PhaseAfterDraft         Phase = 6
	PhaseResignPlayers      Phase = 7
	PhaseFreeAgency         Phase = 8
)

var phaseNames = map[Phase]string{
	PhaseExpansionDraft:     "expansion draft",
	PhaseFantasyDraft:       "fantasy draft",
	PhasePreseason:          "preseason",
	PhaseRegularSeason:      "regular season",
	PhaseAfterTradeDeadline: "after trade deadline",
	PhasePlayoffs:           "playoffs",
	PhaseDraftLottery:       "draft lottery",
	PhaseDraft:              "draft",
	PhaseAfterDraft:         "after draft",
	PhaseResignPlayers:      "re-sign players",
	PhaseFreeAgency:         "free agency",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// LeagueContext carries the league-wide state every trade operation reads.
// It replaces ambient globals and is passed explicitly.
type LeagueContext struct {
	Season         int   `json:"season"`
	Phase          Phase `json:"phase"`
	NumGames       int   `json:"num_games"`
	NumTeams       int   `json:"num_teams"`
	NumDraftRounds int   `json:"num_draft_rounds"`
	SalaryCap      int   `json:"salary_cap"` // thousands
	MinContract    int   `json:"min_contract"`
	MaxContract    int   `json:"max_contract"`
	UserTID        int   `json:"user_tid"`
	// DaysLeft is the number of days left in free agency.
	DaysLeft int `json:"days_left"`
}

// IsUserTeam reports whether tid is controlled by the human player.
func (lc LeagueContext) IsUserTeam(tid int) bool {
	return tid == lc.UserTID
}

// TradesBlocked reports whether the calendar forbids trades: from the
// trade deadline through the end of the playoffs.
func (lc LeagueContext) TradesBlocked() bool {
	return lc.Phase >= PhaseAfterTradeDeadline && lc.Phase <= PhasePlayoffs
}

// InFreeAgencyWindow is true while players are being re-signed or signed.
func (lc LeagueContext) InFreeAgencyWindow() bool {
	return lc.Phase >= PhaseResignPlayers && lc.Phase <= PhaseFreeAgency
}

// ExpiringContractsLocked is true once the market for expiring deals has
// closed: after the trade deadline and through free agency.
func (lc LeagueContext) ExpiringContractsLocked() bool {
	return lc.Phase >= PhaseAfterTradeDeadline && lc.Phase <= PhaseFreeAgency
}

// MiddleSlot is the draft slot future picks regress toward.
func (lc LeagueContext) MiddleSlot() int {
	if lc.NumTeams <= 1 {
		return 1
	}
	return lc.NumTeams / 2
}
