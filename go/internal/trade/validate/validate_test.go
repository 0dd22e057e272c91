package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/finances"
	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
)

func testLeague() models.LeagueContext {
	return models.LeagueContext{
		Season:    2025,
		Phase:     models.PhaseRegularSeason,
		NumGames:  82,
		NumTeams:  2,
		SalaryCap: 90000,
		UserTID:   0,
	}
}

func contracted(pid, tid, amount, exp int) models.Player {
	return models.Player{
		PID:       pid,
		TID:       tid,
		FirstName: "Player",
		LastName:  string(rune('A' + pid)),
		BornYear:  1998,
		Value:     55,
		Contract:  models.Contract{Amount: amount, Exp: exp},
	}
}

func newValidator(t *testing.T) (*Validator, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	s.SetLeague(testLeague())
	s.AddTeam(models.Team{TID: 0, Region: "Boston", Name: "Whalers", Abbrev: "BOS"})
	s.AddTeam(models.Team{TID: 1, Region: "Denver", Name: "Peaks", Abbrev: "DEN"})
	return NewValidator(s, finances.NewCalculator(s)), s
}

func TestIsUntradable(t *testing.T) {
	tests := []struct {
		name     string
		phase    models.Phase
		exp      int
		games    int
		locked   bool
		contains string
	}{
		{name: "expiring-after-deadline", phase: models.PhaseAfterTradeDeadline, exp: 2025, locked: true, contains: "expiring"},
		{name: "expiring-during-free-agency", phase: models.PhaseFreeAgency, exp: 2025, locked: true, contains: "expiring"},
		{name: "next-season-after-deadline", phase: models.PhaseAfterTradeDeadline, exp: 2026},
		{name: "expiring-regular-season", phase: models.PhaseRegularSeason, exp: 2025},
		{name: "recently-acquired", phase: models.PhaseRegularSeason, exp: 2027, games: 4, locked: true, contains: "4 more games"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := testLeague()
			lc.Phase = tt.phase
			p := contracted(1, 0, 1000, tt.exp)
			p.GamesUntilTradable = tt.games

			locked, reason := IsUntradable(lc, p)
			assert.Equal(t, tt.locked, locked)
			if tt.locked {
				assert.Contains(t, reason, tt.contains)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestFilterUntradable(t *testing.T) {
	lc := testLeague()
	lc.Phase = models.PhasePlayoffs
	players := []models.Player{contracted(1, 0, 1000, 2025), contracted(2, 0, 1000, 2026)}

	kept := FilterUntradable(lc, players)
	require.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0].PID)
}

func TestUpdatePlayers(t *testing.T) {
	v, s := newValidator(t)
	s.AddPlayer(contracted(1, 0, 1000, 2026))
	locked := contracted(2, 0, 1000, 2026)
	locked.GamesUntilTradable = 3
	s.AddPlayer(locked)
	s.AddPlayer(contracted(3, 1, 1000, 2026))
	s.AddDraftPick(models.DraftPick{DPID: 10, TID: 1, OriginalTID: 1, Round: 1, Season: 2025})

	proposal := models.TradeProposal{Teams: [2]models.TradeSide{
		{TID: 0, PIDs: []int{1, 1, 2, 3}, DPIDs: []int{10}},
		{TID: 1, PIDs: []int{3, 99}, DPIDs: []int{10}},
	}}

	updated, changed, err := v.UpdatePlayers(context.Background(), testLeague(), proposal)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1}, updated.Teams[0].PIDs)
	assert.Empty(t, updated.Teams[0].DPIDs)
	assert.Equal(t, []int{3}, updated.Teams[1].PIDs)
	assert.Equal(t, []int{10}, updated.Teams[1].DPIDs)

	// input untouched
	assert.Equal(t, []int{1, 1, 2, 3}, proposal.Teams[0].PIDs)

	again, changed, err := v.UpdatePlayers(context.Background(), testLeague(), updated)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, updated, again)
}

func TestSummary_CapWarning(t *testing.T) {
	v, s := newValidator(t)
	s.AddPlayer(contracted(1, 0, 88000, 2027))
	s.AddPlayer(contracted(2, 0, 5000, 2027))
	s.AddPlayer(contracted(3, 1, 10000, 2027))
	s.AddDraftPick(models.DraftPick{DPID: 10, TID: 1, OriginalTID: 1, OriginalAbbrev: "DEN", Round: 2, Season: 2026})

	proposal := models.TradeProposal{Teams: [2]models.TradeSide{
		{TID: 0, PIDs: []int{2}, DPIDs: []int{}},
		{TID: 1, PIDs: []int{3}, DPIDs: []int{10}},
	}}

	summary, err := v.Summary(context.Background(), testLeague(), proposal)
	require.NoError(t, err)

	assert.Equal(t, 5000, summary.Teams[0].Total)
	assert.Equal(t, 10000, summary.Teams[1].Total)
	assert.Equal(t, "98.00", summary.Teams[0].PayrollAfterTrade)
	assert.Equal(t, "5.00", summary.Teams[1].PayrollAfterTrade)
	assert.True(t, summary.Teams[0].OverCap)
	require.NotNil(t, summary.Teams[0].Ratio)
	assert.Equal(t, 200, *summary.Teams[0].Ratio)
	require.Len(t, summary.Teams[1].Picks, 1)
	assert.Equal(t, "2026 2nd round pick (DEN)", summary.Teams[1].Picks[0].Desc)

	assert.True(t, summary.HasWarning())
	assert.Contains(t, summary.Warning, "Boston Whalers")
	assert.Contains(t, summary.Warning, "200%")
}

func TestSummary_NoWarning(t *testing.T) {
	tests := []struct {
		name     string
		sent     int
		received int
		base     int
	}{
		{name: "under-cap", sent: 5000, received: 20000, base: 1000},
		{name: "over-cap-within-ratio", sent: 10000, received: 12500, base: 85000},
		{name: "over-cap-shedding-salary", sent: 20000, received: 5000, base: 95000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, s := newValidator(t)
			s.AddPlayer(contracted(1, 0, tt.base, 2027))
			s.AddPlayer(contracted(2, 0, tt.sent, 2027))
			s.AddPlayer(contracted(3, 1, tt.received, 2027))

			summary, err := v.Summary(context.Background(), testLeague(), models.TradeProposal{Teams: [2]models.TradeSide{
				{TID: 0, PIDs: []int{2}},
				{TID: 1, PIDs: []int{3}},
			}})
			require.NoError(t, err)
			assert.False(t, summary.HasWarning(), summary.Warning)
		})
	}
}

func TestSummary_NothingSentOverCap(t *testing.T) {
	v, s := newValidator(t)
	s.AddPlayer(contracted(1, 0, 95000, 2027))
	s.AddPlayer(contracted(3, 1, 4000, 2027))

	summary, err := v.Summary(context.Background(), testLeague(), models.TradeProposal{Teams: [2]models.TradeSide{
		{TID: 0},
		{TID: 1, PIDs: []int{3}},
	}})
	require.NoError(t, err)
	assert.Nil(t, summary.Teams[0].Ratio)
	assert.Contains(t, summary.Warning, "infinite")
}

func TestSummary_MissingTeam(t *testing.T) {
	v, _ := newValidator(t)

	_, err := v.Summary(context.Background(), testLeague(), models.NewTradeProposal(0, 7))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSalaryRatio(t *testing.T) {
	assert.Equal(t, 100, *salaryRatio(0, 0))
	assert.Equal(t, 125, *salaryRatio(12500, 10000))
	assert.Equal(t, 33, *salaryRatio(1000, 3000))
	assert.Nil(t, salaryRatio(1, 0))
}
