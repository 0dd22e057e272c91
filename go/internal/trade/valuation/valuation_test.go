package valuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/finances"
	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
	"github.com/mcdev12/tradeengine/go/internal/trade/picks"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
)

const (
	userTID       = 0
	contenderTID  = 1
	rebuildingTID = 2
)

func testLeague() models.LeagueContext {
	return models.LeagueContext{
		Season:         2025,
		Phase:          models.PhaseRegularSeason,
		NumGames:       82,
		NumTeams:       4,
		NumDraftRounds: 2,
		SalaryCap:      90000,
		MinContract:    750,
		MaxContract:    30000,
		UserTID:        userTID,
		DaysLeft:       30,
	}
}

func player(pid, tid int, value float64, bornYear int) models.Player {
	return models.Player{
		PID:               pid,
		TID:               tid,
		FirstName:         "Player",
		LastName:          "Test",
		BornYear:          bornYear,
		DraftYear:         bornYear + 19,
		Value:             value,
		ValueWithContract: value,
		Ratings:           models.Ratings{Ovr: int(value), Pot: int(value)},
		Contract:          models.Contract{Amount: 5000, Exp: 2026},
	}
}

type fixture struct {
	store    *store.MemoryStore
	valuator *Valuator
	lc       models.LeagueContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	lc := testLeague()
	s.SetLeague(lc)

	for tid, strategy := range map[int]models.Strategy{
		userTID:       models.StrategyContending,
		contenderTID:  models.StrategyContending,
		rebuildingTID: models.StrategyRebuilding,
		3:             models.StrategyContending,
	} {
		s.AddTeam(models.Team{
			TID:      tid,
			Region:   "City",
			Name:     "Team",
			Abbrev:   []string{"USR", "CON", "REB", "OTH"}[tid],
			Strategy: strategy,
			Seasons:  []models.TeamSeason{{TID: tid, Season: 2025, Won: 10 + tid, Lost: 10}},
		})
	}

	cfg := tuning.Default()
	fin := finances.NewCalculator(s)
	pv := picks.NewValuator(s, cfg.Picks, nil)
	return &fixture{
		store:    s,
		valuator: NewValuator(s, fin, pv, cfg),
		lc:       lc,
	}
}

func (f *fixture) valueChange(t *testing.T, tid int, add, remove AssetRefs) float64 {
	t.Helper()
	dv, err := f.valuator.ValueChange(context.Background(), f.lc, tid, add, remove, nil)
	require.NoError(t, err)
	return dv
}

func TestValueChange_NoOp(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0.0, f.valueChange(t, contenderTID, AssetRefs{}, AssetRefs{}))
}

func TestValueChange_TooManyPicksRemoved(t *testing.T) {
	f := newFixture(t)
	dv := f.valueChange(t, contenderTID, AssetRefs{}, AssetRefs{DPIDs: []int{1, 2, 3}})
	assert.Equal(t, -1.0, dv)
}

func TestValueChange_ReceivingBetterPlayerIsWorthMore(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(10, 3, 70, 2000))
	f.store.AddPlayer(player(11, 3, 55, 2000))

	good := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{10}}, AssetRefs{})
	meh := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{11}}, AssetRefs{})

	assert.Greater(t, good, meh)
	assert.Greater(t, good, 0.0)
}

func TestValueChange_GivingAwayIsNegative(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(20, contenderTID, 65, 1998))

	dv := f.valueChange(t, contenderTID, AssetRefs{}, AssetRefs{PIDs: []int{20}})
	assert.Less(t, dv, 0.0)
}

func TestValueChange_FudgeFactor(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(30, userTID, 60, 1998))
	f.store.AddPlayer(player(31, contenderTID, 60, 1998))

	user := f.valueChange(t, userTID, AssetRefs{}, AssetRefs{PIDs: []int{30}})
	ai := f.valueChange(t, contenderTID, AssetRefs{}, AssetRefs{PIDs: []int{31}})

	assert.Less(t, ai, user)
}

func TestValueChange_RebuildingPrefersYouth(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(40, 3, 60, 2006)) // 19
	f.store.AddPlayer(player(41, 3, 60, 1990)) // 35

	young := f.valueChange(t, rebuildingTID, AssetRefs{PIDs: []int{40}}, AssetRefs{})
	old := f.valueChange(t, rebuildingTID, AssetRefs{PIDs: []int{41}}, AssetRefs{})
	assert.Greater(t, young, old)

	youngContender := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{40}}, AssetRefs{})
	oldContender := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{41}}, AssetRefs{})
	assert.InDelta(t, youngContender, oldContender, 1e-9)
}

func TestValueChange_InjuryDiscount(t *testing.T) {
	f := newFixture(t)
	healthy := player(50, 3, 62, 1999)
	injured := player(51, 3, 62, 1999)
	injured.Injury = models.Injury{Type: "Torn ACL", GamesRemaining: 80}
	f.store.AddPlayer(healthy)
	f.store.AddPlayer(injured)

	h := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{50}}, AssetRefs{})
	i := f.valueChange(t, contenderTID, AssetRefs{PIDs: []int{51}}, AssetRefs{})
	assert.Greater(t, h, i)
}

func TestValueChange_Ownership(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(60, 3, 60, 1999))
	f.store.AddPlayer(player(61, contenderTID, 60, 1999))
	f.store.AddDraftPick(models.DraftPick{DPID: 7, TID: 3, Abbrev: "OTH", OriginalTID: 3, OriginalAbbrev: "OTH", Round: 1, Season: 2025})

	tests := []struct {
		name   string
		add    AssetRefs
		remove AssetRefs
	}{
		{name: "remove-player-not-on-team", remove: AssetRefs{PIDs: []int{60}}},
		{name: "receive-own-player", add: AssetRefs{PIDs: []int{61}}},
		{name: "receive-missing-player", add: AssetRefs{PIDs: []int{999}}},
		{name: "remove-pick-owned-elsewhere", remove: AssetRefs{DPIDs: []int{7}}},
		{name: "receive-missing-pick", add: AssetRefs{DPIDs: []int{404}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.valuator.ValueChange(context.Background(), f.lc, contenderTID, tt.add, tt.remove, nil)
			assert.ErrorIs(t, err, ErrAssetNotOwned)
		})
	}
}

func TestValueChange_DraftPicks(t *testing.T) {
	f := newFixture(t)
	f.store.AddDraftPick(models.DraftPick{DPID: 1, TID: 3, Abbrev: "OTH", OriginalTID: 3, OriginalAbbrev: "OTH", Round: 1, Season: 2025})
	f.store.AddDraftPick(models.DraftPick{DPID: 2, TID: 3, Abbrev: "OTH", OriginalTID: 3, OriginalAbbrev: "OTH", Round: 2, Season: 2025})

	pc, err := f.valuator.PickContext(context.Background(), f.lc)
	require.NoError(t, err)

	first, err := f.valuator.ValueChange(context.Background(), f.lc, contenderTID, AssetRefs{DPIDs: []int{1}}, AssetRefs{}, pc)
	require.NoError(t, err)
	second, err := f.valuator.ValueChange(context.Background(), f.lc, contenderTID, AssetRefs{DPIDs: []int{2}}, AssetRefs{}, pc)
	require.NoError(t, err)

	assert.Greater(t, first, second)
	assert.Greater(t, first, 0.0)
}

func TestEvaluate_CapAversion(t *testing.T) {
	f := newFixture(t)
	expensive := player(70, 3, 60, 1999)
	expensive.Contract = models.Contract{Amount: 20000, Exp: 2027}
	f.store.AddPlayer(expensive)

	ctx := context.Background()
	regular, err := f.valuator.Evaluate(ctx, f.lc, contenderTID, AssetRefs{PIDs: []int{70}}, AssetRefs{}, nil)
	require.NoError(t, err)
	assert.Zero(t, regular.CapPenalty)

	fa := f.lc
	fa.Phase = models.PhaseFreeAgency
	fa.DaysLeft = 30
	inFA, err := f.valuator.Evaluate(ctx, fa, contenderTID, AssetRefs{PIDs: []int{70}}, AssetRefs{}, nil)
	require.NoError(t, err)
	// (0.2 + 0.8) * 20 million this season
	assert.InDelta(t, 20.0, inFA.CapPenalty, 1e-9)
	assert.Less(t, inFA.DV, regular.DV)
}

func TestEvaluate_QuantityPenalty(t *testing.T) {
	f := newFixture(t)
	f.store.AddPlayer(player(80, 3, 55, 1999))
	f.store.AddPlayer(player(81, 3, 55, 1999))
	f.store.AddPlayer(player(82, contenderTID, 50, 1999))

	b, err := f.valuator.Evaluate(context.Background(), f.lc, contenderTID,
		AssetRefs{PIDs: []int{80, 81}}, AssetRefs{PIDs: []int{82}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.QuantityPenalty)
}

func TestApplySkillBonuses(t *testing.T) {
	cfg := tuning.Default().Valuation

	shooter := func(id int, value float64) Asset {
		return Asset{ID: id, Value: value, Skills: []models.Skill{models.SkillThreePoint}}
	}

	tests := []struct {
		name     string
		roster   []Asset
		asset    Asset
		expected float64
	}{
		{name: "empty-roster-full-bonus", asset: shooter(1, 60), expected: 66},
		{
			name:     "near-target-smaller-bonus",
			roster:   []Asset{shooter(2, 50), shooter(3, 50), shooter(4, 50), shooter(5, 50)},
			asset:    shooter(1, 60),
			expected: 63,
		},
		{
			name:     "at-target-no-bonus",
			roster:   []Asset{shooter(2, 50), shooter(3, 50), shooter(4, 50), shooter(5, 50), shooter(6, 50), shooter(7, 50)},
			asset:    shooter(1, 60),
			expected: 60,
		},
		{
			name:     "weak-roster-players-ignored",
			roster:   []Asset{shooter(2, 40), shooter(3, 40), shooter(4, 40), shooter(5, 40), shooter(6, 40), shooter(7, 40)},
			asset:    shooter(1, 60),
			expected: 66,
		},
		{name: "below-threshold-asset", asset: shooter(1, 40), expected: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := []Asset{tt.asset}
			applySkillBonuses(cfg, assets, tt.roster)
			assert.InDelta(t, tt.expected, assets[0].Value, 1e-9)
		})
	}
}

func TestSumValues_SuperlinearAggregation(t *testing.T) {
	cfg := tuning.Default().Valuation
	tc := models.TeamContext{Strategy: models.StrategyContending}
	sr := func(int) float64 { return 0 }

	star := []Asset{{Value: 75}}
	pair := []Asset{{Value: 60}, {Value: 60}}

	// both are 30 points above baseline in total
	assert.Greater(t, sumValues(cfg, tc, star, false, sr), sumValues(cfg, tc, pair, false, sr))
}
