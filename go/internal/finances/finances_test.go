package finances

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

func testLeague() models.LeagueContext {
	return models.LeagueContext{
		Season:         2025,
		Phase:          models.PhaseRegularSeason,
		NumGames:       82,
		NumTeams:       30,
		NumDraftRounds: 2,
		SalaryCap:      90000,
		MinContract:    750,
		MaxContract:    30000,
	}
}

type stubPlayers struct {
	players []models.Player
	err     error
}

func (s stubPlayers) ListPlayersByTeam(_ context.Context, tid int) ([]models.Player, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Player
	for _, p := range s.players {
		if p.TID == tid {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestPayroll(t *testing.T) {
	calc := NewCalculator(stubPlayers{players: []models.Player{
		{PID: 1, TID: 3, Contract: models.Contract{Amount: 12000}},
		{PID: 2, TID: 3, Contract: models.Contract{Amount: 800}},
		{PID: 3, TID: 4, Contract: models.Contract{Amount: 5000}},
	}})

	payroll, err := calc.Payroll(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 12800, payroll)

	empty, err := calc.Payroll(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)
}

func TestPayroll_RepositoryError(t *testing.T) {
	calc := NewCalculator(stubPlayers{err: errors.New("boom")})
	_, err := calc.Payroll(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGenContract(t *testing.T) {
	lc := testLeague()

	tests := []struct {
		name       string
		value      float64
		noLimit    bool
		wantAmount int
	}{
		{name: "bench-player-floored-at-minimum", value: 30, wantAmount: 750},
		{name: "rotation-player", value: 60, wantAmount: 14250},
		{name: "star-capped-at-maximum", value: 95, wantAmount: 30000},
		{name: "star-without-limit", value: 95, noLimit: true, wantAmount: 48050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Player{Value: tt.value, Ratings: models.Ratings{Ovr: 60, Pot: 60}}
			c := GenContract(lc, p, ContractOptions{NoLimit: tt.noLimit})
			assert.Equal(t, tt.wantAmount, c.Amount)
			assert.Zero(t, c.Amount%50)
		})
	}
}

func TestGenContract_Expiration(t *testing.T) {
	lc := testLeague()

	low := GenContract(lc, models.Player{Value: 40, Ratings: models.Ratings{Ovr: 35, Pot: 38}}, ContractOptions{})
	assert.Equal(t, 2025, low.Exp)

	maxed := GenContract(lc, models.Player{Value: 70, Ratings: models.Ratings{Ovr: 70, Pot: 70}}, ContractOptions{})
	assert.Equal(t, 2029, maxed.Exp)

	lc.Phase = models.PhaseDraft
	offseason := GenContract(lc, models.Player{Value: 70, Ratings: models.Ratings{Ovr: 70, Pot: 70}}, ContractOptions{})
	assert.Equal(t, 2030, offseason.Exp)
}

func TestContractSeasonsRemaining(t *testing.T) {
	lc := testLeague()

	assert.InDelta(t, 1.5, ContractSeasonsRemaining(lc, 2026, 41), 1e-9)
	assert.InDelta(t, 0.0, ContractSeasonsRemaining(lc, 2025, 0), 1e-9)
	assert.InDelta(t, 3.0, ContractSeasonsRemaining(lc, 2027, 200), 1e-9)

	lc.NumGames = 0
	assert.InDelta(t, 1.0, ContractSeasonsRemaining(lc, 2026, 10), 1e-9)
}

func TestRookieSalaries(t *testing.T) {
	lc := testLeague()

	salaries := RookieSalaries(lc)
	require.Len(t, salaries, 60)
	assert.Equal(t, 5000, salaries[0])
	for i := 1; i < len(salaries); i++ {
		assert.LessOrEqual(t, salaries[i], salaries[i-1])
	}

	lc.NumTeams = 40
	lc.NumDraftRounds = 3
	big := RookieSalaries(lc)
	require.Len(t, big, 120)
	assert.Equal(t, 750, big[119])
}

func TestRookieContract(t *testing.T) {
	lc := testLeague()

	first := RookieContract(lc, 0, 1, 2026)
	assert.Equal(t, 5000, first.Amount)
	assert.Equal(t, 2029, first.Exp)

	second := RookieContract(lc, 45, 2, 2026)
	assert.Equal(t, 750, second.Amount)
	assert.Equal(t, 2028, second.Exp)

	clamped := RookieContract(lc, 500, 2, 2026)
	assert.Equal(t, 750, clamped.Amount)
}
