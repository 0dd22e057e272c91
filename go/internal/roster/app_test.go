package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
)

func TestSortSlots(t *testing.T) {
	var players []models.Player
	for pid, value := range []float64{40, 70, 55, 62, 48, 66, 51} {
		players = append(players, models.Player{PID: pid, Value: value})
	}
	players = append(players, models.Player{PID: 99, Value: 90, Injury: models.Injury{Type: "Sprained Ankle", GamesRemaining: 3}})

	slots := SortSlots(players)
	require.Len(t, slots, 8)

	var order []int
	for i, s := range slots {
		assert.Equal(t, i, s.Order)
		order = append(order, s.PID)
	}
	assert.Equal(t, []int{1, 5, 3, 2, 6, 4, 0, 99}, order)

	for _, s := range slots[:NumStarters] {
		assert.Equal(t, models.RosterPositionStarter, s.Position)
	}
	assert.Equal(t, models.RosterPositionBench, slots[5].Position)
	assert.Equal(t, models.RosterPositionIR, slots[7].Position)
}

func TestSortSlots_ShortRoster(t *testing.T) {
	slots := SortSlots([]models.Player{{PID: 1, Value: 50}, {PID: 2, Value: 60}})
	require.Len(t, slots, 2)
	assert.Equal(t, 2, slots[0].PID)
	assert.Equal(t, models.RosterPositionStarter, slots[1].Position)
}

func TestAutoSort(t *testing.T) {
	s := store.NewMemoryStore()
	for pid := 1; pid <= 7; pid++ {
		s.AddPlayer(models.Player{PID: pid, TID: 3, Value: float64(40 + pid), RosterPosition: models.RosterPositionBench})
	}
	app := NewApp(s)
	ctx := context.Background()

	slots, err := app.AutoSort(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, slots[0].PID)

	starters, err := app.GetStartingRosterPlayers(ctx, 3)
	require.NoError(t, err)
	require.Len(t, starters, NumStarters)
	assert.Equal(t, 7, starters[0].PID)

	bench, err := app.GetBenchRosterPlayers(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, bench, 2)
}

type failingRepo struct{}

func (failingRepo) ListPlayersByTeam(context.Context, int) ([]models.Player, error) {
	return nil, errors.New("db down")
}

func (failingRepo) SaveRosterOrder(context.Context, []models.RosterSlot) error {
	return nil
}

func TestAutoSort_RepositoryError(t *testing.T) {
	_, err := NewApp(failingRepo{}).AutoSort(context.Background(), 1)
	assert.ErrorContains(t, err, "db down")
}

func TestValidateRosterPosition(t *testing.T) {
	assert.NoError(t, validateRosterPosition(models.RosterPositionIR))
	assert.Error(t, validateRosterPosition(models.RosterPosition("TAXI")))
}
