package roster

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

// NumStarters is how many healthy players start.
const NumStarters = 5

// RosterRepository defines what the app layer needs from the repository
type RosterRepository interface {
	ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error)
	SaveRosterOrder(ctx context.Context, slots []models.RosterSlot) error
}

// App handles roster business logic
type App struct {
	repo RosterRepository
}

// NewApp creates a new roster App
func NewApp(repo RosterRepository) *App {
	return &App{
		repo: repo,
	}
}

// AutoSort orders a team's roster by value and saves it. The best five
// healthy players start, other healthy players come off the bench and
// injured players go to IR.
func (a *App) AutoSort(ctx context.Context, tid int) ([]models.RosterSlot, error) {
	players, err := a.repo.ListPlayersByTeam(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for team %d: %w", tid, err)
	}

	slots := SortSlots(players)
	if err := a.repo.SaveRosterOrder(ctx, slots); err != nil {
		return nil, fmt.Errorf("failed to save roster order for team %d: %w", tid, err)
	}

	log.Info().Int("tid", tid).Int("players", len(slots)).Msg("auto sorted roster")
	return slots, nil
}

// GetStartingRosterPlayers returns the team's current starters in order.
func (a *App) GetStartingRosterPlayers(ctx context.Context, tid int) ([]models.Player, error) {
	return a.byPosition(ctx, tid, models.RosterPositionStarter)
}

// GetBenchRosterPlayers returns the team's current bench in order.
func (a *App) GetBenchRosterPlayers(ctx context.Context, tid int) ([]models.Player, error) {
	return a.byPosition(ctx, tid, models.RosterPositionBench)
}

func (a *App) byPosition(ctx context.Context, tid int, position models.RosterPosition) ([]models.Player, error) {
	if err := validateRosterPosition(position); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	players, err := a.repo.ListPlayersByTeam(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster players by team and position: %w", err)
	}
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p.RosterPosition == position {
			out = append(out, p)
		}
	}
	return out, nil
}

// SortSlots is the pure ordering behind AutoSort.
func SortSlots(players []models.Player) []models.RosterSlot {
	sorted := append([]models.Player(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := sorted[i].Injury.Healthy(), sorted[j].Injury.Healthy()
		if hi != hj {
			return hi
		}
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		return sorted[i].PID < sorted[j].PID
	})

	slots := make([]models.RosterSlot, len(sorted))
	starters := 0
	for i, p := range sorted {
		position := models.RosterPositionBench
		switch {
		case !p.Injury.Healthy():
			position = models.RosterPositionIR
		case starters < NumStarters:
			position = models.RosterPositionStarter
			starters++
		}
		slots[i] = models.RosterSlot{PID: p.PID, Order: i, Position: position}
	}
	return slots
}

func validateRosterPosition(position models.RosterPosition) error {
	switch position {
	case models.RosterPositionStarter, models.RosterPositionBench, models.RosterPositionIR:
		return nil
	default:
		return fmt.Errorf("invalid roster position: %s", position)
	}
}
