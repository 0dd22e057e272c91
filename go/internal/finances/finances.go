package finances

import (
	"context"
	"fmt"
	"math"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

// Base scale assumes the default league limits; it is stretched to the
// league's actual min/max contract.
const (
	baseMinContract = 750
	baseMaxContract = 30000
	contractFactor  = 3.3
)

// baseRookieScale is the salary by draft slot for a 30 team, 2 round draft.
var baseRookieScale = []int{
	5000, 4500, 4000, 3500, 3000, 2750, 2500, 2250, 2000, 1900,
	1800, 1700, 1600, 1500, 1400, 1300, 1200, 1100, 1000, 1000,
	1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000,
	750, 750, 750, 750, 750, 750, 750, 750, 750, 750,
	750, 750, 750, 750, 750, 750, 750, 750, 750, 750,
	750, 750, 750, 750, 750, 750, 750, 750, 750, 750,
}

// PlayerRepository defines what payroll needs from the player store
type PlayerRepository interface {
	ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error)
}

// ContractOptions mirror the knobs of contract generation.
type ContractOptions struct {
	RandomizeExp    bool
	RandomizeAmount bool
	NoLimit         bool
}

// Calculator is the default implementation of the finance collaborators
// consumed by trade valuation.
type Calculator struct {
	players PlayerRepository
}

// NewCalculator creates a Calculator reading payroll from the player store
func NewCalculator(players PlayerRepository) *Calculator {
	return &Calculator{players: players}
}

// Payroll returns the sum of all contracts on a team, in thousands.
func (c *Calculator) Payroll(ctx context.Context, tid int) (int, error) {
	players, err := c.players.ListPlayersByTeam(ctx, tid)
	if err != nil {
		return 0, fmt.Errorf("failed to list players for payroll: %w", err)
	}
	total := 0
	for _, p := range players {
		total += p.Contract.Amount
	}
	return total, nil
}

// GenContract returns what the player would be worth on the open market.
// Randomization flags are accepted for parity with contract negotiation
// but trade valuation always passes them false.
func (c *Calculator) GenContract(lc models.LeagueContext, p models.Player, opts ContractOptions) models.Contract {
	return GenContract(lc, p, opts)
}

// ContractSeasonsRemaining delegates to the package function.
func (c *Calculator) ContractSeasonsRemaining(lc models.LeagueContext, exp, gamesRemaining int) float64 {
	return ContractSeasonsRemaining(lc, exp, gamesRemaining)
}

// RookieSalaries delegates to the package function.
func (c *Calculator) RookieSalaries(lc models.LeagueContext) []int {
	return RookieSalaries(lc)
}

// GenContract computes the market contract of a player from value.
func GenContract(lc models.LeagueContext, p models.Player, opts ContractOptions) models.Contract {
	minC, maxC := limits(lc)

	amount := ((p.Value-1)/100-0.45)*contractFactor*float64(maxC-minC) + float64(minC)
	amount = 50 * math.Round(amount/50)
	if amount < float64(minC) {
		amount = float64(minC)
	}
	if !opts.NoLimit && amount > float64(maxC) {
		amount = float64(maxC)
	}

	years := contractYears(p.Ratings)
	exp := lc.Season + years - 1
	if lc.Phase > models.PhasePlayoffs {
		exp++
	}

	return models.Contract{Amount: int(amount), Exp: exp}
}

func contractYears(r models.Ratings) int {
	switch {
	case r.Pot < 40:
		return 1
	case r.Pot < 45:
		return 2
	case r.Pot < 50:
		return 3
	}
	years := 5 - int(math.Round(float64(r.Pot-r.Ovr)/4))
	if years < 2 {
		years = 2
	}
	if years > 5 {
		years = 5
	}
	return years
}

// ContractSeasonsRemaining is the fractional number of seasons left on a
// deal expiring after season exp, given games left this season.
func ContractSeasonsRemaining(lc models.LeagueContext, exp, gamesRemaining int) float64 {
	frac := 0.0
	if lc.NumGames > 0 {
		frac = float64(gamesRemaining) / float64(lc.NumGames)
	}
	frac = math.Max(0, math.Min(1, frac))
	return float64(exp-lc.Season) + frac
}

// RookieSalaries returns rookie salaries indexed by slot-1 + numTeams*(round-1).
func RookieSalaries(lc models.LeagueContext) []int {
	minC, maxC := limits(lc)
	scale := float64(maxC) / baseMaxContract

	n := lc.NumTeams * lc.NumDraftRounds
	if n < len(baseRookieScale) {
		n = len(baseRookieScale)
	}

	out := make([]int, n)
	for i := range out {
		base := baseMinContract
		if i < len(baseRookieScale) {
			base = baseRookieScale[i]
		}
		v := int(50 * math.Round(float64(base)*scale/50))
		if v < minC {
			v = minC
		}
		out[i] = v
	}
	return out
}

// RookieContract builds the synthetic contract of a draft pick slot.
func RookieContract(lc models.LeagueContext, idx, round, season int) models.Contract {
	return RookieContractFromScale(RookieSalaries(lc), idx, round, season)
}

// RookieContractFromScale is RookieContract over a precomputed scale.
func RookieContractFromScale(salaries []int, idx, round, season int) models.Contract {
	amount := 0
	if len(salaries) > 0 {
		if idx < 0 {
			idx = 0
		}
		if idx >= len(salaries) {
			idx = len(salaries) - 1
		}
		amount = salaries[idx]
	}
	// first rounders sign for one more season than second rounders
	years := 2 + (2 - round)
	if years < 1 {
		years = 1
	}
	return models.Contract{Amount: amount, Exp: season + years}
}

func limits(lc models.LeagueContext) (int, int) {
	minC, maxC := lc.MinContract, lc.MaxContract
	if minC <= 0 {
		minC = baseMinContract
	}
	if maxC <= minC {
		maxC = baseMaxContract
	}
	return minC, maxC
}
