package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/finances"
	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade/picks"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
)

var (
	// ErrAssetNotOwned means a proposal asks a team to give up something
	// it does not own, or to receive something it already owns.
	ErrAssetNotOwned = errors.New("asset not owned by trading team")
	// ErrTeamNotFound is returned when the evaluating team does not exist.
	ErrTeamNotFound = errors.New("team not found")
)

// Repository defines what valuation needs from the store
type Repository interface {
	GetTeam(ctx context.Context, tid int) (*models.Team, error)
	ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error)
	GetPlayers(ctx context.Context, pids []int) ([]models.Player, error)
	GetDraftPicks(ctx context.Context, dpids []int) ([]models.DraftPick, error)
}

// Finance defines the contract collaborators valuation consumes
type Finance interface {
	Payroll(ctx context.Context, tid int) (int, error)
	GenContract(lc models.LeagueContext, p models.Player, opts finances.ContractOptions) models.Contract
	ContractSeasonsRemaining(lc models.LeagueContext, exp, gamesRemaining int) float64
	RookieSalaries(lc models.LeagueContext) []int
}

// PickEstimator defines what valuation needs from pick valuation
type PickEstimator interface {
	EstimateAllPickValues(ctx context.Context, lc models.LeagueContext) (*picks.Table, error)
	ProjectDraftOrder(ctx context.Context, lc models.LeagueContext) (map[int]int, error)
}

// PickContext bundles the pick table and projected draft order so a
// negotiation can value many candidate trades without re-reading them.
type PickContext struct {
	Table *picks.Table
	Order map[int]int
}

// Breakdown explains a decision value.
type Breakdown struct {
	AddValue        float64 `json:"add_value"`
	RemoveValue     float64 `json:"remove_value"`
	SalaryDelta     float64 `json:"salary_delta"`
	CapPenalty      float64 `json:"cap_penalty"`
	QuantityPenalty float64 `json:"quantity_penalty"`
	DV              float64 `json:"dv"`
}

// Valuator computes how much a team likes a hypothetical trade.
type Valuator struct {
	repo    Repository
	finance Finance
	picks   PickEstimator
	cfg     tuning.Valuation
	pickCfg tuning.Picks
}

// NewValuator creates a new Valuator
func NewValuator(repo Repository, finance Finance, pickEstimator PickEstimator, cfg tuning.Config) *Valuator {
	return &Valuator{
		repo:    repo,
		finance: finance,
		picks:   pickEstimator,
		cfg:     cfg.Valuation,
		pickCfg: cfg.Picks,
	}
}

// PickContext loads the pick table and draft order for the league state.
func (v *Valuator) PickContext(ctx context.Context, lc models.LeagueContext) (*PickContext, error) {
	table, err := v.picks.EstimateAllPickValues(ctx, lc)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate pick values: %w", err)
	}
	order, err := v.picks.ProjectDraftOrder(ctx, lc)
	if err != nil {
		return nil, fmt.Errorf("failed to project draft order: %w", err)
	}
	return &PickContext{Table: table, Order: order}, nil
}

// TeamContext reads the team state valuation depends on.
func (v *Valuator) TeamContext(ctx context.Context, lc models.LeagueContext, tid int) (models.TeamContext, error) {
	team, err := v.repo.GetTeam(ctx, tid)
	if err != nil {
		return models.TeamContext{}, fmt.Errorf("failed to get team %d: %w", tid, err)
	}
	if team == nil {
		return models.TeamContext{}, fmt.Errorf("%w: %d", ErrTeamNotFound, tid)
	}

	payroll, err := v.finance.Payroll(ctx, tid)
	if err != nil {
		return models.TeamContext{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	cur, _ := team.Season(lc.Season)
	gp := cur.GP()
	if gp > lc.NumGames {
		gp = lc.NumGames
	}
	if gp < 0 {
		gp = 0
	}
	frac := 0.0
	if lc.NumGames > 0 {
		frac = float64(gp) / float64(lc.NumGames)
	}

	return models.TeamContext{
		TID:                 tid,
		Strategy:            team.Strategy,
		Payroll:             payroll,
		GamesPlayed:         gp,
		GamesPlayedFraction: frac,
		CapSpace:            lc.SalaryCap - payroll,
	}, nil
}

// ValueChange returns how much team tid gains by receiving add and giving
// up remove. Positive means the team wants the deal. pc may be nil, in
// which case it is loaded on demand.
func (v *Valuator) ValueChange(ctx context.Context, lc models.LeagueContext, tid int, add, remove AssetRefs, pc *PickContext) (float64, error) {
	b, err := v.Evaluate(ctx, lc, tid, add, remove, pc)
	if err != nil {
		return 0, err
	}
	return b.DV, nil
}

// Evaluate is ValueChange with the intermediate terms.
func (v *Valuator) Evaluate(ctx context.Context, lc models.LeagueContext, tid int, add, remove AssetRefs, pc *PickContext) (*Breakdown, error) {
	if len(remove.DPIDs) > v.cfg.MaxRemovedPicks {
		return &Breakdown{DV: -1}, nil
	}
	if add.Empty() && remove.Empty() {
		return &Breakdown{}, nil
	}

	tc, err := v.TeamContext(ctx, lc, tid)
	if err != nil {
		return nil, err
	}

	if pc == nil && (len(add.DPIDs) > 0 || len(remove.DPIDs) > 0) {
		pc, err = v.PickContext(ctx, lc)
		if err != nil {
			return nil, err
		}
	}

	roster, addAssets, removeAssets, err := v.materialize(ctx, lc, tid, add, remove, pc)
	if err != nil {
		return nil, err
	}

	b := v.evaluate(lc, tc, roster, addAssets, removeAssets)

	log.Debug().
		Int("tid", tid).
		Ints("add_pids", add.PIDs).
		Ints("add_dpids", add.DPIDs).
		Ints("remove_pids", remove.PIDs).
		Ints("remove_dpids", remove.DPIDs).
		Float64("add", b.AddValue).
		Float64("remove", b.RemoveValue).
		Float64("dv", b.DV).
		Msg("valued trade")

	return b, nil
}

func (v *Valuator) materialize(ctx context.Context, lc models.LeagueContext, tid int, add, remove AssetRefs, pc *PickContext) ([]Asset, []Asset, []Asset, error) {
	owned, err := v.repo.ListPlayersByTeam(ctx, tid)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list players for team %d: %w", tid, err)
	}

	fudge := 1.0
	if !lc.IsUserTeam(tid) {
		fudge = v.cfg.FudgeFactor
	}

	removing := make(map[int]bool, len(remove.PIDs))
	for _, pid := range remove.PIDs {
		removing[pid] = true
	}

	var roster, removeAssets []Asset
	for _, p := range owned {
		worth := v.finance.GenContract(lc, p, finances.ContractOptions{NoLimit: true})
		a := PlayerAsset(lc, p, worth, false)
		if removing[p.PID] {
			a.Value *= fudge
			removeAssets = append(removeAssets, a)
			delete(removing, p.PID)
			continue
		}
		roster = append(roster, a)
	}
	for pid := range removing {
		return nil, nil, nil, fmt.Errorf("%w: player %d is not on team %d", ErrAssetNotOwned, pid, tid)
	}

	var addAssets []Asset
	if len(add.PIDs) > 0 {
		incoming, err := v.repo.GetPlayers(ctx, add.PIDs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to get incoming players: %w", err)
		}
		if len(incoming) != len(add.PIDs) {
			return nil, nil, nil, fmt.Errorf("%w: %d of %d incoming players found", ErrAssetNotOwned, len(incoming), len(add.PIDs))
		}
		for _, p := range incoming {
			if p.TID == tid {
				return nil, nil, nil, fmt.Errorf("%w: player %d already on team %d", ErrAssetNotOwned, p.PID, tid)
			}
			worth := v.finance.GenContract(lc, p, finances.ContractOptions{NoLimit: true})
			addAssets = append(addAssets, PlayerAsset(lc, p, worth, true))
		}
	}

	pickAssets := func(dpids []int, wantOwner bool) ([]Asset, error) {
		if len(dpids) == 0 {
			return nil, nil
		}
		dps, err := v.repo.GetDraftPicks(ctx, dpids)
		if err != nil {
			return nil, fmt.Errorf("failed to get draft picks: %w", err)
		}
		if len(dps) != len(dpids) {
			return nil, fmt.Errorf("%w: %d of %d draft picks found", ErrAssetNotOwned, len(dps), len(dpids))
		}
		salaries := v.finance.RookieSalaries(lc)
		out := make([]Asset, 0, len(dps))
		for _, dp := range dps {
			if (dp.TID == tid) != wantOwner {
				return nil, fmt.Errorf("%w: draft pick %d (owner %d, team %d)", ErrAssetNotOwned, dp.DPID, dp.TID, tid)
			}
			value, idx := picks.EstimatePickValue(lc, v.pickCfg, dp, pc.Order, pc.Table)
			out = append(out, PickAsset(dp, value, finances.RookieContractFromScale(salaries, idx, dp.Round, dp.Season), v.cfg.PickAge))
		}
		return out, nil
	}

	addPicks, err := pickAssets(add.DPIDs, false)
	if err != nil {
		return nil, nil, nil, err
	}
	addAssets = append(addAssets, addPicks...)

	removePicks, err := pickAssets(remove.DPIDs, true)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range removePicks {
		removePicks[i].Value *= fudge
	}
	removeAssets = append(removeAssets, removePicks...)

	return roster, addAssets, removeAssets, nil
}

// evaluate is the pure core of valuation over materialized assets.
func (v *Valuator) evaluate(lc models.LeagueContext, tc models.TeamContext, roster, add, remove []Asset) *Breakdown {
	gamesRemaining := lc.NumGames - tc.GamesPlayed
	seasonsRemaining := func(exp int) float64 {
		return v.finance.ContractSeasonsRemaining(lc, exp, gamesRemaining)
	}

	add = cloneAssets(add)
	remove = cloneAssets(remove)
	applySkillBonuses(v.cfg, add, roster)
	applySkillBonuses(v.cfg, remove, roster)

	b := &Breakdown{
		AddValue:    sumValues(v.cfg, tc, add, true, seasonsRemaining),
		RemoveValue: sumValues(v.cfg, tc, remove, false, seasonsRemaining),
	}
	b.SalaryDelta = v.cfg.ContractFactor(tc.Strategy) *
		(sumContracts(remove, false, seasonsRemaining) - sumContracts(add, false, seasonsRemaining))

	dv := b.AddValue - b.RemoveValue + b.SalaryDelta

	if lc.InFreeAgencyWindow() && tc.Payroll+v.cfg.CapRoomThreshold < lc.SalaryCap {
		salaryAdded := sumContracts(add, true, seasonsRemaining) - sumContracts(remove, true, seasonsRemaining)
		if salaryAdded > 0 {
			days := math.Max(0, math.Min(float64(lc.DaysLeft), float64(v.cfg.FreeAgencyDays)))
			b.CapPenalty = (v.cfg.CapAversionBase + v.cfg.CapAversionSlope*days/float64(v.cfg.FreeAgencyDays)) * salaryAdded
			dv -= b.CapPenalty
		}
	}

	if len(add) > len(remove) {
		b.QuantityPenalty = v.cfg.QuantityPenalty * float64(len(add)-len(remove))
		dv -= b.QuantityPenalty
	}

	if math.IsNaN(dv) || math.IsInf(dv, 0) {
		log.Warn().Int("tid", tc.TID).Msg("non-finite trade value, treating as zero")
		dv = 0
	}
	b.DV = dv
	return b
}
