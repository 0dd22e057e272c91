package picks

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
)

// Repository defines what pick valuation needs from the store
type Repository interface {
	ListDraftProspects(ctx context.Context, draftYear int) ([]models.Player, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// Table holds value-by-slot curves per draft season plus the fallback
// curve for seasons with no generated class.
type Table struct {
	Seasons map[int][]float64 `json:"seasons"`
	Default []float64         `json:"default"`
}

// Values returns the curve for a season, or the default curve.
func (t *Table) Values(season int) []float64 {
	if vals, ok := t.Seasons[season]; ok && len(vals) > 0 {
		return vals
	}
	return t.Default
}

// Valuator estimates draft pick values from the prospect pool.
type Valuator struct {
	repo  Repository
	cfg   tuning.Picks
	cache *ristretto.Cache
}

// NewCache builds the ristretto cache used for pick tables.
func NewCache() (*ristretto.Cache, error) {
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
}

// NewValuator creates a Valuator. cache may be nil to disable caching.
func NewValuator(repo Repository, cfg tuning.Picks, cache *ristretto.Cache) *Valuator {
	return &Valuator{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
	}
}

func cacheKey(lc models.LeagueContext) string {
	return fmt.Sprintf("picks:%d:%d", lc.Season, lc.Phase)
}

// FirstDraftSeason is the season of the next draft still to be held.
func FirstDraftSeason(lc models.LeagueContext) int {
	if lc.Phase <= models.PhaseDraftLottery {
		return lc.Season
	}
	return lc.Season + 1
}

// EstimateAllPickValues builds the value table for the next drafts.
func (v *Valuator) EstimateAllPickValues(ctx context.Context, lc models.LeagueContext) (*Table, error) {
	key := cacheKey(lc)
	if v.cache != nil {
		if cached, ok := v.cache.Get(key); ok {
			if table, ok := cached.(*Table); ok {
				return table, nil
			}
		}
	}

	table := &Table{
		Seasons: make(map[int][]float64),
		Default: append([]float64(nil), v.cfg.Default...),
	}

	first := FirstDraftSeason(lc)
	for season := first; season < first+v.cfg.SeasonsAhead; season++ {
		prospects, err := v.repo.ListDraftProspects(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("failed to list draft prospects for %d: %w", season, err)
		}
		if len(prospects) == 0 {
			continue
		}

		vals := make([]float64, 0, len(prospects))
		for _, p := range prospects {
			vals = append(vals, p.Value+v.cfg.ProspectBonus)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
		table.Seasons[season] = vals
	}

	if v.cache != nil {
		v.cache.SetWithTTL(key, table, 1, v.cfg.CacheTTL)
		v.cache.Wait()
	}

	log.Debug().
		Int("season", lc.Season).
		Int("classes", len(table.Seasons)).
		Msg("estimated pick values")

	return table, nil
}

// Invalidate drops cached tables, e.g. after a draft class is generated.
func (v *Valuator) Invalidate() {
	if v.cache != nil {
		v.cache.Clear()
	}
}

// ProjectDraftOrder maps each team id to its projected draft slot (1 is
// the first pick) from a blend of this season's and last season's record.
func (v *Valuator) ProjectDraftOrder(ctx context.Context, lc models.LeagueContext) (map[int]int, error) {
	teams, err := v.repo.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return ProjectDraftOrder(lc, teams), nil
}

// ProjectDraftOrder is the pure form of Valuator.ProjectDraftOrder.
func ProjectDraftOrder(lc models.LeagueContext, teams []models.Team) map[int]int {
	type projection struct {
		tid  int
		winp float64
	}

	projections := make([]projection, 0, len(teams))
	for _, t := range teams {
		cur, _ := t.Season(lc.Season)
		last, _ := t.Season(lc.Season - 1)

		frac := 0.0
		if lc.NumGames > 0 {
			frac = math.Max(0, math.Min(1, float64(cur.GP())/float64(lc.NumGames)))
		}
		winp := frac*winPct(cur) + (1-frac)*winPct(last)
		projections = append(projections, projection{tid: t.TID, winp: winp})
	}

	sort.Slice(projections, func(i, j int) bool {
		if projections[i].winp != projections[j].winp {
			return projections[i].winp < projections[j].winp
		}
		return projections[i].tid < projections[j].tid
	})

	order := make(map[int]int, len(projections))
	for i, p := range projections {
		order[p.tid] = i + 1
	}
	return order
}

func winPct(ts models.TeamSeason) float64 {
	if ts.GP() == 0 {
		return 0.5
	}
	return float64(ts.Won) / float64(ts.GP())
}

// EstimatedSlot projects where a pick will land, regressing picks further
// in the future toward the middle of the order.
func EstimatedSlot(lc models.LeagueContext, cfg tuning.Picks, dp models.DraftPick, order map[int]int) int {
	est, ok := order[dp.OriginalTID]
	if !ok {
		est = lc.MiddleSlot()
	}

	horizon := cfg.UncertaintyHorizon
	seasons := dp.Season - lc.Season
	if seasons < 0 {
		seasons = 0
	}
	if seasons > horizon {
		seasons = horizon
	}

	if horizon > 0 {
		est = int(math.Round(float64(est*(horizon-seasons))/float64(horizon) +
			float64(lc.MiddleSlot()*seasons)/float64(horizon)))
	}
	if est < 1 {
		est = 1
	}
	return est
}

// EstimatePickValue returns the pick's estimated value and its flat index
// into value and rookie salary tables.
func EstimatePickValue(lc models.LeagueContext, cfg tuning.Picks, dp models.DraftPick, order map[int]int, table *Table) (float64, int) {
	slot := EstimatedSlot(lc, cfg, dp, order)
	round := dp.Round
	if round < 1 {
		round = 1
	}
	idx := slot - 1 + lc.NumTeams*(round-1)

	vals := table.Values(dp.Season)
	if idx < len(vals) {
		return vals[idx], idx
	}

	// class too small for this slot
	if idx < len(table.Default) {
		return table.Default[idx], idx
	}
	if len(table.Default) == 0 {
		return 0, idx
	}
	return table.Default[len(table.Default)-1], idx
}
