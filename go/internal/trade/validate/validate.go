package validate

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

// MaxSalaryRatio is the largest percentage of outgoing salary a team over
// the cap may take back.
const MaxSalaryRatio = 125

// Untradable reasons shown next to locked players.
const (
	ReasonExpiring      = "Cannot trade expiring contracts after the trade deadline"
	ReasonRecentlyAdded = "Cannot trade recently acquired player for %d more games"
)

// Repository defines what validation needs from the store
type Repository interface {
	GetTeam(ctx context.Context, tid int) (*models.Team, error)
	ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error)
	ListDraftPicksByTeam(ctx context.Context, tid int) ([]models.DraftPick, error)
}

// PayrollSource reports a team's current payroll in thousands.
type PayrollSource interface {
	Payroll(ctx context.Context, tid int) (int, error)
}

// Validator enforces tradability and the salary matching rule.
type Validator struct {
	repo     Repository
	payrolls PayrollSource
}

// NewValidator creates a new Validator
func NewValidator(repo Repository, payrolls PayrollSource) *Validator {
	return &Validator{
		repo:     repo,
		payrolls: payrolls,
	}
}

// IsUntradable reports whether a player is locked and why.
func IsUntradable(lc models.LeagueContext, p models.Player) (bool, string) {
	if p.Contract.Exp <= lc.Season && lc.ExpiringContractsLocked() {
		return true, ReasonExpiring
	}
	if p.GamesUntilTradable > 0 {
		return true, fmt.Sprintf(ReasonRecentlyAdded, p.GamesUntilTradable)
	}
	return false, ""
}

// FilterUntradable returns the players that may be traded.
func FilterUntradable(lc models.LeagueContext, players []models.Player) []models.Player {
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if locked, _ := IsUntradable(lc, p); !locked {
			out = append(out, p)
		}
	}
	return out
}

// UpdatePlayers intersects each side's claimed ids with what the team
// really owns, dropping stale and untradable entries. Claimed order is
// kept. changed reports whether anything was dropped.
func (v *Validator) UpdatePlayers(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (models.TradeProposal, bool, error) {
	out := proposal.Clone()
	changed := false

	for i := range out.Teams {
		side := &out.Teams[i]

		players, err := v.repo.ListPlayersByTeam(ctx, side.TID)
		if err != nil {
			return models.TradeProposal{}, false, fmt.Errorf("failed to list players for team %d: %w", side.TID, err)
		}
		tradable := make(map[int]bool, len(players))
		for _, p := range FilterUntradable(lc, players) {
			tradable[p.PID] = true
		}

		picks, err := v.repo.ListDraftPicksByTeam(ctx, side.TID)
		if err != nil {
			return models.TradeProposal{}, false, fmt.Errorf("failed to list draft picks for team %d: %w", side.TID, err)
		}
		owned := make(map[int]bool, len(picks))
		for _, dp := range picks {
			owned[dp.DPID] = true
		}

		pids := keep(side.PIDs, tradable)
		dpids := keep(side.DPIDs, owned)
		if len(pids) != len(side.PIDs) || len(dpids) != len(side.DPIDs) {
			changed = true
			log.Debug().
				Int("tid", side.TID).
				Ints("claimed_pids", side.PIDs).
				Ints("kept_pids", pids).
				Ints("claimed_dpids", side.DPIDs).
				Ints("kept_dpids", dpids).
				Msg("dropped stale trade assets")
		}
		side.PIDs = pids
		side.DPIDs = dpids
	}

	return out, changed, nil
}

func keep(ids []int, allowed map[int]bool) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if allowed[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

type sideData struct {
	team    *models.Team
	players []models.Player
	picks   []models.DraftPick
	payroll int
}

func (v *Validator) loadSide(ctx context.Context, side models.TradeSide) (*sideData, error) {
	team, err := v.repo.GetTeam(ctx, side.TID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", side.TID, err)
	}
	players, err := v.repo.ListPlayersByTeam(ctx, side.TID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for team %d: %w", side.TID, err)
	}
	picks, err := v.repo.ListDraftPicksByTeam(ctx, side.TID)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft picks for team %d: %w", side.TID, err)
	}
	payroll, err := v.payrolls.Payroll(ctx, side.TID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll for team %d: %w", side.TID, err)
	}
	return &sideData{team: team, players: players, picks: picks, payroll: payroll}, nil
}

// Summary describes what each side sends, the payrolls after the trade
// and, when the salary matching rule is broken, a blocking warning.
// Both sides are read concurrently.
func (v *Validator) Summary(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (*models.TradeSummary, error) {
	var data [2]*sideData
	g, gctx := errgroup.WithContext(ctx)
	for i := range proposal.Teams {
		g.Go(func() error {
			d, err := v.loadSide(gctx, proposal.Teams[i])
			if err != nil {
				return err
			}
			data[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &models.TradeSummary{}
	var totals [2]int
	for i, side := range proposal.Teams {
		d := data[i]
		st := models.SummaryTeam{
			TID:   side.TID,
			Name:  d.team.FullName(),
			Trade: []models.SummaryPlayer{},
			Picks: []models.SummaryPick{},
		}

		byPID := make(map[int]models.Player, len(d.players))
		for _, p := range d.players {
			byPID[p.PID] = p
		}
		for _, pid := range side.PIDs {
			p, ok := byPID[pid]
			if !ok {
				continue
			}
			st.Trade = append(st.Trade, models.SummaryPlayer{
				PID:      p.PID,
				Name:     p.Name(),
				Age:      p.Age(lc.Season),
				Ovr:      p.Ratings.Ovr,
				Pot:      p.Ratings.Pot,
				Contract: p.Contract,
				Injury:   p.Injury,
			})
			st.Total += p.Contract.Amount
		}

		byDPID := make(map[int]models.DraftPick, len(d.picks))
		for _, dp := range d.picks {
			byDPID[dp.DPID] = dp
		}
		for _, dpid := range side.DPIDs {
			if dp, ok := byDPID[dpid]; ok {
				st.Picks = append(st.Picks, models.SummaryPick{DPID: dp.DPID, Desc: dp.Desc()})
			}
		}

		totals[i] = st.Total
		s.Teams[i] = st
	}

	for i := range s.Teams {
		j := 1 - i
		after := data[i].payroll + totals[j] - totals[i]
		s.Teams[i].PayrollAfterTrade = decimal.NewFromInt(int64(after)).Div(decimal.NewFromInt(1000)).StringFixed(2)
		s.Teams[i].OverCap = after > lc.SalaryCap
		s.Teams[i].Ratio = salaryRatio(totals[j], totals[i])
	}

	for i := range s.Teams {
		st := s.Teams[i]
		if st.OverCap && exceedsRatio(st.Ratio, totals[1-i]) {
			s.Warning = capWarning(st)
			break
		}
	}

	return s, nil
}

// salaryRatio is received salary as a percentage of sent salary. It is
// nil when nothing is sent but something is received.
func salaryRatio(received, sent int) *int {
	var r int
	switch {
	case sent > 0:
		r = int(math.Floor(100 * float64(received) / float64(sent)))
	case received > 0:
		return nil
	default:
		r = 100
	}
	return &r
}

func exceedsRatio(ratio *int, received int) bool {
	if ratio == nil {
		return received > 0
	}
	return *ratio > MaxSalaryRatio
}

func capWarning(st models.SummaryTeam) string {
	ratio := "infinite"
	if st.Ratio != nil {
		ratio = fmt.Sprintf("%d%%", *st.Ratio)
	}
	return fmt.Sprintf(
		"The %s are over the salary cap, so they can receive players with a maximum combined salary of %d%% of the salaries of the players they trade away. Currently, this trade has a ratio of %s.",
		st.Name, MaxSalaryRatio, ratio,
	)
}
