package negotiate

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
	"github.com/mcdev12/tradeengine/go/internal/trade/validate"
	"github.com/mcdev12/tradeengine/go/internal/trade/valuation"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// Rand decides whether a counterparty that already likes a deal keeps
// pushing for more. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Valuer defines what negotiation needs from valuation
type Valuer interface {
	ValueChange(ctx context.Context, lc models.LeagueContext, tid int, add, remove valuation.AssetRefs, pc *valuation.PickContext) (float64, error)
	PickContext(ctx context.Context, lc models.LeagueContext) (*valuation.PickContext, error)
}

// Repository defines what negotiation needs from the store
type Repository interface {
	ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error)
	ListDraftPicksByTeam(ctx context.Context, tid int) ([]models.DraftPick, error)
}

// Result is the outcome of a search. Found false is a normal outcome.
type Result struct {
	Found    bool                 `json:"found"`
	Proposal models.TradeProposal `json:"proposal"`
	// DV is the counterparty's value of Proposal.
	DV     float64 `json:"dv"`
	Rounds int     `json:"rounds"`
	Added  int     `json:"added"`
}

type candidate struct {
	side   int
	isPick bool
	id     int
	dv     float64
}

// Negotiator grows a one-sided offer until the counterparty accepts it.
type Negotiator struct {
	valuer Valuer
	repo   Repository
	cfg    tuning.Negotiation
	clock  Clock

	rngMu sync.Mutex
	rng   Rand
}

// NewNegotiator creates a Negotiator with a real clock and a time-seeded
// RNG. Use WithClock and WithRand to override them.
func NewNegotiator(valuer Valuer, repo Repository, cfg tuning.Negotiation) *Negotiator {
	return &Negotiator{
		valuer: valuer,
		repo:   repo,
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock replaces the clock used for the wall-clock cap.
func (n *Negotiator) WithClock(c Clock) *Negotiator {
	n.clock = c
	return n
}

// WithRand replaces the RNG used by the positive-search stop rule.
func (n *Negotiator) WithRand(r Rand) *Negotiator {
	n.rng = r
	return n
}

func (n *Negotiator) random() float64 {
	n.rngMu.Lock()
	defer n.rngMu.Unlock()
	return n.rng.Float64()
}

func (n *Negotiator) value(ctx context.Context, lc models.LeagueContext, p models.TradeProposal, pc *valuation.PickContext) (float64, error) {
	return n.valuer.ValueChange(ctx, lc, p.Teams[1].TID,
		valuation.RefsFromSide(p.Teams[0]), valuation.RefsFromSide(p.Teams[1]), pc)
}

// MakeItWork searches for additions that make proposal acceptable to the
// counterparty, Teams[1]. If the counterparty already likes the deal it
// instead adds a few of its own assets to sweeten it for the initiator.
// holdInitiatorConstant keeps the initiator's side fixed. pc may be nil.
//
// The search performs at most MaxAdditions+1 valuation rounds.
func (n *Negotiator) MakeItWork(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, holdInitiatorConstant bool, pc *valuation.PickContext) (*Result, error) {
	start := n.clock.Now()
	p := proposal.Clone()

	if pc == nil {
		var err error
		pc, err = n.valuer.PickContext(ctx, lc)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{}
	dv, err := n.value(ctx, lc, p, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to value initial proposal: %w", err)
	}
	res.Rounds++
	positive := dv > 0

	for {
		if dv > 0 && !positive {
			res.Found = true
			break
		}
		if positive && (res.Added > n.cfg.PositiveMaxAdditions || (res.Added > 0 && n.random() > n.cfg.PositiveStopChance)) {
			res.Found = dv > 0
			break
		}
		if res.Added >= n.cfg.MaxAdditions || res.Rounds >= n.cfg.MaxRounds {
			break
		}
		if n.cfg.MaxDuration > 0 && n.clock.Since(start) > n.cfg.MaxDuration {
			log.Warn().
				Int("tid", p.Teams[1].TID).
				Int("added", res.Added).
				Dur("elapsed", n.clock.Since(start)).
				Msg("negotiation hit wall-clock cap")
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, ok, err := n.addBest(ctx, lc, p, holdInitiatorConstant, pc)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p = next
		res.Added++

		dv, err = n.value(ctx, lc, p, pc)
		if err != nil {
			return nil, fmt.Errorf("failed to value proposal: %w", err)
		}
		res.Rounds++

		log.Debug().
			Int("tid", p.Teams[1].TID).
			Int("added", res.Added).
			Float64("dv", dv).
			Msg("negotiation round")
	}

	res.Proposal = p
	res.DV = dv

	log.Info().
		Int("initiator", p.Teams[0].TID).
		Int("counterparty", p.Teams[1].TID).
		Bool("found", res.Found).
		Int("added", res.Added).
		Int("rounds", res.Rounds).
		Float64("dv", dv).
		Msg("negotiation finished")

	return res, nil
}

// addBest values every candidate and adds the one that moves the deal the
// least while still leaving the counterparty satisfied, or the most
// valuable one if none does.
func (n *Negotiator) addBest(ctx context.Context, lc models.LeagueContext, p models.TradeProposal, holdInitiatorConstant bool, pc *valuation.PickContext) (models.TradeProposal, bool, error) {
	candidates, err := n.candidates(ctx, lc, p, holdInitiatorConstant)
	if err != nil {
		return models.TradeProposal{}, false, err
	}
	if len(candidates) == 0 {
		return models.TradeProposal{}, false, nil
	}

	for i := range candidates {
		dv, err := n.value(ctx, lc, withAsset(p, candidates[i]), pc)
		if err != nil {
			return models.TradeProposal{}, false, fmt.Errorf("failed to value candidate %d: %w", candidates[i].id, err)
		}
		candidates[i].dv = dv
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dv > candidates[j].dv })

	j := 0
	for j < len(candidates) && candidates[j].dv >= 0 {
		j++
	}
	if j > 0 {
		j--
	}

	return withAsset(p, candidates[j]), true, nil
}

// candidates lists every tradable asset not yet in the proposal. The
// initiator's assets are skipped when holdInitiatorConstant is set.
func (n *Negotiator) candidates(ctx context.Context, lc models.LeagueContext, p models.TradeProposal, holdInitiatorConstant bool) ([]candidate, error) {
	var out []candidate
	for side := range p.Teams {
		if side == 0 && holdInitiatorConstant {
			continue
		}
		s := p.Teams[side]

		inPIDs := toSet(s.PIDs)
		players, err := n.repo.ListPlayersByTeam(ctx, s.TID)
		if err != nil {
			return nil, fmt.Errorf("failed to list players for team %d: %w", s.TID, err)
		}
		for _, pl := range validate.FilterUntradable(lc, players) {
			if !inPIDs[pl.PID] {
				out = append(out, candidate{side: side, id: pl.PID})
			}
		}

		inDPIDs := toSet(s.DPIDs)
		picks, err := n.repo.ListDraftPicksByTeam(ctx, s.TID)
		if err != nil {
			return nil, fmt.Errorf("failed to list draft picks for team %d: %w", s.TID, err)
		}
		for _, dp := range picks {
			if !inDPIDs[dp.DPID] {
				out = append(out, candidate{side: side, isPick: true, id: dp.DPID})
			}
		}
	}
	return out, nil
}

func withAsset(p models.TradeProposal, c candidate) models.TradeProposal {
	out := p.Clone()
	if c.isPick {
		out.Teams[c.side].DPIDs = append(out.Teams[c.side].DPIDs, c.id)
	} else {
		out.Teams[c.side].PIDs = append(out.Teams[c.side].PIDs, c.id)
	}
	return out
}

func toSet(ids []int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
