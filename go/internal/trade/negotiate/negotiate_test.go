package negotiate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
	"github.com/mcdev12/tradeengine/go/internal/trade/valuation"
)

// fakeValuer scores a trade as the value of what the counterparty
// receives minus what it sends.
type fakeValuer struct {
	players map[int]float64
	picks   map[int]float64
	calls   int
	onCall  func()
	err     error
}

func (f *fakeValuer) ValueChange(_ context.Context, _ models.LeagueContext, _ int, add, remove valuation.AssetRefs, _ *valuation.PickContext) (float64, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return 0, f.err
	}
	dv := 0.0
	for _, pid := range add.PIDs {
		dv += f.players[pid]
	}
	for _, dpid := range add.DPIDs {
		dv += f.picks[dpid]
	}
	for _, pid := range remove.PIDs {
		dv -= f.players[pid]
	}
	for _, dpid := range remove.DPIDs {
		dv -= f.picks[dpid]
	}
	return dv, nil
}

func (f *fakeValuer) PickContext(context.Context, models.LeagueContext) (*valuation.PickContext, error) {
	return &valuation.PickContext{}, nil
}

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

func testLeague() models.LeagueContext {
	return models.LeagueContext{Season: 2025, Phase: models.PhaseRegularSeason, NumGames: 82, NumTeams: 2, UserTID: 0}
}

// newFixture seeds team 0 and team 1 with the given players, keyed by pid
// to value.
func newFixture(initiator, counterparty map[int]float64) (*store.MemoryStore, *fakeValuer) {
	s := store.NewMemoryStore()
	v := &fakeValuer{players: map[int]float64{}, picks: map[int]float64{}}
	for tid, roster := range []map[int]float64{initiator, counterparty} {
		for pid, value := range roster {
			s.AddPlayer(models.Player{PID: pid, TID: tid, Contract: models.Contract{Amount: 1000, Exp: 2027}})
			v.players[pid] = value
		}
	}
	return s, v
}

func proposal(give, get []int) models.TradeProposal {
	p := models.NewTradeProposal(0, 1)
	p.Teams[0].PIDs = give
	p.Teams[1].PIDs = get
	return p
}

func TestMakeItWork_FindsSmallestSufficientAddition(t *testing.T) {
	s, v := newFixture(
		map[int]float64{1: 5, 2: 8, 3: 30, 4: 16},
		map[int]float64{10: 20, 11: 4},
	)
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), false, nil)
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, []int{1, 4}, res.Proposal.Teams[0].PIDs)
	assert.Equal(t, []int{10}, res.Proposal.Teams[1].PIDs)
	assert.Equal(t, 1.0, res.DV)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Rounds)
}

func TestMakeItWork_DoesNotMutateInput(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5, 2: 30}, map[int]float64{10: 20})
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	in := proposal([]int{1}, []int{10})
	_, err := n.MakeItWork(context.Background(), testLeague(), in, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, in.Teams[0].PIDs)
}

func TestMakeItWork_HoldInitiatorConstantExhausts(t *testing.T) {
	s, v := newFixture(
		map[int]float64{1: 5, 2: 100},
		map[int]float64{10: 20, 11: 4},
	)
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), true, nil)
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, []int{1}, res.Proposal.Teams[0].PIDs)
	assert.Equal(t, []int{10, 11}, res.Proposal.Teams[1].PIDs)
	assert.Equal(t, 2, res.Rounds)
}

func TestMakeItWork_BoundedRounds(t *testing.T) {
	initiator := map[int]float64{1: 1}
	for pid := 2; pid <= 20; pid++ {
		initiator[pid] = 1
	}
	s, v := newFixture(initiator, map[int]float64{100: 80})
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{100}), false, nil)
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, 5, res.Added)
	assert.LessOrEqual(t, res.Rounds, 6)
	assert.Len(t, res.Proposal.Teams[0].PIDs, 6)
}

func TestMakeItWork_PositiveStartStopRule(t *testing.T) {
	tests := []struct {
		name     string
		rng      float64
		added    int
		received []int
		dv       float64
	}{
		{name: "stops-after-first-addition", rng: 0.9, added: 1, received: []int{10, 11}, dv: 6},
		{name: "pushes-until-three-additions", rng: 0.1, added: 3, received: []int{10, 11, 12, 13}, dv: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, v := newFixture(
				map[int]float64{1: 30},
				map[int]float64{10: 20, 11: 4, 12: 3, 13: 2},
			)
			n := NewNegotiator(v, s, tuning.Default().Negotiation).WithRand(fixedRand(tt.rng))

			res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), true, nil)
			require.NoError(t, err)

			assert.True(t, res.Found)
			assert.Equal(t, tt.added, res.Added)
			assert.Equal(t, tt.received, res.Proposal.Teams[1].PIDs)
			assert.Equal(t, tt.dv, res.DV)
		})
	}
}

func TestMakeItWork_SkipsUntradablePlayers(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5, 2: 8}, map[int]float64{10: 20})
	s.AddPlayer(models.Player{PID: 3, TID: 0, GamesUntilTradable: 5, Contract: models.Contract{Amount: 1000, Exp: 2027}})
	v.players[3] = 100
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), false, nil)
	require.NoError(t, err)

	assert.NotContains(t, res.Proposal.Teams[0].PIDs, 3)
	assert.False(t, res.Found)
}

func TestMakeItWork_ConsidersDraftPicks(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5}, map[int]float64{10: 20})
	s.AddDraftPick(models.DraftPick{DPID: 50, TID: 0, Round: 1, Season: 2026})
	v.picks[50] = 18
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), false, nil)
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, []int{50}, res.Proposal.Teams[0].DPIDs)
}

func TestMakeItWork_WallClockCap(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5, 2: 30}, map[int]float64{10: 20})
	clock := clockwork.NewFakeClock()
	v.onCall = func() { clock.Advance(3 * time.Second) }

	cfg := tuning.Default().Negotiation
	cfg.MaxDuration = 2 * time.Second
	n := NewNegotiator(v, s, cfg).WithClock(clock)

	res, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), false, nil)
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 1, v.calls)
}

func TestMakeItWork_ValuerError(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5}, map[int]float64{10: 20})
	v.err = errors.New("store down")
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	_, err := n.MakeItWork(context.Background(), testLeague(), proposal([]int{1}, []int{10}), false, nil)
	assert.ErrorIs(t, err, v.err)
}

func TestMakeItWork_CancelledContext(t *testing.T) {
	s, v := newFixture(map[int]float64{1: 5, 2: 30}, map[int]float64{10: 20})
	n := NewNegotiator(v, s, tuning.Default().Negotiation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.MakeItWork(ctx, testLeague(), proposal([]int{1}, []int{10}), false, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
