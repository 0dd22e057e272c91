package trade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/outbox"
	"github.com/mcdev12/tradeengine/go/internal/store"
	"github.com/mcdev12/tradeengine/go/internal/trade/negotiate"
	"github.com/mcdev12/tradeengine/go/internal/trade/picks"
	"github.com/mcdev12/tradeengine/go/internal/trade/valuation"
)

// ErrInvalidProposal is returned for proposals that do not name two
// distinct teams of the league.
var ErrInvalidProposal = errors.New("invalid trade proposal")

// Messages returned to the initiator.
const (
	MessageBlocked  = "You're not allowed to make trades now."
	MessageEmpty    = "There's nothing in this trade."
	MessageAccepted = `Trade accepted! "Nice doing business with you!"`
	MessageClose    = "Close, but not quite good enough."
	MessageBadDeal  = "That's not a good deal for me."
	MessageCrazy    = "What, are you crazy?!"
)

// tradingBlockWorkers bounds concurrent trading block searches.
const tradingBlockWorkers = 4

// TradeRepository defines what the app layer needs from the repository
type TradeRepository interface {
	GetTeam(ctx context.Context, tid int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetPlayers(ctx context.Context, pids []int) ([]models.Player, error)
	GetDraftPicks(ctx context.Context, dpids []int) ([]models.DraftPick, error)
	GetTradeDraft(ctx context.Context) (models.TradeProposal, error)
	UpdateTradeDraft(ctx context.Context, fn store.DraftUpdateFunc) (models.TradeProposal, error)
	ExecuteTrade(ctx context.Context, exec store.TradeExecution) error
}

// Validator filters proposals and checks the salary rule
type Validator interface {
	UpdatePlayers(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (models.TradeProposal, bool, error)
	Summary(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (*models.TradeSummary, error)
}

// Valuer scores proposals for the counterparty
type Valuer interface {
	ValueChange(ctx context.Context, lc models.LeagueContext, tid int, add, remove valuation.AssetRefs, pc *valuation.PickContext) (float64, error)
	PickContext(ctx context.Context, lc models.LeagueContext) (*valuation.PickContext, error)
}

// Negotiator searches for acceptable additions to a proposal
type Negotiator interface {
	MakeItWork(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, holdInitiatorConstant bool, pc *valuation.PickContext) (*negotiate.Result, error)
}

// PickCache holds estimated pick value tables between requests
type PickCache interface {
	Invalidate()
}

// RosterSorter reorders an AI roster after it changes
type RosterSorter interface {
	AutoSort(ctx context.Context, tid int) ([]models.RosterSlot, error)
}

// ProposeResult is the counterparty's verdict on a proposal.
type ProposeResult struct {
	Accepted bool                 `json:"accepted"`
	Message  string               `json:"message,omitempty"`
	DV       float64              `json:"dv"`
	Summary  *models.TradeSummary `json:"summary,omitempty"`
	Event    *models.TradeEvent   `json:"event,omitempty"`
}

// MakeItWorkResult is a counter offer for the persisted draft.
type MakeItWorkResult struct {
	Found    bool                 `json:"found"`
	Proposal models.TradeProposal `json:"proposal"`
	Message  string               `json:"message"`
	Summary  *models.TradeSummary `json:"summary,omitempty"`
}

// Offer is what one AI team would give for trading block assets.
type Offer struct {
	TID      int                  `json:"tid"`
	Proposal models.TradeProposal `json:"proposal"`
	DV       float64              `json:"dv"`
	Summary  *models.TradeSummary `json:"summary"`
}

// App ties validation, valuation, negotiation and execution together
type App struct {
	repo       TradeRepository
	validator  Validator
	valuer     Valuer
	negotiator Negotiator
	roster     RosterSorter
	pickCache  PickCache
	clock      clockwork.Clock
}

// NewApp creates a new trade App
func NewApp(repo TradeRepository, validator Validator, valuer Valuer, negotiator Negotiator, roster RosterSorter) *App {
	return &App{
		repo:       repo,
		validator:  validator,
		valuer:     valuer,
		negotiator: negotiator,
		roster:     roster,
		clock:      clockwork.NewRealClock(),
	}
}

// WithPickCache lets RefreshPickValues drop cached pick value tables.
func (a *App) WithPickCache(c PickCache) *App {
	a.pickCache = c
	return a
}

// WithClock replaces the clock used for event timestamps.
func (a *App) WithClock(c clockwork.Clock) *App {
	a.clock = c
	return a
}

func checkProposal(lc models.LeagueContext, p models.TradeProposal) error {
	a, b := p.Teams[0].TID, p.Teams[1].TID
	if a == b {
		return fmt.Errorf("%w: team %d on both sides", ErrInvalidProposal, a)
	}
	for _, tid := range []int{a, b} {
		if tid < 0 || (lc.NumTeams > 0 && tid >= lc.NumTeams) {
			return fmt.Errorf("%w: unknown team %d", ErrInvalidProposal, tid)
		}
	}
	return nil
}

// rejectionMessage grades how far off a rejected offer was.
func rejectionMessage(dv float64) string {
	switch {
	case dv > -2:
		return MessageClose
	case dv > -5:
		return MessageBadDeal
	default:
		return MessageCrazy
	}
}

// Propose asks the counterparty, Teams[1], to accept the proposal and
// executes it if they do. Policy rejections are results, not errors, and
// leave the proposal untouched.
func (a *App) Propose(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, forceTrade bool) (*ProposeResult, error) {
	if lc.TradesBlocked() {
		ProposalsTotal.WithLabelValues(outcomeBlocked).Inc()
		return &ProposeResult{Message: MessageBlocked}, nil
	}
	if err := checkProposal(lc, proposal); err != nil {
		return nil, err
	}

	p, _, err := a.validator.UpdatePlayers(ctx, lc, proposal)
	if err != nil {
		return nil, fmt.Errorf("failed to validate proposal: %w", err)
	}
	if p.Teams[0].Empty() && p.Teams[1].Empty() {
		ProposalsTotal.WithLabelValues(outcomeRejected).Inc()
		return &ProposeResult{Message: MessageEmpty}, nil
	}

	summary, err := a.validator.Summary(ctx, lc, p)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize proposal: %w", err)
	}
	if summary.HasWarning() && !forceTrade {
		ProposalsTotal.WithLabelValues(outcomeWarning).Inc()
		return &ProposeResult{Summary: summary}, nil
	}

	counterparty := p.Teams[1].TID
	dv, err := a.valuer.ValueChange(ctx, lc, counterparty,
		valuation.RefsFromSide(p.Teams[0]), valuation.RefsFromSide(p.Teams[1]), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to value proposal: %w", err)
	}
	DecisionValue.Observe(dv)

	if dv <= 0 && !forceTrade {
		ProposalsTotal.WithLabelValues(outcomeRejected).Inc()
		log.Info().
			Int("initiator", p.Teams[0].TID).
			Int("counterparty", counterparty).
			Float64("dv", dv).
			Msg("trade rejected")
		return &ProposeResult{DV: dv, Message: rejectionMessage(dv), Summary: summary}, nil
	}

	event, err := a.execute(ctx, lc, p, forceTrade)
	if err != nil {
		return nil, err
	}

	outcome := outcomeAccepted
	if dv <= 0 {
		outcome = outcomeForced
	}
	ProposalsTotal.WithLabelValues(outcome).Inc()

	return &ProposeResult{
		Accepted: true,
		Message:  MessageAccepted,
		DV:       dv,
		Summary:  summary,
		Event:    event,
	}, nil
}

// execute transfers ownership, logs the trade, queues the outbox event and
// clears the draft in one store transaction, then re-sorts AI rosters.
func (a *App) execute(ctx context.Context, lc models.LeagueContext, p models.TradeProposal, forced bool) (*models.TradeEvent, error) {
	var teams [2]*models.Team
	for i, side := range p.Teams {
		t, err := a.repo.GetTeam(ctx, side.TID)
		if err != nil {
			return nil, fmt.Errorf("failed to get team %d: %w", side.TID, err)
		}
		teams[i] = t
	}

	var pids, dpids []int
	for _, side := range p.Teams {
		pids = append(pids, side.PIDs...)
		dpids = append(dpids, side.DPIDs...)
	}
	players, err := a.repo.GetPlayers(ctx, pids)
	if err != nil {
		return nil, fmt.Errorf("failed to get traded players: %w", err)
	}
	draftPicks, err := a.repo.GetDraftPicks(ctx, dpids)
	if err != nil {
		return nil, fmt.Errorf("failed to get traded draft picks: %w", err)
	}
	names := make(map[int]string, len(players))
	for _, pl := range players {
		names[pl.PID] = pl.Name()
	}
	descs := make(map[int]string, len(draftPicks))
	for _, dp := range draftPicks {
		descs[dp.DPID] = dp.Desc()
	}

	exec := store.TradeExecution{}
	var assets [2][]string
	for i, side := range p.Teams {
		to := teams[1-i]
		for _, pid := range side.PIDs {
			exec.PlayerMoves = append(exec.PlayerMoves, store.PlayerMove{PID: pid, FromTID: side.TID, TID: to.TID})
			assets[i] = append(assets[i], names[pid])
		}
		for _, dpid := range side.DPIDs {
			exec.PickMoves = append(exec.PickMoves, store.PickMove{DPID: dpid, FromTID: side.TID, TID: to.TID, Abbrev: to.Abbrev})
			assets[i] = append(assets[i], descs[dpid])
		}
	}

	now := a.clock.Now()
	event := models.TradeEvent{
		ID:        uuid.New(),
		Type:      models.TradeEventType,
		Text:      tradeText(teams[0].FullName(), teams[1].FullName(), assets),
		Season:    lc.Season,
		PIDs:      pids,
		DPIDs:     dpids,
		TIDs:      []int{teams[0].TID, teams[1].TID},
		CreatedAt: now,
	}
	exec.Event = event

	payload := outbox.TradeAcceptedPayload{
		EventID:    event.ID,
		Season:     lc.Season,
		Text:       event.Text,
		Forced:     forced,
		AcceptedAt: now,
	}
	for i, side := range p.Teams {
		payload.Teams[i] = outbox.TradeSidePayload{
			TID:    side.TID,
			Abbrev: teams[i].Abbrev,
			PIDs:   nonNil(side.PIDs),
			DPIDs:  nonNil(side.DPIDs),
		}
	}
	exec.Outbox, err = outbox.NewTradeAcceptedEvent(payload)
	if err != nil {
		return nil, err
	}

	cleared := models.NewTradeProposal(p.Teams[0].TID, p.Teams[1].TID)
	exec.ClearDraft = &cleared

	if err := a.repo.ExecuteTrade(ctx, exec); err != nil {
		return nil, fmt.Errorf("failed to execute trade: %w", err)
	}
	TradesExecuted.Inc()

	log.Info().
		Str("event_id", event.ID.String()).
		Ints("tids", event.TIDs).
		Ints("pids", pids).
		Ints("dpids", dpids).
		Bool("forced", forced).
		Msg("trade accepted")

	for i, side := range p.Teams {
		receiver := p.Teams[1-i].TID
		if side.Empty() || lc.IsUserTeam(receiver) {
			continue
		}
		if _, err := a.roster.AutoSort(ctx, receiver); err != nil {
			log.Error().Err(err).Int("tid", receiver).Msg("failed to sort roster after trade")
		}
	}

	return &event, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

// tradeText renders "The A traded X, Y, and Z to the B for W."
func tradeText(from, to string, assets [2][]string) string {
	return fmt.Sprintf("The %s traded %s to the %s for %s.", from, listAssets(assets[0]), to, listAssets(assets[1]))
}

func listAssets(items []string) string {
	switch len(items) {
	case 0:
		return "nothing"
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// defaultCounterparty is the team a fresh draft is opened with.
func defaultCounterparty(lc models.LeagueContext) int {
	if lc.NumTeams <= 1 {
		return lc.UserTID
	}
	return (lc.UserTID + 1) % lc.NumTeams
}

// GetDraft returns the persisted trade draft, or an empty one with the
// default counterparty if none has been saved.
func (a *App) GetDraft(ctx context.Context, lc models.LeagueContext) (models.TradeProposal, error) {
	p, err := a.repo.GetTradeDraft(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewTradeProposal(lc.UserTID, defaultCounterparty(lc)), nil
	}
	if err != nil {
		return models.TradeProposal{}, fmt.Errorf("failed to get trade draft: %w", err)
	}
	return p, nil
}

// UpdateDraft filters the proposal and saves it as the trade draft.
func (a *App) UpdateDraft(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (models.TradeProposal, *models.TradeSummary, error) {
	if err := checkProposal(lc, proposal); err != nil {
		return models.TradeProposal{}, nil, err
	}
	updated, changed, err := a.validator.UpdatePlayers(ctx, lc, proposal)
	if err != nil {
		return models.TradeProposal{}, nil, fmt.Errorf("failed to validate proposal: %w", err)
	}

	saved, err := a.repo.UpdateTradeDraft(ctx, func(*models.TradeProposal) (models.TradeProposal, error) {
		return updated, nil
	})
	if err != nil {
		return models.TradeProposal{}, nil, fmt.Errorf("failed to save trade draft: %w", err)
	}

	summary, err := a.validator.Summary(ctx, lc, saved)
	if err != nil {
		return models.TradeProposal{}, nil, fmt.Errorf("failed to summarize proposal: %w", err)
	}

	log.Debug().Bool("changed", changed).Int("counterparty", saved.Teams[1].TID).Msg("trade draft updated")
	return saved, summary, nil
}

// ClearDraft empties the draft, keeping the same two teams.
func (a *App) ClearDraft(ctx context.Context, lc models.LeagueContext) (models.TradeProposal, error) {
	p, err := a.repo.UpdateTradeDraft(ctx, func(cur *models.TradeProposal) (models.TradeProposal, error) {
		if cur == nil {
			return models.NewTradeProposal(lc.UserTID, defaultCounterparty(lc)), nil
		}
		return models.NewTradeProposal(cur.Teams[0].TID, cur.Teams[1].TID), nil
	})
	if err != nil {
		return models.TradeProposal{}, fmt.Errorf("failed to clear trade draft: %w", err)
	}
	return p, nil
}

// Summary filters the proposal and summarizes it without saving.
func (a *App) Summary(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (*models.TradeSummary, error) {
	if err := checkProposal(lc, proposal); err != nil {
		return nil, err
	}
	p, _, err := a.validator.UpdatePlayers(ctx, lc, proposal)
	if err != nil {
		return nil, fmt.Errorf("failed to validate proposal: %w", err)
	}
	return a.validator.Summary(ctx, lc, p)
}

func (a *App) negotiate(ctx context.Context, lc models.LeagueContext, p models.TradeProposal, hold bool, pc *valuation.PickContext) (*negotiate.Result, error) {
	start := a.clock.Now()
	res, err := a.negotiator.MakeItWork(ctx, lc, p, hold, pc)
	if err != nil {
		return nil, err
	}
	NegotiationDuration.Observe(a.clock.Since(start).Seconds())
	NegotiationRounds.Observe(float64(res.Rounds))
	NegotiationsTotal.WithLabelValues(strconv.FormatBool(res.Found)).Inc()
	return res, nil
}

// MakeItWork asks the counterparty what it would take to accept the
// proposal. A found counter offer is saved as the new draft.
func (a *App) MakeItWork(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, holdInitiatorConstant bool) (*MakeItWorkResult, error) {
	if err := checkProposal(lc, proposal); err != nil {
		return nil, err
	}
	p, _, err := a.validator.UpdatePlayers(ctx, lc, proposal)
	if err != nil {
		return nil, fmt.Errorf("failed to validate proposal: %w", err)
	}

	team, err := a.repo.GetTeam(ctx, p.Teams[1].TID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", p.Teams[1].TID, err)
	}

	res, err := a.negotiate(ctx, lc, p, holdInitiatorConstant, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to negotiate: %w", err)
	}
	if !res.Found {
		return &MakeItWorkResult{
			Proposal: p,
			Message:  fmt.Sprintf(`%s GM: "I can't come up with a deal that works for me."`, team.Region),
		}, nil
	}

	saved, err := a.repo.UpdateTradeDraft(ctx, func(*models.TradeProposal) (models.TradeProposal, error) {
		return res.Proposal, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save trade draft: %w", err)
	}
	summary, err := a.validator.Summary(ctx, lc, saved)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize proposal: %w", err)
	}

	return &MakeItWorkResult{
		Found:    true,
		Proposal: saved,
		Message:  fmt.Sprintf(`%s GM: "How does this sound?"`, team.Region),
		Summary:  summary,
	}, nil
}

// TradingBlockOffers asks every AI team what it would give for the user's
// assets. Offers that break the salary rule are dropped. The rest are
// ordered most generous first, lowest counterparty dv.
func (a *App) TradingBlockOffers(ctx context.Context, lc models.LeagueContext, pids, dpids []int) ([]Offer, error) {
	if lc.TradesBlocked() {
		return []Offer{}, nil
	}

	teams, err := a.repo.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	pc, err := a.valuer.PickContext(ctx, lc)
	if err != nil {
		return nil, err
	}

	results := make([]*Offer, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tradingBlockWorkers)
	for i, t := range teams {
		if lc.IsUserTeam(t.TID) {
			continue
		}
		g.Go(func() error {
			offer, err := a.offerFrom(gctx, lc, t.TID, pids, dpids, pc)
			if err != nil {
				return fmt.Errorf("failed to get offer from team %d: %w", t.TID, err)
			}
			results[i] = offer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(results))
	for _, o := range results {
		if o != nil {
			offers = append(offers, *o)
		}
	}
	sort.SliceStable(offers, func(i, j int) bool { return offers[i].DV < offers[j].DV })

	log.Info().Int("offers", len(offers)).Ints("pids", pids).Ints("dpids", dpids).Msg("trading block offers")
	return offers, nil
}

func (a *App) offerFrom(ctx context.Context, lc models.LeagueContext, tid int, pids, dpids []int, pc *valuation.PickContext) (*Offer, error) {
	p := models.NewTradeProposal(lc.UserTID, tid)
	p.Teams[0].PIDs = append(p.Teams[0].PIDs, pids...)
	p.Teams[0].DPIDs = append(p.Teams[0].DPIDs, dpids...)

	p, _, err := a.validator.UpdatePlayers(ctx, lc, p)
	if err != nil {
		return nil, err
	}
	if p.Teams[0].Empty() {
		return nil, nil
	}

	res, err := a.negotiate(ctx, lc, p, true, pc)
	if err != nil {
		return nil, err
	}
	if !res.Found || res.Proposal.Teams[1].Empty() {
		return nil, nil
	}

	summary, err := a.validator.Summary(ctx, lc, res.Proposal)
	if err != nil {
		return nil, err
	}
	if summary.HasWarning() {
		return nil, nil
	}
	return &Offer{TID: tid, Proposal: res.Proposal, DV: res.DV, Summary: summary}, nil
}

// PickValues returns the current draft pick value table.
func (a *App) PickValues(ctx context.Context, lc models.LeagueContext) (*picks.Table, error) {
	pc, err := a.valuer.PickContext(ctx, lc)
	if err != nil {
		return nil, err
	}
	return pc.Table, nil
}

// RefreshPickValues rebuilds the pick value table from the current draft
// classes, e.g. after prospects were seeded or generated.
func (a *App) RefreshPickValues(ctx context.Context, lc models.LeagueContext) (*picks.Table, error) {
	if a.pickCache != nil {
		a.pickCache.Invalidate()
		log.Info().Int("season", lc.Season).Msg("pick value cache cleared")
	}
	return a.PickValues(ctx, lc)
}
