package trade

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
	"github.com/mcdev12/tradeengine/go/internal/trade/picks"
	"github.com/mcdev12/tradeengine/go/internal/trade/valuation"
)

// TradeServiceName is the fully-qualified name of the trade service.
const TradeServiceName = "trade.v1.TradeService"

// Procedure paths of the trade service.
const (
	ProposeProcedure      = "/" + TradeServiceName + "/Propose"
	MakeItWorkProcedure   = "/" + TradeServiceName + "/MakeItWork"
	SummaryProcedure      = "/" + TradeServiceName + "/Summary"
	GetDraftProcedure     = "/" + TradeServiceName + "/GetDraft"
	UpdateDraftProcedure  = "/" + TradeServiceName + "/UpdateDraft"
	ClearDraftProcedure   = "/" + TradeServiceName + "/ClearDraft"
	TradingBlockProcedure = "/" + TradeServiceName + "/TradingBlock"
	PickValuesProcedure   = "/" + TradeServiceName + "/PickValues"
)

type ProposeRequest struct {
	Proposal   models.TradeProposal `json:"proposal"`
	ForceTrade bool                 `json:"force_trade"`
}

type MakeItWorkRequest struct {
	Proposal              models.TradeProposal `json:"proposal"`
	HoldInitiatorConstant bool                 `json:"hold_initiator_constant"`
}

type SummaryRequest struct {
	Proposal models.TradeProposal `json:"proposal"`
}

type SummaryResponse struct {
	Summary *models.TradeSummary `json:"summary"`
}

type GetDraftRequest struct{}

type UpdateDraftRequest struct {
	Proposal models.TradeProposal `json:"proposal"`
}

type DraftResponse struct {
	Proposal models.TradeProposal `json:"proposal"`
	Summary  *models.TradeSummary `json:"summary,omitempty"`
}

type ClearDraftRequest struct{}

type TradingBlockRequest struct {
	PIDs  []int `json:"pids"`
	DPIDs []int `json:"dpids"`
}

type TradingBlockResponse struct {
	Offers []Offer `json:"offers"`
}

type PickValuesRequest struct {
	// Refresh drops cached tables before estimating.
	Refresh bool `json:"refresh"`
}

type PickValuesResponse struct {
	Table *picks.Table `json:"table"`
}

// TradeApp defines what the service layer needs from the trade application
type TradeApp interface {
	Propose(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, forceTrade bool) (*ProposeResult, error)
	MakeItWork(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal, holdInitiatorConstant bool) (*MakeItWorkResult, error)
	Summary(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (*models.TradeSummary, error)
	GetDraft(ctx context.Context, lc models.LeagueContext) (models.TradeProposal, error)
	UpdateDraft(ctx context.Context, lc models.LeagueContext, proposal models.TradeProposal) (models.TradeProposal, *models.TradeSummary, error)
	ClearDraft(ctx context.Context, lc models.LeagueContext) (models.TradeProposal, error)
	TradingBlockOffers(ctx context.Context, lc models.LeagueContext, pids, dpids []int) ([]Offer, error)
	PickValues(ctx context.Context, lc models.LeagueContext) (*picks.Table, error)
	RefreshPickValues(ctx context.Context, lc models.LeagueContext) (*picks.Table, error)
}

// LeagueSource loads the current league state for each request
type LeagueSource interface {
	GetLeagueContext(ctx context.Context) (models.LeagueContext, error)
}

// Service exposes the trade app over connect
type Service struct {
	app    TradeApp
	league LeagueSource
}

// NewService creates a new trade service
func NewService(app TradeApp, league LeagueSource) *Service {
	return &Service{
		app:    app,
		league: league,
	}
}

// NewTradeServiceHandler builds an HTTP handler serving every trade
// procedure. It returns the path to mount it on.
func NewTradeServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ProposeProcedure, connect.NewUnaryHandler(ProposeProcedure, svc.Propose, opts...))
	mux.Handle(MakeItWorkProcedure, connect.NewUnaryHandler(MakeItWorkProcedure, svc.MakeItWork, opts...))
	mux.Handle(SummaryProcedure, connect.NewUnaryHandler(SummaryProcedure, svc.Summary, opts...))
	mux.Handle(GetDraftProcedure, connect.NewUnaryHandler(GetDraftProcedure, svc.GetDraft, opts...))
	mux.Handle(UpdateDraftProcedure, connect.NewUnaryHandler(UpdateDraftProcedure, svc.UpdateDraft, opts...))
	mux.Handle(ClearDraftProcedure, connect.NewUnaryHandler(ClearDraftProcedure, svc.ClearDraft, opts...))
	mux.Handle(TradingBlockProcedure, connect.NewUnaryHandler(TradingBlockProcedure, svc.TradingBlock, opts...))
	mux.Handle(PickValuesProcedure, connect.NewUnaryHandler(PickValuesProcedure, svc.PickValues, opts...))
	return "/" + TradeServiceName + "/", mux
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidProposal):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, valuation.ErrTeamNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, valuation.ErrAssetNotOwned), errors.Is(err, store.ErrOwnerChanged):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func (s *Service) leagueContext(ctx context.Context) (models.LeagueContext, error) {
	lc, err := s.league.GetLeagueContext(ctx)
	if err != nil {
		return models.LeagueContext{}, toConnectError(err)
	}
	return lc, nil
}

// Propose asks the counterparty to accept a trade
func (s *Service) Propose(ctx context.Context, req *connect.Request[ProposeRequest]) (*connect.Response[ProposeResult], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.app.Propose(ctx, lc, req.Msg.Proposal, req.Msg.ForceTrade)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(res), nil
}

// MakeItWork asks the counterparty for a counter offer
func (s *Service) MakeItWork(ctx context.Context, req *connect.Request[MakeItWorkRequest]) (*connect.Response[MakeItWorkResult], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.app.MakeItWork(ctx, lc, req.Msg.Proposal, req.Msg.HoldInitiatorConstant)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(res), nil
}

// Summary validates a proposal without saving it
func (s *Service) Summary(ctx context.Context, req *connect.Request[SummaryRequest]) (*connect.Response[SummaryResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.app.Summary(ctx, lc, req.Msg.Proposal)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SummaryResponse{Summary: summary}), nil
}

// GetDraft returns the persisted trade draft
func (s *Service) GetDraft(ctx context.Context, _ *connect.Request[GetDraftRequest]) (*connect.Response[DraftResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.app.GetDraft(ctx, lc)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DraftResponse{Proposal: p}), nil
}

// UpdateDraft filters and saves the trade draft
func (s *Service) UpdateDraft(ctx context.Context, req *connect.Request[UpdateDraftRequest]) (*connect.Response[DraftResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	p, summary, err := s.app.UpdateDraft(ctx, lc, req.Msg.Proposal)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DraftResponse{Proposal: p, Summary: summary}), nil
}

// ClearDraft empties the trade draft
func (s *Service) ClearDraft(ctx context.Context, _ *connect.Request[ClearDraftRequest]) (*connect.Response[DraftResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.app.ClearDraft(ctx, lc)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DraftResponse{Proposal: p}), nil
}

// TradingBlock collects AI offers for the user's assets
func (s *Service) TradingBlock(ctx context.Context, req *connect.Request[TradingBlockRequest]) (*connect.Response[TradingBlockResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	offers, err := s.app.TradingBlockOffers(ctx, lc, req.Msg.PIDs, req.Msg.DPIDs)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&TradingBlockResponse{Offers: offers}), nil
}

// PickValues returns the draft pick value table
func (s *Service) PickValues(ctx context.Context, req *connect.Request[PickValuesRequest]) (*connect.Response[PickValuesResponse], error) {
	lc, err := s.leagueContext(ctx)
	if err != nil {
		return nil, err
	}

	values := s.app.PickValues
	if req.Msg.Refresh {
		values = s.app.RefreshPickValues
	}
	table, err := values(ctx, lc)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&PickValuesResponse{Table: table}), nil
}
