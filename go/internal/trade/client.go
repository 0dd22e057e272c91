package trade

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls the trade service over connect
type Client struct {
	propose      *connect.Client[ProposeRequest, ProposeResult]
	makeItWork   *connect.Client[MakeItWorkRequest, MakeItWorkResult]
	summary      *connect.Client[SummaryRequest, SummaryResponse]
	getDraft     *connect.Client[GetDraftRequest, DraftResponse]
	updateDraft  *connect.Client[UpdateDraftRequest, DraftResponse]
	clearDraft   *connect.Client[ClearDraftRequest, DraftResponse]
	tradingBlock *connect.Client[TradingBlockRequest, TradingBlockResponse]
	pickValues   *connect.Client[PickValuesRequest, PickValuesResponse]
}

// NewClient creates a trade service client for the server at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &Client{
		propose:      connect.NewClient[ProposeRequest, ProposeResult](httpClient, baseURL+ProposeProcedure, opts...),
		makeItWork:   connect.NewClient[MakeItWorkRequest, MakeItWorkResult](httpClient, baseURL+MakeItWorkProcedure, opts...),
		summary:      connect.NewClient[SummaryRequest, SummaryResponse](httpClient, baseURL+SummaryProcedure, opts...),
		getDraft:     connect.NewClient[GetDraftRequest, DraftResponse](httpClient, baseURL+GetDraftProcedure, opts...),
		updateDraft:  connect.NewClient[UpdateDraftRequest, DraftResponse](httpClient, baseURL+UpdateDraftProcedure, opts...),
		clearDraft:   connect.NewClient[ClearDraftRequest, DraftResponse](httpClient, baseURL+ClearDraftProcedure, opts...),
		tradingBlock: connect.NewClient[TradingBlockRequest, TradingBlockResponse](httpClient, baseURL+TradingBlockProcedure, opts...),
		pickValues:   connect.NewClient[PickValuesRequest, PickValuesResponse](httpClient, baseURL+PickValuesProcedure, opts...),
	}
}

func (c *Client) Propose(ctx context.Context, req *ProposeRequest) (*ProposeResult, error) {
	res, err := c.propose.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) MakeItWork(ctx context.Context, req *MakeItWorkRequest) (*MakeItWorkResult, error) {
	res, err := c.makeItWork.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	res, err := c.summary.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) GetDraft(ctx context.Context) (*DraftResponse, error) {
	res, err := c.getDraft.CallUnary(ctx, connect.NewRequest(&GetDraftRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) UpdateDraft(ctx context.Context, req *UpdateDraftRequest) (*DraftResponse, error) {
	res, err := c.updateDraft.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) ClearDraft(ctx context.Context) (*DraftResponse, error) {
	res, err := c.clearDraft.CallUnary(ctx, connect.NewRequest(&ClearDraftRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) TradingBlock(ctx context.Context, req *TradingBlockRequest) (*TradingBlockResponse, error) {
	res, err := c.tradingBlock.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) PickValues(ctx context.Context, req *PickValuesRequest) (*PickValuesResponse, error) {
	res, err := c.pickValues.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
