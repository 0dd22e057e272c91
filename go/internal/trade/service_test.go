package trade

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/store"
)

func newTestServer(t *testing.T, f *fixture) *Client {
	t.Helper()
	mux := http.NewServeMux()
	path, handler := NewTradeServiceHandler(NewService(f.app, f.store))
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL)
}

func TestService_ProposeRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.addPlayer(1, userTID, "Kevin Lane", 70, 5000)
	f.addPlayer(2, contenderTID, "Marco Diaz", 50, 1000)
	client := newTestServer(t, f)

	res, err := client.Propose(context.Background(), &ProposeRequest{Proposal: proposal([]int{1}, []int{2})})
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	require.NotNil(t, res.Event)
	assert.Equal(t, models.TradeEventType, res.Event.Type)
	assert.Equal(t, contenderTID, f.owner(t, 1))
}

func TestService_DraftRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.addPlayer(1, userTID, "Kevin Lane", 70, 5000)
	client := newTestServer(t, f)
	ctx := context.Background()

	updated, err := client.UpdateDraft(ctx, &UpdateDraftRequest{Proposal: proposal([]int{1, 7}, nil)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, updated.Proposal.Teams[0].PIDs)
	require.NotNil(t, updated.Summary)

	got, err := client.GetDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.Proposal.Teams[0].PIDs)

	cleared, err := client.ClearDraft(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleared.Proposal.Teams[0].PIDs)
}

func TestService_PickValues(t *testing.T) {
	f := newFixture(t)
	client := newTestServer(t, f)

	res, err := client.PickValues(context.Background(), &PickValuesRequest{Refresh: true})
	require.NoError(t, err)
	require.NotNil(t, res.Table)
	assert.NotEmpty(t, res.Table.Default)
}

func TestService_ErrorCodes(t *testing.T) {
	f := newFixture(t)
	lc := f.lc
	lc.NumTeams = 6
	f.store.SetLeague(lc)
	client := newTestServer(t, f)

	_, err := client.Propose(context.Background(), &ProposeRequest{Proposal: models.NewTradeProposal(userTID, userTID)})
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Summary(context.Background(), &SummaryRequest{Proposal: models.NewTradeProposal(userTID, 5)})
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestToConnectError_OwnerChanged(t *testing.T) {
	err := toConnectError(fmt.Errorf("failed to execute trade: %w", store.ErrOwnerChanged))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}
