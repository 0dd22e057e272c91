package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade"
)

type options struct {
	server  string
	asJSON  bool
	timeout time.Duration

	// newClient is replaced in tests
	newClient func(server string) *trade.Client
}

// proposalFlags builds a proposal from the command line
type proposalFlags struct {
	user      int
	with      int
	give      []int
	get       []int
	givePicks []int
	getPicks  []int
}

func (f *proposalFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.user, "user", 0, "your team id")
	cmd.Flags().IntVar(&f.with, "with", 1, "team id of the trading partner")
	cmd.Flags().IntSliceVar(&f.give, "give", nil, "player ids you send")
	cmd.Flags().IntSliceVar(&f.get, "get", nil, "player ids you receive")
	cmd.Flags().IntSliceVar(&f.givePicks, "give-picks", nil, "draft pick ids you send")
	cmd.Flags().IntSliceVar(&f.getPicks, "get-picks", nil, "draft pick ids you receive")
}

func (f *proposalFlags) proposal() models.TradeProposal {
	p := models.NewTradeProposal(f.user, f.with)
	p.Teams[0].PIDs = append(p.Teams[0].PIDs, f.give...)
	p.Teams[0].DPIDs = append(p.Teams[0].DPIDs, f.givePicks...)
	p.Teams[1].PIDs = append(p.Teams[1].PIDs, f.get...)
	p.Teams[1].DPIDs = append(p.Teams[1].DPIDs, f.getPicks...)
	return p
}

func defaultServer() string {
	if v := os.Getenv("TRADE_ENGINE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newRootCmd() *cobra.Command {
	opts := &options{
		newClient: func(server string) *trade.Client {
			return trade.NewClient(http.DefaultClient, server)
		},
	}

	cmd := &cobra.Command{
		Use:   "tradectl",
		Short: "Propose and negotiate trades against a trade engine server",
		Long: `tradectl talks to the trade engine API.

Examples:
  # Offer player 12 for player 40 and a pick from team 3
  tradectl propose --with 3 --give 12 --get 40 --get-picks 7

  # Ask team 3 what it would add to balance the saved draft
  tradectl make-it-work --with 3 --give 12`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", defaultServer(), "trade engine base URL")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON responses")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newProposeCmd(opts),
		newMakeItWorkCmd(opts),
		newSummaryCmd(opts),
		newDraftCmd(opts),
		newBlockCmd(opts),
		newPicksCmd(opts),
	)
	return cmd
}

// run calls fn with a client and a request context bounded by --timeout.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, client *trade.Client, out io.Writer) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, o.newClient(o.server), cmd.OutOrStdout())
}
