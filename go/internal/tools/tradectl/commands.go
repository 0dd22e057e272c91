package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcdev12/tradeengine/go/internal/trade"
)

func newProposeCmd(opts *options) *cobra.Command {
	var (
		flags proposalFlags
		force bool
	)
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Offer a trade to another team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.Propose(ctx, &trade.ProposeRequest{Proposal: flags.proposal(), ForceTrade: force})
				if err != nil {
					return fmt.Errorf("failed to propose trade: %w", err)
				}
				if opts.asJSON {
					return printJSON(out, res)
				}
				printProposeResult(out, res)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "execute regardless of value or cap rules")
	return cmd
}

func newMakeItWorkCmd(opts *options) *cobra.Command {
	var (
		flags proposalFlags
		hold  bool
	)
	cmd := &cobra.Command{
		Use:   "make-it-work",
		Short: "Ask the other team to balance a proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.MakeItWork(ctx, &trade.MakeItWorkRequest{
					Proposal:              flags.proposal(),
					HoldInitiatorConstant: hold,
				})
				if err != nil {
					return fmt.Errorf("failed to negotiate: %w", err)
				}
				if opts.asJSON {
					return printJSON(out, res)
				}
				fmt.Fprintln(out, res.Message)
				if res.Found && res.Summary != nil {
					printSummary(out, res.Summary)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&hold, "hold", false, "only add assets from the other team")
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	var flags proposalFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show salaries and cap status for a proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.Summary(ctx, &trade.SummaryRequest{Proposal: flags.proposal()})
				if err != nil {
					return fmt.Errorf("failed to summarize trade: %w", err)
				}
				if opts.asJSON {
					return printJSON(out, res)
				}
				printSummary(out, res.Summary)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newDraftCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or edit the saved trade proposal",
	}

	printDraft := func(out io.Writer, res *trade.DraftResponse) error {
		if opts.asJSON {
			return printJSON(out, res)
		}
		printProposal(out, res.Proposal)
		if res.Summary != nil {
			printSummary(out, res.Summary)
		}
		return nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.GetDraft(ctx)
				if err != nil {
					return fmt.Errorf("failed to get draft: %w", err)
				}
				return printDraft(out, res)
			})
		},
	}

	var flags proposalFlags
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the saved proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.UpdateDraft(ctx, &trade.UpdateDraftRequest{Proposal: flags.proposal()})
				if err != nil {
					return fmt.Errorf("failed to update draft: %w", err)
				}
				return printDraft(out, res)
			})
		},
	}
	flags.register(set)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty both sides of the saved proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.ClearDraft(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear draft: %w", err)
				}
				return printDraft(out, res)
			})
		},
	}

	cmd.AddCommand(show, set, clearCmd)
	return cmd
}

func newBlockCmd(opts *options) *cobra.Command {
	var pids, dpids []int
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Collect offers from every team for assets on your trading block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pids) == 0 && len(dpids) == 0 {
				return fmt.Errorf("put at least one player or pick on the block")
			}
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.TradingBlock(ctx, &trade.TradingBlockRequest{PIDs: pids, DPIDs: dpids})
				if err != nil {
					return fmt.Errorf("failed to get offers: %w", err)
				}
				if opts.asJSON {
					return printJSON(out, res)
				}
				printOffers(out, res.Offers)
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&pids, "pids", nil, "player ids on the block")
	cmd.Flags().IntSliceVar(&dpids, "dpids", nil, "draft pick ids on the block")
	return cmd
}

func newPicksCmd(opts *options) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Show estimated draft pick values by slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, client *trade.Client, out io.Writer) error {
				res, err := client.PickValues(ctx, &trade.PickValuesRequest{Refresh: refresh})
				if err != nil {
					return fmt.Errorf("failed to get pick values: %w", err)
				}
				if opts.asJSON {
					return printJSON(out, res)
				}
				printPickTable(out, res)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-estimate from the current draft classes")
	return cmd
}
