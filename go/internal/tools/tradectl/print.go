package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInts(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

// millions renders a salary in thousands as $X.XXM.
func millions(thousands int) string {
	return "$" + decimal.NewFromInt(int64(thousands)).Shift(-3).StringFixed(2) + "M"
}

func printProposal(out io.Writer, p models.TradeProposal) {
	for _, side := range p.Teams {
		fmt.Fprintf(out, "team %d sends players [%s] picks [%s]\n", side.TID, joinInts(side.PIDs), joinInts(side.DPIDs))
	}
}

func printSummary(out io.Writer, s *models.TradeSummary) {
	if s == nil {
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, team := range s.Teams {
		fmt.Fprintf(w, "%s sends\t\t\n", team.Name)
		for _, p := range team.Trade {
			fmt.Fprintf(w, "  %s\t%d ovr / %d pot, age %d\t%s thru %d\n",
				p.Name, p.Ovr, p.Pot, p.Age, millions(p.Contract.Amount), p.Contract.Exp)
		}
		for _, dp := range team.Picks {
			fmt.Fprintf(w, "  %s\t\t\n", dp.Desc)
		}
		ratio := "n/a"
		if team.Ratio != nil {
			ratio = fmt.Sprintf("%d%%", *team.Ratio)
		}
		capNote := ""
		if team.OverCap {
			capNote = " (over cap)"
		}
		fmt.Fprintf(w, "  outgoing %s\tpayroll after trade $%sM%s\tincoming ratio %s\n",
			millions(team.Total), team.PayrollAfterTrade, capNote, ratio)
	}
	_ = w.Flush()
	if s.HasWarning() {
		fmt.Fprintf(out, "warning: %s\n", s.Warning)
	}
}

func printProposeResult(out io.Writer, res *trade.ProposeResult) {
	switch {
	case res.Accepted:
		fmt.Fprintln(out, res.Message)
		if res.Event != nil {
			fmt.Fprintln(out, res.Event.Text)
		}
	case res.Message != "":
		fmt.Fprintln(out, res.Message)
	default:
		printSummary(out, res.Summary)
	}
}

func printOffers(out io.Writer, offers []trade.Offer) {
	if len(offers) == 0 {
		fmt.Fprintln(out, "No offers.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEAM\tPLAYERS\tPICKS\tDV")
	for _, o := range offers {
		side := o.Proposal.Teams[1]
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n", o.TID, joinInts(side.PIDs), joinInts(side.DPIDs), o.DV)
	}
	_ = w.Flush()
}

func printPickTable(out io.Writer, res *trade.PickValuesResponse) {
	if res.Table == nil {
		return
	}
	seasons := make([]int, 0, len(res.Table.Seasons))
	for season := range res.Table.Seasons {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, season := range seasons {
		fmt.Fprintf(w, "%d\t%s\n", season, formatCurve(res.Table.Seasons[season]))
	}
	fmt.Fprintf(w, "default\t%s\n", formatCurve(res.Table.Default))
	_ = w.Flush()
}

func formatCurve(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, " ")
}
