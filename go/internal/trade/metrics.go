package trade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Proposal outcomes used as the "outcome" label.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeBlocked  = "blocked"
	outcomeWarning  = "warning"
	outcomeForced   = "forced"
)

var (
	// ProposalsTotal counts proposals by outcome.
	ProposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_proposals_total",
		Help: "Total number of trade proposals by outcome",
	}, []string{"outcome"})

	// DecisionValue records the counterparty's dv for every valued proposal.
	DecisionValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trade_decision_value",
		Help:    "Decision value of valued trade proposals",
		Buckets: []float64{-50, -20, -10, -5, -2, 0, 2, 5, 10, 20, 50},
	})

	// NegotiationsTotal counts negotiation searches by whether an offer was found.
	NegotiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_negotiations_total",
		Help: "Total number of negotiation searches",
	}, []string{"found"})

	// NegotiationRounds records valuation rounds per search.
	NegotiationRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trade_negotiation_rounds",
		Help:    "Valuation rounds performed per negotiation",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})

	// NegotiationDuration records how long a search took.
	NegotiationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trade_negotiation_duration_seconds",
		Help:    "Wall-clock duration of negotiation searches",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	// TradesExecuted counts trades written to the store.
	TradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trade_executed_total",
		Help: "Total number of trades executed",
	})
)
