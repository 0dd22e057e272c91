package main

import (
	"fmt"

	"github.com/mcdev12/tradeengine/go/internal/finances"
	"github.com/mcdev12/tradeengine/go/internal/roster"
	"github.com/mcdev12/tradeengine/go/internal/store"
	"github.com/mcdev12/tradeengine/go/internal/trade"
	"github.com/mcdev12/tradeengine/go/internal/trade/negotiate"
	"github.com/mcdev12/tradeengine/go/internal/trade/picks"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
	"github.com/mcdev12/tradeengine/go/internal/trade/validate"
	"github.com/mcdev12/tradeengine/go/internal/trade/valuation"
)

type Services struct {
	Trade *trade.Service
}

func setupServices(repo *store.PostgresStore, cfg tuning.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store → domain components → trade App → Service layer

	cache, err := picks.NewCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create pick cache: %w", err)
	}

	payrolls := finances.NewCalculator(repo)
	pickValuator := picks.NewValuator(repo, cfg.Picks, cache)
	valuator := valuation.NewValuator(repo, payrolls, pickValuator, cfg)
	negotiator := negotiate.NewNegotiator(valuator, repo, cfg.Negotiation)
	validator := validate.NewValidator(repo, payrolls)
	rosterApp := roster.NewApp(repo)

	tradeApp := trade.NewApp(repo, validator, valuator, negotiator, rosterApp).
		WithPickCache(pickValuator)

	return &Services{
		Trade: trade.NewService(tradeApp, repo),
	}, nil
}
