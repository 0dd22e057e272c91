package valuation

import (
	"math"
	"sort"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/trade/tuning"
)

// SeasonsRemainingFunc reports fractional contract seasons remaining.
type SeasonsRemainingFunc func(exp int) float64

// applySkillBonuses scales each asset in place by how much it fills a
// skill gap on the roster. Stars claim scarce bonuses first.
func applySkillBonuses(cfg tuning.Valuation, assets []Asset, roster []Asset) {
	counts := make(map[models.Skill]int, len(cfg.SkillTargets))
	for _, a := range roster {
		if a.Value < cfg.SkillThreshold {
			continue
		}
		for _, s := range a.Skills {
			counts[s]++
		}
	}

	order := make([]int, len(assets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return assets[order[i]].Value > assets[order[j]].Value
	})

	n := len(cfg.SkillBonuses)
	for _, i := range order {
		a := &assets[i]
		if a.Value < cfg.SkillThreshold {
			continue
		}
		for _, s := range a.Skills {
			target, ok := cfg.SkillTargets[s]
			if !ok {
				continue
			}
			for k, bonus := range cfg.SkillBonuses {
				if counts[s] <= target-(n-1-k) {
					a.Value *= bonus
					break
				}
			}
			counts[s]++
		}
	}
}

func signedPow(v, exp float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Copysign(math.Pow(math.Abs(v), exp), v)
}

// sumValues aggregates assets so one elite asset outweighs several
// mediocre ones of the same arithmetic total.
func sumValues(cfg tuning.Valuation, tc models.TeamContext, assets []Asset, includeInjuries bool, seasonsRemaining SeasonsRemainingFunc) float64 {
	if len(assets) == 0 {
		return 0
	}

	total := 0.0
	for _, a := range assets {
		total += signedPow(assetContribution(cfg, tc, a, includeInjuries, seasonsRemaining), cfg.Exponent)
	}
	if total == 0 {
		return 0
	}
	return math.Copysign(math.Pow(math.Abs(total), 1/cfg.Exponent), total)
}

func assetContribution(cfg tuning.Valuation, tc models.TeamContext, a Asset, includeInjuries bool, seasonsRemaining SeasonsRemainingFunc) float64 {
	v := math.Max(0, a.Value-cfg.Baseline)

	if tc.Strategy == models.StrategyRebuilding {
		age := a.Age
		if a.IsPick {
			age = cfg.PickAge
		}
		v *= cfg.AgeMultiplier(age)
	}

	if includeInjuries && a.Injury.GamesRemaining > 0 {
		if a.Injury.GamesRemaining > cfg.InjuryCutoff {
			v *= cfg.InjuryCutoffScale
		} else {
			v -= v * float64(a.Injury.GamesRemaining) / cfg.InjuryGamesScale
		}
		v = math.Max(0, v)
	}

	if !a.IsPick {
		contractValue := float64(a.Worth.Amount-a.Contract.Amount) / 1000
		sr := math.Max(0, seasonsRemaining(a.Contract.Exp))
		if sr > 1 {
			contractValue *= math.Pow(sr, 0.25)
		} else {
			contractValue *= sr
		}
		v += cfg.ContractWeight * contractValue
	}

	return v
}

// sumContracts totals salary in millions, weighted by contract length
// unless onlyThisSeason is set. Picks are ignored.
func sumContracts(assets []Asset, onlyThisSeason bool, seasonsRemaining SeasonsRemainingFunc) float64 {
	exp := 0.25
	if onlyThisSeason {
		exp = 0
	}

	total := 0.0
	for _, a := range assets {
		if a.IsPick {
			continue
		}
		sr := math.Max(0, seasonsRemaining(a.Contract.Exp))
		total += float64(a.Contract.Amount) / 1000 * math.Pow(sr, exp)
	}
	return total
}
