package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

// ErrInvalidConfig is returned when a tuning file fails validation.
var ErrInvalidConfig = errors.New("invalid tuning config")

// Config holds every product-tuned constant of trade valuation and
// negotiation. Default() carries the shipped values.
type Config struct {
	Valuation   Valuation   `yaml:"valuation"`
	Picks       Picks       `yaml:"picks"`
	Negotiation Negotiation `yaml:"negotiation"`
}

type Valuation struct {
	// FudgeFactor inflates what an AI team gives up.
	FudgeFactor     float64 `yaml:"fudge_factor"`
	Baseline        float64 `yaml:"baseline"`
	Exponent        float64 `yaml:"exponent"`
	ContractWeight  float64 `yaml:"contract_weight"`
	MaxRemovedPicks int     `yaml:"max_removed_picks"`
	// Contract factors weight salary shed against salary taken on.
	RebuildingContractFactor float64 `yaml:"rebuilding_contract_factor"`
	ContendingContractFactor float64 `yaml:"contending_contract_factor"`

	InjuryCutoff      int     `yaml:"injury_cutoff"`
	InjuryCutoffScale float64 `yaml:"injury_cutoff_scale"`
	InjuryGamesScale  float64 `yaml:"injury_games_scale"`

	SkillThreshold float64              `yaml:"skill_threshold"`
	SkillTargets   map[models.Skill]int `yaml:"skill_targets"`
	SkillBonuses   []float64            `yaml:"skill_bonuses"` // applied at target-2, target-1, target
	AgeMultipliers map[int]float64      `yaml:"age_multipliers"`
	PickAge        int                  `yaml:"pick_age"`

	CapRoomThreshold int     `yaml:"cap_room_threshold"`
	CapAversionBase  float64 `yaml:"cap_aversion_base"`
	CapAversionSlope float64 `yaml:"cap_aversion_slope"`
	FreeAgencyDays   int     `yaml:"free_agency_days"`
	QuantityPenalty  float64 `yaml:"quantity_penalty"`
}

type Picks struct {
	ProspectBonus      float64       `yaml:"prospect_bonus"`
	SeasonsAhead       int           `yaml:"seasons_ahead"`
	UncertaintyHorizon int           `yaml:"uncertainty_horizon"`
	Default            []float64     `yaml:"default"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

type Negotiation struct {
	MaxAdditions int `yaml:"max_additions"`
	// Once the counterparty already likes a deal, it pushes for more until
	// it has added this many assets, or stops at random after the first.
	PositiveMaxAdditions int           `yaml:"positive_max_additions"`
	PositiveStopChance   float64       `yaml:"positive_stop_chance"`
	MaxRounds            int           `yaml:"max_rounds"`
	MaxDuration          time.Duration `yaml:"max_duration"`
}

// DefaultPickCurve is the value-by-slot fallback for seasons without a
// generated draft class.
var DefaultPickCurve = []float64{
	75, 73, 71, 69, 68, 67, 66, 65, 64, 63,
	62, 61, 60, 59.5, 59, 58.5, 58, 57.5, 57, 56.5,
	56, 55.5, 55, 54.5, 54, 53.5, 53, 52.5, 52, 51.5,
	51, 50.5, 50, 49.5, 49, 48.5, 48, 47.5, 47, 46.5,
	46, 45.5, 45, 44.5, 44, 43.5, 43, 42.5, 42, 41.5,
	41, 40.5, 40, 39.5, 39, 38.5, 38, 37.5, 37, 37,
}

// Default returns the shipped tuning.
func Default() Config {
	return Config{
		Valuation: Valuation{
			FudgeFactor:              1.05,
			Baseline:                 45,
			Exponent:                 1.25,
			ContractWeight:           0.5,
			MaxRemovedPicks:          2,
			RebuildingContractFactor: 0.3,
			ContendingContractFactor: 0.1,
			InjuryCutoff:             75,
			InjuryCutoffScale:        0.25,
			InjuryGamesScale:         100,
			SkillThreshold:           45,
			SkillTargets: map[models.Skill]int{
				models.SkillThreePoint:  5,
				models.SkillAthlete:     5,
				models.SkillBallHandler: 3,
				models.SkillInteriorD:   2,
				models.SkillPerimeterD:  2,
				models.SkillPostScorer:  2,
				models.SkillPasser:      4,
				models.SkillRebounder:   3,
			},
			SkillBonuses: []float64{1.1, 1.05, 1.025},
			AgeMultipliers: map[int]float64{
				19: 1.15,
				20: 1.1,
				21: 1.075,
				22: 1.05,
				23: 1.025,
				27: 0.975,
				28: 0.95,
				29: 0.9,
			},
			PickAge:          19,
			CapRoomThreshold: 2000,
			CapAversionBase:  0.2,
			CapAversionSlope: 0.8,
			FreeAgencyDays:   30,
			QuantityPenalty:  1,
		},
		Picks: Picks{
			ProspectBonus:      4,
			SeasonsAhead:       4,
			UncertaintyHorizon: 5,
			Default:            append([]float64(nil), DefaultPickCurve...),
			CacheTTL:           10 * time.Minute,
		},
		Negotiation: Negotiation{
			MaxAdditions:         5,
			PositiveMaxAdditions: 2,
			PositiveStopChance:   0.5,
			MaxRounds:            6,
			MaxDuration:          2 * time.Second,
		},
	}
}

// Load reads a YAML tuning file on top of Default(). An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configs that would make valuation meaningless.
func (c Config) Validate() error {
	v := c.Valuation
	switch {
	case v.Exponent <= 0:
		return fmt.Errorf("%w: exponent must be positive", ErrInvalidConfig)
	case v.FudgeFactor <= 0:
		return fmt.Errorf("%w: fudge_factor must be positive", ErrInvalidConfig)
	case len(v.SkillBonuses) == 0:
		return fmt.Errorf("%w: skill_bonuses is empty", ErrInvalidConfig)
	case len(v.SkillTargets) == 0:
		return fmt.Errorf("%w: skill_targets is empty", ErrInvalidConfig)
	case v.FreeAgencyDays <= 0:
		return fmt.Errorf("%w: free_agency_days must be positive", ErrInvalidConfig)
	case v.InjuryGamesScale <= 0:
		return fmt.Errorf("%w: injury_games_scale must be positive", ErrInvalidConfig)
	}

	p := c.Picks
	switch {
	case len(p.Default) == 0:
		return fmt.Errorf("%w: default pick curve is empty", ErrInvalidConfig)
	case p.SeasonsAhead <= 0:
		return fmt.Errorf("%w: seasons_ahead must be positive", ErrInvalidConfig)
	case p.UncertaintyHorizon <= 0:
		return fmt.Errorf("%w: uncertainty_horizon must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(p.Default); i++ {
		if p.Default[i] > p.Default[i-1] {
			return fmt.Errorf("%w: default pick curve increases at slot %d", ErrInvalidConfig, i+1)
		}
	}

	n := c.Negotiation
	if n.MaxAdditions <= 0 || n.MaxRounds <= 0 {
		return fmt.Errorf("%w: negotiation limits must be positive", ErrInvalidConfig)
	}
	return nil
}

// AgeMultiplier returns the rebuilding multiplier for an age. Ages below
// the youngest entry use the youngest, ages above the oldest use the
// oldest; ages in between without an entry are neutral.
func (v Valuation) AgeMultiplier(age int) float64 {
	if m, ok := v.AgeMultipliers[age]; ok {
		return m
	}
	youngest, oldest := 0, 0
	first := true
	for a := range v.AgeMultipliers {
		if first || a < youngest {
			youngest = a
		}
		if first || a > oldest {
			oldest = a
		}
		first = false
	}
	if first {
		return 1
	}
	if age < youngest {
		return v.AgeMultipliers[youngest]
	}
	if age > oldest {
		return v.AgeMultipliers[oldest]
	}
	return 1
}

// ContractFactor returns the salary weight for a strategy.
func (v Valuation) ContractFactor(s models.Strategy) float64 {
	if s == models.StrategyRebuilding {
		return v.RebuildingContractFactor
	}
	return v.ContendingContractFactor
}
