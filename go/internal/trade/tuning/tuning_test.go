package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Picks.Default, 60)
	assert.Equal(t, 75.0, cfg.Picks.Default[0])
	assert.Equal(t, 37.0, cfg.Picks.Default[59])
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := `
valuation:
  fudge_factor: 1.1
  skill_targets:
    Ps: 6
negotiation:
  max_duration: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.1, cfg.Valuation.FudgeFactor)
	assert.Equal(t, 6, cfg.Valuation.SkillTargets[models.SkillPasser])
	assert.Equal(t, 5, cfg.Valuation.SkillTargets[models.SkillThreePoint])
	assert.Equal(t, 500*time.Millisecond, cfg.Negotiation.MaxDuration)
	assert.Equal(t, 1.25, cfg.Valuation.Exponent)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "malformed-yaml", body: "valuation: [1, 2"},
		{name: "zero-exponent", body: "valuation:\n  exponent: 0\n", invalid: true},
		{name: "increasing-pick-curve", body: "picks:\n  default: [50, 60]\n", invalid: true},
		{name: "empty-pick-curve", body: "picks:\n  default: []\n", invalid: true},
		{name: "no-negotiation-rounds", body: "negotiation:\n  max_rounds: 0\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestAgeMultiplier(t *testing.T) {
	v := Default().Valuation

	tests := []struct {
		age  int
		want float64
	}{
		{age: 17, want: 1.15},
		{age: 19, want: 1.15},
		{age: 21, want: 1.075},
		{age: 23, want: 1.025},
		{age: 25, want: 1},
		{age: 28, want: 0.95},
		{age: 35, want: 0.9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.AgeMultiplier(tt.age), "age %d", tt.age)
	}

	assert.Equal(t, 1.0, Valuation{}.AgeMultiplier(30))
}

func TestContractFactor(t *testing.T) {
	v := Default().Valuation
	assert.Equal(t, 0.3, v.ContractFactor(models.StrategyRebuilding))
	assert.Equal(t, 0.1, v.ContractFactor(models.StrategyContending))
}
