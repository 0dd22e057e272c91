package valuation

import (
	"github.com/mcdev12/tradeengine/go/internal/models"
)

// Asset is the common valuation record for a player or a draft pick.
type Asset struct {
	ID       int             `json:"id"`
	IsPick   bool            `json:"is_pick"`
	Value    float64         `json:"value"`
	Skills   []models.Skill  `json:"skills"`
	Contract models.Contract `json:"contract"`
	Worth    models.Contract `json:"worth"`
	Injury   models.Injury   `json:"injury"`
	Age      int             `json:"age"`
}

// AssetRefs names players and picks by id.
type AssetRefs struct {
	PIDs  []int `json:"pids"`
	DPIDs []int `json:"dpids"`
}

// Len is the number of referenced assets.
func (r AssetRefs) Len() int {
	return len(r.PIDs) + len(r.DPIDs)
}

// Empty reports whether nothing is referenced.
func (r AssetRefs) Empty() bool {
	return r.Len() == 0
}

// RefsFromSide converts a proposal side into refs.
func RefsFromSide(s models.TradeSide) AssetRefs {
	return AssetRefs{PIDs: s.PIDs, DPIDs: s.DPIDs}
}

// PlayerAsset builds an asset from a player. useContractValue selects the
// contract-inclusive value, used for players a team would receive.
func PlayerAsset(lc models.LeagueContext, p models.Player, worth models.Contract, useContractValue bool) Asset {
	value := p.Value
	if useContractValue {
		value = p.ValueWithContract
	}
	return Asset{
		ID:       p.PID,
		Value:    value,
		Skills:   append([]models.Skill(nil), p.Ratings.Skills...),
		Contract: p.Contract,
		Worth:    worth,
		Injury:   p.Injury,
		Age:      p.Age(lc.Season),
	}
}

// PickAsset builds an asset from a draft pick and its rookie contract.
// Picks carry no contract surplus, so worth equals the contract.
func PickAsset(dp models.DraftPick, value float64, rookie models.Contract, age int) Asset {
	return Asset{
		ID:       dp.DPID,
		IsPick:   true,
		Value:    value,
		Contract: rookie,
		Worth:    rookie,
		Age:      age,
	}
}

func cloneAssets(in []Asset) []Asset {
	out := make([]Asset, len(in))
	for i, a := range in {
		a.Skills = append([]models.Skill(nil), a.Skills...)
		out[i] = a
	}
	return out
}
