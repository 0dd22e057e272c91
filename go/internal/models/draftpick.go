package models

import "fmt"

// DraftPick represents a tradable future (or current) draft pick.
type DraftPick struct {
	DPID           int    `json:"dpid"`
	TID            int    `json:"tid"` // current owner
	Abbrev         string `json:"abbrev"`
	OriginalTID    int    `json:"original_tid"` // team whose record decides the slot
	OriginalAbbrev string `json:"original_abbrev"`
	Round          int    `json:"round"`
	Season         int    `json:"season"`
}

// Desc is the human readable description used in summaries and logs,
// e.g. "2026 1st round pick (BOS)".
func (dp DraftPick) Desc() string {
	return fmt.Sprintf("%d %s round pick (%s)", dp.Season, ordinal(dp.Round), dp.OriginalAbbrev)
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
