package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/tradeengine/go/internal/dbconfig"
	"github.com/mcdev12/tradeengine/go/internal/models"
)

// Snapshot mirrors the league JSON layout
type Snapshot struct {
	League     models.LeagueContext `json:"league"`
	Teams      []models.Team        `json:"teams"`
	Players    []models.Player      `json:"players"`
	DraftPicks []models.DraftPick   `json:"draft_picks"`
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JSON: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// validate checks the references the engine relies on.
func (s *Snapshot) validate() error {
	if s.League.NumTeams != len(s.Teams) {
		return fmt.Errorf("league has %d teams but snapshot lists %d", s.League.NumTeams, len(s.Teams))
	}
	tids := make(map[int]bool, len(s.Teams))
	for _, t := range s.Teams {
		if t.TID < 0 || t.TID >= s.League.NumTeams {
			return fmt.Errorf("team %s has out of range tid %d", t.Abbrev, t.TID)
		}
		tids[t.TID] = true
	}
	if !tids[s.League.UserTID] {
		return fmt.Errorf("user tid %d is not a team", s.League.UserTID)
	}

	var errs []error
	for _, p := range s.Players {
		if p.TID >= 0 && !tids[p.TID] {
			errs = append(errs, fmt.Errorf("player %d is on unknown team %d", p.PID, p.TID))
		}
	}
	for _, dp := range s.DraftPicks {
		if !tids[dp.TID] || !tids[dp.OriginalTID] {
			errs = append(errs, fmt.Errorf("draft pick %d references an unknown team", dp.DPID))
		}
	}
	return errors.Join(errs...)
}

func skills(p models.Player) []string {
	out := make([]string, 0, len(p.Ratings.Skills))
	for _, s := range p.Ratings.Skills {
		out = append(out, string(s))
	}
	return out
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func seed(ctx context.Context, tx pgx.Tx, snap *Snapshot) error {
	lc := snap.League
	if _, err := tx.Exec(ctx, `
        INSERT INTO league_settings (
          id, season, phase, num_games, num_teams, num_draft_rounds,
          salary_cap, min_contract, max_contract, user_tid, days_left
        ) VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (id) DO UPDATE SET
          season = EXCLUDED.season, phase = EXCLUDED.phase,
          num_games = EXCLUDED.num_games, num_teams = EXCLUDED.num_teams,
          num_draft_rounds = EXCLUDED.num_draft_rounds, salary_cap = EXCLUDED.salary_cap,
          min_contract = EXCLUDED.min_contract, max_contract = EXCLUDED.max_contract,
          user_tid = EXCLUDED.user_tid, days_left = EXCLUDED.days_left
    `,
		lc.Season, int(lc.Phase), lc.NumGames, lc.NumTeams, lc.NumDraftRounds,
		lc.SalaryCap, lc.MinContract, lc.MaxContract, lc.UserTID, lc.DaysLeft,
	); err != nil {
		return fmt.Errorf("upsert league settings: %w", err)
	}

	for _, t := range snap.Teams {
		if _, err := tx.Exec(ctx, `
            INSERT INTO teams (tid, region, name, abbrev, strategy)
            VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (tid) DO UPDATE SET
              region = EXCLUDED.region, name = EXCLUDED.name,
              abbrev = EXCLUDED.abbrev, strategy = EXCLUDED.strategy
        `,
			t.TID, t.Region, t.Name, t.Abbrev, defaultString(string(t.Strategy), string(models.StrategyContending)),
		); err != nil {
			return fmt.Errorf("upsert team %s: %w", t.Abbrev, err)
		}
		for _, ts := range t.Seasons {
			if _, err := tx.Exec(ctx, `
                INSERT INTO team_seasons (tid, season, won, lost)
                VALUES ($1,$2,$3,$4)
                ON CONFLICT (tid, season) DO UPDATE SET won = EXCLUDED.won, lost = EXCLUDED.lost
            `, t.TID, ts.Season, ts.Won, ts.Lost); err != nil {
				return fmt.Errorf("upsert season %d for team %s: %w", ts.Season, t.Abbrev, err)
			}
		}
	}

	batch := &pgx.Batch{}
	for _, p := range snap.Players {
		batch.Queue(`
            INSERT INTO players (
              pid, tid, first_name, last_name, born_year, draft_year,
              value, value_with_contract, ovr, pot, skills,
              contract_amount, contract_exp, injury_type, injury_games_remaining,
              games_until_tradable, roster_order, roster_position, acquired_via
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
            ON CONFLICT (pid) DO NOTHING
        `,
			p.PID, p.TID, p.FirstName, p.LastName, p.BornYear, p.DraftYear,
			p.Value, p.ValueWithContract, p.Ratings.Ovr, p.Ratings.Pot, skills(p),
			p.Contract.Amount, p.Contract.Exp, defaultString(p.Injury.Type, "Healthy"), p.Injury.GamesRemaining,
			p.GamesUntilTradable, p.RosterOrder,
			defaultString(string(p.RosterPosition), string(models.RosterPositionBench)),
			defaultString(string(p.AcquiredVia), string(models.AcquisitionTypeDraft)),
		)
	}
	for _, dp := range snap.DraftPicks {
		batch.Queue(`
            INSERT INTO draft_picks (dpid, tid, abbrev, original_tid, original_abbrev, round, season)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (dpid) DO NOTHING
        `, dp.DPID, dp.TID, dp.Abbrev, dp.OriginalTID, dp.OriginalAbbrev, dp.Round, dp.Season)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return results.Close()
}

func main() {
	ctx := context.Background()

	path := "go/internal/assets/league.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	snap, err := loadSnapshot(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed in one transaction
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return seed(ctx, tx, snap)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"League seed complete: season %d, %d teams, %d players, %d draft picks\n",
		snap.League.Season, len(snap.Teams), len(snap.Players), len(snap.DraftPicks),
	)
}
