package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the hand-written statements of the trade store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const getLeagueSettings = `-- name: GetLeagueSettings :one
SELECT season, phase, num_games, num_teams, num_draft_rounds, salary_cap,
       min_contract, max_contract, user_tid, days_left
FROM league_settings
WHERE id = 1
`

func (q *Queries) GetLeagueSettings(ctx context.Context) (models.LeagueContext, error) {
	row := q.db.QueryRowContext(ctx, getLeagueSettings)
	var lc models.LeagueContext
	var phase int
	err := row.Scan(
		&lc.Season,
		&phase,
		&lc.NumGames,
		&lc.NumTeams,
		&lc.NumDraftRounds,
		&lc.SalaryCap,
		&lc.MinContract,
		&lc.MaxContract,
		&lc.UserTID,
		&lc.DaysLeft,
	)
	lc.Phase = models.Phase(phase)
	return lc, err
}

const upsertLeagueSettings = `-- name: UpsertLeagueSettings :exec
INSERT INTO league_settings (id, season, phase, num_games, num_teams, num_draft_rounds,
                             salary_cap, min_contract, max_contract, user_tid, days_left)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    season = EXCLUDED.season,
    phase = EXCLUDED.phase,
    num_games = EXCLUDED.num_games,
    num_teams = EXCLUDED.num_teams,
    num_draft_rounds = EXCLUDED.num_draft_rounds,
    salary_cap = EXCLUDED.salary_cap,
    min_contract = EXCLUDED.min_contract,
    max_contract = EXCLUDED.max_contract,
    user_tid = EXCLUDED.user_tid,
    days_left = EXCLUDED.days_left
`

func (q *Queries) UpsertLeagueSettings(ctx context.Context, lc models.LeagueContext) error {
	_, err := q.db.ExecContext(ctx, upsertLeagueSettings,
		lc.Season,
		int(lc.Phase),
		lc.NumGames,
		lc.NumTeams,
		lc.NumDraftRounds,
		lc.SalaryCap,
		lc.MinContract,
		lc.MaxContract,
		lc.UserTID,
		lc.DaysLeft,
	)
	return err
}

const getTeam = `-- name: GetTeam :one
SELECT tid, region, name, abbrev, strategy FROM teams WHERE tid = $1
`

func (q *Queries) GetTeam(ctx context.Context, tid int) (models.Team, error) {
	row := q.db.QueryRowContext(ctx, getTeam, tid)
	var t models.Team
	var strategy string
	err := row.Scan(&t.TID, &t.Region, &t.Name, &t.Abbrev, &strategy)
	t.Strategy = models.Strategy(strategy)
	return t, err
}

const listTeams = `-- name: ListTeams :many
SELECT tid, region, name, abbrev, strategy FROM teams ORDER BY tid
`

func (q *Queries) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeams)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.Team
	for rows.Next() {
		var t models.Team
		var strategy string
		if err := rows.Scan(&t.TID, &t.Region, &t.Name, &t.Abbrev, &strategy); err != nil {
			return nil, err
		}
		t.Strategy = models.Strategy(strategy)
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTeamSeasons = `-- name: ListTeamSeasons :many
SELECT tid, season, won, lost FROM team_seasons WHERE season >= $1 ORDER BY tid, season
`

func (q *Queries) ListTeamSeasons(ctx context.Context, fromSeason int) ([]models.TeamSeason, error) {
	rows, err := q.db.QueryContext(ctx, listTeamSeasons, fromSeason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.TeamSeason
	for rows.Next() {
		var ts models.TeamSeason
		if err := rows.Scan(&ts.TID, &ts.Season, &ts.Won, &ts.Lost); err != nil {
			return nil, err
		}
		items = append(items, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const playerColumns = `pid, tid, first_name, last_name, born_year, draft_year, value, value_with_contract,
       ovr, pot, skills, contract_amount, contract_exp, injury_type, injury_games_remaining,
       games_until_tradable, roster_order, roster_position, acquired_via`

const listPlayersByTeam = `-- name: ListPlayersByTeam :many
SELECT ` + playerColumns + `
FROM players
WHERE tid = $1
ORDER BY roster_order, pid
`

func (q *Queries) ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error) {
	return q.queryPlayers(ctx, listPlayersByTeam, tid)
}

const getPlayersByIDs = `-- name: GetPlayersByIDs :many
SELECT ` + playerColumns + `
FROM players
WHERE pid = ANY($1::int[])
ORDER BY pid
`

func (q *Queries) GetPlayersByIDs(ctx context.Context, pids []int) ([]models.Player, error) {
	return q.queryPlayers(ctx, getPlayersByIDs, pq.Array(toInt64s(pids)))
}

const listDraftProspects = `-- name: ListDraftProspects :many
SELECT ` + playerColumns + `
FROM players
WHERE tid = -2 AND draft_year = $1
ORDER BY value DESC
`

func (q *Queries) ListDraftProspects(ctx context.Context, draftYear int) ([]models.Player, error) {
	return q.queryPlayers(ctx, listDraftProspects, draftYear)
}

func (q *Queries) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.Player
	for rows.Next() {
		var p models.Player
		var skills pq.StringArray
		var position, acquired string
		if err := rows.Scan(
			&p.PID,
			&p.TID,
			&p.FirstName,
			&p.LastName,
			&p.BornYear,
			&p.DraftYear,
			&p.Value,
			&p.ValueWithContract,
			&p.Ratings.Ovr,
			&p.Ratings.Pot,
			&skills,
			&p.Contract.Amount,
			&p.Contract.Exp,
			&p.Injury.Type,
			&p.Injury.GamesRemaining,
			&p.GamesUntilTradable,
			&p.RosterOrder,
			&position,
			&acquired,
		); err != nil {
			return nil, err
		}
		p.Ratings.Skills = make([]models.Skill, len(skills))
		for i, s := range skills {
			p.Ratings.Skills[i] = models.Skill(s)
		}
		p.RosterPosition = models.RosterPosition(position)
		p.AcquiredVia = models.AcquisitionType(acquired)
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertPlayer = `-- name: UpsertPlayer :exec
INSERT INTO players (` + playerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (pid) DO UPDATE SET
    tid = EXCLUDED.tid,
    value = EXCLUDED.value,
    value_with_contract = EXCLUDED.value_with_contract,
    ovr = EXCLUDED.ovr,
    pot = EXCLUDED.pot,
    skills = EXCLUDED.skills,
    contract_amount = EXCLUDED.contract_amount,
    contract_exp = EXCLUDED.contract_exp,
    injury_type = EXCLUDED.injury_type,
    injury_games_remaining = EXCLUDED.injury_games_remaining,
    games_until_tradable = EXCLUDED.games_until_tradable
`

func (q *Queries) UpsertPlayer(ctx context.Context, p models.Player) error {
	skills := make([]string, len(p.Ratings.Skills))
	for i, s := range p.Ratings.Skills {
		skills[i] = string(s)
	}
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		p.PID,
		p.TID,
		p.FirstName,
		p.LastName,
		p.BornYear,
		p.DraftYear,
		p.Value,
		p.ValueWithContract,
		p.Ratings.Ovr,
		p.Ratings.Pot,
		pq.Array(skills),
		p.Contract.Amount,
		p.Contract.Exp,
		p.Injury.Type,
		p.Injury.GamesRemaining,
		p.GamesUntilTradable,
		p.RosterOrder,
		string(p.RosterPosition),
		string(p.AcquiredVia),
	)
	return err
}

const updatePlayerTeam = `-- name: UpdatePlayerTeam :execrows
UPDATE players SET tid = $2, acquired_via = 'TRADE' WHERE pid = $1 AND tid = $3
`

func (q *Queries) UpdatePlayerTeam(ctx context.Context, pid, tid, fromTID int) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlayerTeam, pid, tid, fromTID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updatePlayerRosterSlot = `-- name: UpdatePlayerRosterSlot :exec
UPDATE players SET roster_order = $2, roster_position = $3 WHERE pid = $1
`

func (q *Queries) UpdatePlayerRosterSlot(ctx context.Context, slot models.RosterSlot) error {
	_, err := q.db.ExecContext(ctx, updatePlayerRosterSlot, slot.PID, slot.Order, string(slot.Position))
	return err
}

const draftPickColumns = `dpid, tid, abbrev, original_tid, original_abbrev, round, season`

const getDraftPicksByIDs = `-- name: GetDraftPicksByIDs :many
SELECT ` + draftPickColumns + `
FROM draft_picks
WHERE dpid = ANY($1::int[])
ORDER BY dpid
`

func (q *Queries) GetDraftPicksByIDs(ctx context.Context, dpids []int) ([]models.DraftPick, error) {
	return q.queryDraftPicks(ctx, getDraftPicksByIDs, pq.Array(toInt64s(dpids)))
}

const listDraftPicksByTeam = `-- name: ListDraftPicksByTeam :many
SELECT ` + draftPickColumns + `
FROM draft_picks
WHERE tid = $1
ORDER BY season, round, dpid
`

func (q *Queries) ListDraftPicksByTeam(ctx context.Context, tid int) ([]models.DraftPick, error) {
	return q.queryDraftPicks(ctx, listDraftPicksByTeam, tid)
}

func (q *Queries) queryDraftPicks(ctx context.Context, query string, args ...interface{}) ([]models.DraftPick, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.DraftPick
	for rows.Next() {
		var dp models.DraftPick
		if err := rows.Scan(
			&dp.DPID,
			&dp.TID,
			&dp.Abbrev,
			&dp.OriginalTID,
			&dp.OriginalAbbrev,
			&dp.Round,
			&dp.Season,
		); err != nil {
			return nil, err
		}
		items = append(items, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateDraftPickOwner = `-- name: UpdateDraftPickOwner :execrows
UPDATE draft_picks SET tid = $2, abbrev = $3 WHERE dpid = $1 AND tid = $4
`

func (q *Queries) UpdateDraftPickOwner(ctx context.Context, dpid, tid int, abbrev string, fromTID int) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDraftPickOwner, dpid, tid, abbrev, fromTID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getTradeDraft = `-- name: GetTradeDraft :one
SELECT proposal FROM trade_draft WHERE id = 1
`

func (q *Queries) GetTradeDraft(ctx context.Context) (pqtype.NullRawMessage, error) {
	row := q.db.QueryRowContext(ctx, getTradeDraft)
	var proposal pqtype.NullRawMessage
	err := row.Scan(&proposal)
	return proposal, err
}

const getTradeDraftForUpdate = `-- name: GetTradeDraftForUpdate :one
SELECT proposal FROM trade_draft WHERE id = 1 FOR UPDATE
`

func (q *Queries) GetTradeDraftForUpdate(ctx context.Context) (pqtype.NullRawMessage, error) {
	row := q.db.QueryRowContext(ctx, getTradeDraftForUpdate)
	var proposal pqtype.NullRawMessage
	err := row.Scan(&proposal)
	return proposal, err
}

const upsertTradeDraft = `-- name: UpsertTradeDraft :exec
INSERT INTO trade_draft (id, proposal, updated_at)
VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET proposal = EXCLUDED.proposal, updated_at = now()
`

func (q *Queries) UpsertTradeDraft(ctx context.Context, proposal pqtype.NullRawMessage) error {
	_, err := q.db.ExecContext(ctx, upsertTradeDraft, proposal)
	return err
}

const insertEvent = `-- name: InsertEvent :exec
INSERT INTO events (id, type, text, season, pids, dpids, tids, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (q *Queries) InsertEvent(ctx context.Context, ev models.TradeEvent) error {
	_, err := q.db.ExecContext(ctx, insertEvent,
		ev.ID,
		ev.Type,
		ev.Text,
		ev.Season,
		pq.Array(toInt64s(ev.PIDs)),
		pq.Array(toInt64s(ev.DPIDs)),
		pq.Array(toInt64s(ev.TIDs)),
		ev.CreatedAt,
	)
	return err
}

const listEvents = `-- name: ListEvents :many
SELECT id, type, text, season, pids, dpids, tids, created_at
FROM events
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListEvents(ctx context.Context, limit int32) ([]models.TradeEvent, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.TradeEvent
	for rows.Next() {
		var ev models.TradeEvent
		var pids, dpids, tids pq.Int64Array
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Text, &ev.Season, &pids, &dpids, &tids, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.PIDs = fromInt64s(pids)
		ev.DPIDs = fromInt64s(dpids)
		ev.TIDs = fromInt64s(tids)
		items = append(items, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertOutboxEvent = `-- name: InsertOutboxEvent :exec
INSERT INTO trade_outbox (id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4)
`

func (q *Queries) InsertOutboxEvent(ctx context.Context, id uuid.UUID, eventType string, payload pqtype.NullRawMessage, createdAt time.Time) error {
	_, err := q.db.ExecContext(ctx, insertOutboxEvent, id, eventType, payload, createdAt)
	return err
}

type OutboxRow struct {
	ID        uuid.UUID
	EventType string
	Payload   pqtype.NullRawMessage
	CreatedAt time.Time
	SentAt    sql.NullTime
}

const fetchUnsentOutbox = `-- name: FetchUnsentOutbox :many
SELECT id, event_type, payload, created_at, sent_at
FROM trade_outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1
`

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxRow, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.EventType, &r.Payload, &r.CreatedAt, &r.SentAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const fetchOutboxByID = `-- name: FetchOutboxByID :one
SELECT id, event_type, payload, created_at, sent_at
FROM trade_outbox
WHERE id = $1 AND sent_at IS NULL
`

func (q *Queries) FetchOutboxByID(ctx context.Context, id uuid.UUID) (OutboxRow, error) {
	row := q.db.QueryRowContext(ctx, fetchOutboxByID, id)
	var r OutboxRow
	err := row.Scan(&r.ID, &r.EventType, &r.Payload, &r.CreatedAt, &r.SentAt)
	return r, err
}

const markOutboxSent = `-- name: MarkOutboxSent :exec
UPDATE trade_outbox SET sent_at = now() WHERE id = $1
`

func (q *Queries) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markOutboxSent, id)
	return err
}

const countPendingOutbox = `-- name: CountPendingOutbox :one
SELECT COUNT(*) FROM trade_outbox WHERE sent_at IS NULL
`

func (q *Queries) CountPendingOutbox(ctx context.Context) (int, error) {
	row := q.db.QueryRowContext(ctx, countPendingOutbox)
	var count int
	err := row.Scan(&count)
	return count, err
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func fromInt64s(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
