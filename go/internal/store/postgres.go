package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/outbox"
	"github.com/mcdev12/tradeengine/go/internal/sqlutil"
)

//go:embed schema.sql
var schema string

// PostgresStore is the database/sql implementation of every repository the
// trade engine consumes.
type PostgresStore struct {
	db      *sql.DB
	queries *Queries
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		queries: New(db),
	}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func newQueries(tx *sql.Tx) *Queries {
	return New(tx)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (s *PostgresStore) GetLeagueContext(ctx context.Context) (models.LeagueContext, error) {
	lc, err := s.queries.GetLeagueSettings(ctx)
	if err != nil {
		return models.LeagueContext{}, notFound(err, "league settings")
	}
	return lc, nil
}

func (s *PostgresStore) SaveLeagueContext(ctx context.Context, lc models.LeagueContext) error {
	if err := s.queries.UpsertLeagueSettings(ctx, lc); err != nil {
		return fmt.Errorf("failed to save league settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTeam(ctx context.Context, tid int) (*models.Team, error) {
	team, err := s.queries.GetTeam(ctx, tid)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("team %d", tid))
	}
	seasons, err := s.queries.ListTeamSeasons(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list team seasons: %w", err)
	}
	for _, ts := range seasons {
		if ts.TID == tid {
			team.Seasons = append(team.Seasons, ts)
		}
	}
	return &team, nil
}

func (s *PostgresStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.queries.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	seasons, err := s.queries.ListTeamSeasons(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list team seasons: %w", err)
	}
	byTeam := make(map[int][]models.TeamSeason, len(teams))
	for _, ts := range seasons {
		byTeam[ts.TID] = append(byTeam[ts.TID], ts)
	}
	for i := range teams {
		teams[i].Seasons = byTeam[teams[i].TID]
	}
	return teams, nil
}

func (s *PostgresStore) ListPlayersByTeam(ctx context.Context, tid int) ([]models.Player, error) {
	players, err := s.queries.ListPlayersByTeam(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to list players by team: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) GetPlayers(ctx context.Context, pids []int) ([]models.Player, error) {
	if len(pids) == 0 {
		return nil, nil
	}
	players, err := s.queries.GetPlayersByIDs(ctx, pids)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) ListDraftProspects(ctx context.Context, draftYear int) ([]models.Player, error) {
	players, err := s.queries.ListDraftProspects(ctx, draftYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft prospects: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) GetDraftPicks(ctx context.Context, dpids []int) ([]models.DraftPick, error) {
	if len(dpids) == 0 {
		return nil, nil
	}
	picks, err := s.queries.GetDraftPicksByIDs(ctx, dpids)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft picks: %w", err)
	}
	return picks, nil
}

func (s *PostgresStore) ListDraftPicksByTeam(ctx context.Context, tid int) ([]models.DraftPick, error) {
	picks, err := s.queries.ListDraftPicksByTeam(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft picks by team: %w", err)
	}
	return picks, nil
}

func decodeDraft(raw pqtype.NullRawMessage) (*models.TradeProposal, error) {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return nil, nil
	}
	var p models.TradeProposal
	if err := json.Unmarshal(raw.RawMessage, &p); err != nil {
		return nil, fmt.Errorf("failed to decode trade draft: %w", err)
	}
	return &p, nil
}

func encodeDraft(p models.TradeProposal) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to encode trade draft: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// GetTradeDraft returns the persisted proposal or ErrNotFound.
func (s *PostgresStore) GetTradeDraft(ctx context.Context) (models.TradeProposal, error) {
	raw, err := s.queries.GetTradeDraft(ctx)
	if err != nil {
		return models.TradeProposal{}, notFound(err, "trade draft")
	}
	p, err := decodeDraft(raw)
	if err != nil {
		return models.TradeProposal{}, err
	}
	if p == nil {
		return models.TradeProposal{}, fmt.Errorf("trade draft: %w", ErrNotFound)
	}
	return *p, nil
}

// UpdateTradeDraft runs fn on the locked draft row and saves the result in
// the same transaction.
func (s *PostgresStore) UpdateTradeDraft(ctx context.Context, fn DraftUpdateFunc) (models.TradeProposal, error) {
	var out models.TradeProposal
	err := sqlutil.Run(ctx, s.db, newQueries, func(q *Queries) error {
		raw, err := q.GetTradeDraftForUpdate(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to lock trade draft: %w", err)
		}
		cur, err := decodeDraft(raw)
		if err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		encoded, err := encodeDraft(next)
		if err != nil {
			return err
		}
		if err := q.UpsertTradeDraft(ctx, encoded); err != nil {
			return fmt.Errorf("failed to save trade draft: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return models.TradeProposal{}, err
	}
	return out, nil
}

// ExecuteTrade applies every write of an accepted trade in one transaction.
// A move whose asset is not held by its FromTID rolls the whole trade back
// with ErrOwnerChanged.
func (s *PostgresStore) ExecuteTrade(ctx context.Context, exec TradeExecution) error {
	return sqlutil.Run(ctx, s.db, newQueries, func(q *Queries) error {
		for _, m := range exec.PlayerMoves {
			n, err := q.UpdatePlayerTeam(ctx, m.PID, m.TID, m.FromTID)
			if err != nil {
				return fmt.Errorf("failed to move player %d: %w", m.PID, err)
			}
			if n == 0 {
				return fmt.Errorf("player %d not on team %d: %w", m.PID, m.FromTID, ErrOwnerChanged)
			}
		}
		for _, m := range exec.PickMoves {
			n, err := q.UpdateDraftPickOwner(ctx, m.DPID, m.TID, m.Abbrev, m.FromTID)
			if err != nil {
				return fmt.Errorf("failed to move draft pick %d: %w", m.DPID, err)
			}
			if n == 0 {
				return fmt.Errorf("draft pick %d not owned by team %d: %w", m.DPID, m.FromTID, ErrOwnerChanged)
			}
		}
		if err := q.InsertEvent(ctx, exec.Event); err != nil {
			return fmt.Errorf("failed to insert trade event: %w", err)
		}
		if exec.Outbox.ID != uuid.Nil {
			payload := pqtype.NullRawMessage{RawMessage: exec.Outbox.Payload, Valid: len(exec.Outbox.Payload) > 0}
			if err := q.InsertOutboxEvent(ctx, exec.Outbox.ID, exec.Outbox.EventType, payload, exec.Outbox.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert outbox event: %w", err)
			}
		}
		if exec.ClearDraft != nil {
			encoded, err := encodeDraft(*exec.ClearDraft)
			if err != nil {
				return err
			}
			if err := q.UpsertTradeDraft(ctx, encoded); err != nil {
				return fmt.Errorf("failed to clear trade draft: %w", err)
			}
		}
		return nil
	})
}

// SaveRosterOrder persists a sorted roster in one transaction.
func (s *PostgresStore) SaveRosterOrder(ctx context.Context, slots []models.RosterSlot) error {
	return sqlutil.Run(ctx, s.db, newQueries, func(q *Queries) error {
		for _, slot := range slots {
			if err := q.UpdatePlayerRosterSlot(ctx, slot); err != nil {
				return fmt.Errorf("failed to update roster slot for player %d: %w", slot.PID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListEvents(ctx context.Context, limit int) ([]models.TradeEvent, error) {
	events, err := s.queries.ListEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func outboxFromRow(r OutboxRow) outbox.OutboxEvent {
	return outbox.OutboxEvent{
		ID:        r.ID,
		EventType: r.EventType,
		Payload:   r.Payload.RawMessage,
		CreatedAt: r.CreatedAt,
		SentAt:    sqlutil.FromSqlTime(r.SentAt),
	}
}

func (s *PostgresStore) FetchUnsentOutbox(ctx context.Context, limit int32) ([]outbox.OutboxEvent, error) {
	rows, err := s.queries.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	events := make([]outbox.OutboxEvent, len(rows))
	for i, r := range rows {
		events[i] = outboxFromRow(r)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (s *PostgresStore) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*outbox.OutboxEvent, error) {
	row, err := s.queries.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %w", outbox.ErrEventNotPending, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	ev := outboxFromRow(row)
	return &ev, nil
}

func (s *PostgresStore) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.MarkOutboxSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountPendingOutbox(ctx context.Context) (int, error) {
	count, err := s.queries.CountPendingOutbox(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}
	return count, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
