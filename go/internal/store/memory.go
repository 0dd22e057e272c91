package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/tradeengine/go/internal/models"
	"github.com/mcdev12/tradeengine/go/internal/outbox"
)

// MemoryStore keeps a league save in process. It backs tests and the
// single-player CLI, and mirrors PostgresStore method for method.
type MemoryStore struct {
	mu      sync.RWMutex
	league  *models.LeagueContext
	teams   map[int]models.Team
	players map[int]models.Player
	picks   map[int]models.DraftPick
	draft   *models.TradeProposal
	events  []models.TradeEvent
	outbox  []outbox.OutboxEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:   make(map[int]models.Team),
		players: make(map[int]models.Player),
		picks:   make(map[int]models.DraftPick),
	}
}

func copyPlayer(p models.Player) models.Player {
	p.Ratings.Skills = append([]models.Skill(nil), p.Ratings.Skills...)
	return p
}

func copyTeam(t models.Team) models.Team {
	t.Seasons = append([]models.TeamSeason(nil), t.Seasons...)
	return t
}

// SetLeague replaces the league settings.
func (m *MemoryStore) SetLeague(lc models.LeagueContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.league = &lc
}

// AddTeam inserts or replaces a team.
func (m *MemoryStore) AddTeam(t models.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.TID] = copyTeam(t)
}

// AddPlayer inserts or replaces a player.
func (m *MemoryStore) AddPlayer(p models.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.PID] = copyPlayer(p)
}

// AddDraftPick inserts or replaces a draft pick.
func (m *MemoryStore) AddDraftPick(dp models.DraftPick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.picks[dp.DPID] = dp
}

func (m *MemoryStore) GetLeagueContext(_ context.Context) (models.LeagueContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.league == nil {
		return models.LeagueContext{}, fmt.Errorf("league settings: %w", ErrNotFound)
	}
	return *m.league, nil
}

func (m *MemoryStore) SaveLeagueContext(_ context.Context, lc models.LeagueContext) error {
	m.SetLeague(lc)
	return nil
}

func (m *MemoryStore) GetTeam(_ context.Context, tid int) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[tid]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", tid, ErrNotFound)
	}
	t = copyTeam(t)
	return &t, nil
}

func (m *MemoryStore) ListTeams(_ context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	teams := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, copyTeam(t))
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].TID < teams[j].TID })
	return teams, nil
}

func (m *MemoryStore) ListPlayersByTeam(_ context.Context, tid int) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var players []models.Player
	for _, p := range m.players {
		if p.TID == tid {
			players = append(players, copyPlayer(p))
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].RosterOrder != players[j].RosterOrder {
			return players[i].RosterOrder < players[j].RosterOrder
		}
		return players[i].PID < players[j].PID
	})
	return players, nil
}

// GetPlayers returns the players that exist, ordered by pid. Missing ids
// are skipped, matching the SQL ANY() lookup.
func (m *MemoryStore) GetPlayers(_ context.Context, pids []int) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var players []models.Player
	for _, pid := range uniqueSorted(pids) {
		if p, ok := m.players[pid]; ok {
			players = append(players, copyPlayer(p))
		}
	}
	return players, nil
}

func (m *MemoryStore) ListDraftProspects(_ context.Context, draftYear int) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var players []models.Player
	for _, p := range m.players {
		if p.TID == models.PlayerUndrafted && p.DraftYear == draftYear {
			players = append(players, copyPlayer(p))
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Value != players[j].Value {
			return players[i].Value > players[j].Value
		}
		return players[i].PID < players[j].PID
	})
	return players, nil
}

func (m *MemoryStore) GetDraftPicks(_ context.Context, dpids []int) ([]models.DraftPick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var picks []models.DraftPick
	for _, dpid := range uniqueSorted(dpids) {
		if dp, ok := m.picks[dpid]; ok {
			picks = append(picks, dp)
		}
	}
	return picks, nil
}

func (m *MemoryStore) ListDraftPicksByTeam(_ context.Context, tid int) ([]models.DraftPick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var picks []models.DraftPick
	for _, dp := range m.picks {
		if dp.TID == tid {
			picks = append(picks, dp)
		}
	}
	sort.Slice(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.DPID < b.DPID
	})
	return picks, nil
}

func (m *MemoryStore) GetTradeDraft(_ context.Context) (models.TradeProposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.draft == nil {
		return models.TradeProposal{}, fmt.Errorf("trade draft: %w", ErrNotFound)
	}
	return m.draft.Clone(), nil
}

func (m *MemoryStore) UpdateTradeDraft(_ context.Context, fn DraftUpdateFunc) (models.TradeProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur *models.TradeProposal
	if m.draft != nil {
		c := m.draft.Clone()
		cur = &c
	}
	next, err := fn(cur)
	if err != nil {
		return models.TradeProposal{}, err
	}
	saved := next.Clone()
	m.draft = &saved
	return next, nil
}

// ExecuteTrade validates every move before applying any, so a failed
// trade leaves the store untouched.
func (m *MemoryStore) ExecuteTrade(_ context.Context, exec TradeExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mv := range exec.PlayerMoves {
		p, ok := m.players[mv.PID]
		if !ok {
			return fmt.Errorf("player %d: %w", mv.PID, ErrNotFound)
		}
		if p.TID != mv.FromTID {
			return fmt.Errorf("player %d not on team %d: %w", mv.PID, mv.FromTID, ErrOwnerChanged)
		}
	}
	for _, mv := range exec.PickMoves {
		dp, ok := m.picks[mv.DPID]
		if !ok {
			return fmt.Errorf("draft pick %d: %w", mv.DPID, ErrNotFound)
		}
		if dp.TID != mv.FromTID {
			return fmt.Errorf("draft pick %d not owned by team %d: %w", mv.DPID, mv.FromTID, ErrOwnerChanged)
		}
	}

	for _, mv := range exec.PlayerMoves {
		p := m.players[mv.PID]
		p.TID = mv.TID
		p.AcquiredVia = models.AcquisitionTypeTrade
		m.players[mv.PID] = p
	}
	for _, mv := range exec.PickMoves {
		dp := m.picks[mv.DPID]
		dp.TID = mv.TID
		dp.Abbrev = mv.Abbrev
		m.picks[mv.DPID] = dp
	}
	m.events = append(m.events, exec.Event)
	if exec.Outbox.ID != uuid.Nil {
		m.outbox = append(m.outbox, exec.Outbox)
	}
	if exec.ClearDraft != nil {
		cleared := exec.ClearDraft.Clone()
		m.draft = &cleared
	}
	return nil
}

func (m *MemoryStore) SaveRosterOrder(_ context.Context, slots []models.RosterSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slot := range slots {
		p, ok := m.players[slot.PID]
		if !ok {
			continue
		}
		p.RosterOrder = slot.Order
		p.RosterPosition = slot.Position
		m.players[slot.PID] = p
	}
	return nil
}

// ListEvents returns the newest events first.
func (m *MemoryStore) ListEvents(_ context.Context, limit int) ([]models.TradeEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]models.TradeEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(events) >= limit {
			break
		}
		events = append(events, m.events[i])
	}
	return events, nil
}

func (m *MemoryStore) FetchUnsentOutbox(_ context.Context, limit int32) ([]outbox.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []outbox.OutboxEvent
	for _, ev := range m.outbox {
		if ev.SentAt != nil {
			continue
		}
		if limit > 0 && int32(len(events)) >= limit {
			break
		}
		events = append(events, ev)
	}
	return events, nil
}

func (m *MemoryStore) FetchOutboxByID(_ context.Context, id uuid.UUID) (*outbox.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ev := range m.outbox {
		if ev.ID == id && ev.SentAt == nil {
			out := ev
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", outbox.ErrEventNotPending, ErrNotFound)
}

func (m *MemoryStore) MarkOutboxSent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.outbox {
		if m.outbox[i].ID == id {
			now := time.Now()
			m.outbox[i].SentAt = &now
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) CountPendingOutbox(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ev := range m.outbox {
		if ev.SentAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
