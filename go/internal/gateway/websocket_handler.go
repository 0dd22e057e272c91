package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/models"
)

const defaultHistoryLimit = 20

// HistoryProvider lists recently executed trades, newest first
type HistoryProvider interface {
	ListEvents(ctx context.Context, limit int) ([]models.TradeEvent, error)
}

// WebSocketHandler handles the trade feed and its REST companions
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	history           HistoryProvider
}

func NewWebSocketHandler(cm *ConnectionManager, history HistoryProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		history:           history,
	}
}

// HandleTradeFeed upgrades to a feed for ?tid=N, or the whole league when
// tid is absent.
func (h *WebSocketHandler) HandleTradeFeed(w http.ResponseWriter, r *http.Request) {
	tid := LeagueWide
	if raw := r.URL.Query().Get("tid"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < LeagueWide {
			http.Error(w, "invalid tid", http.StatusBadRequest)
			return
		}
		tid = n
	}

	// Upgrade writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, tid); err != nil {
		log.Error().
			Err(err).
			Int("tid", tid).
			Msg("failed to upgrade WebSocket connection")
	}
}

func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.Stats())
}

// HandleRecentTrades returns the trade log, ?limit=N entries.
func (h *WebSocketHandler) HandleRecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	events, err := h.history.ListEvents(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list trade events")
		http.Error(w, "failed to list trades", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.TradeEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": events})
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/trades", h.HandleTradeFeed)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("GET /api/trades/recent", h.HandleRecentTrades)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
