package outbox

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

const highPendingThreshold = 1000

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	LastEventTime     time.Time `json:"last_event_time"`
	EventsProcessed   uint64    `json:"events_processed"`
	PendingEvents     int       `json:"pending_events"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	ListenerActive    bool      `json:"listener_active"`
	Errors            []string  `json:"errors"`
}

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnStatus reports message bus connectivity. *nats.Conn satisfies it.
type ConnStatus interface {
	IsConnected() bool
}

type HealthChecker struct {
	app       *App
	listener  *Listener
	db        Pinger
	bus       ConnStatus
	threshold time.Duration // How long without events before unhealthy
	clock     clockwork.Clock
}

// NewHealthChecker builds a checker. bus may be nil when the relay runs
// without a message bus.
func NewHealthChecker(app *App, listener *Listener, db Pinger, bus ConnStatus, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		app:       app,
		listener:  listener,
		db:        db,
		bus:       bus,
		threshold: threshold,
		clock:     clockwork.NewRealClock(),
	}
}

func (h *HealthChecker) WithClock(c clockwork.Clock) *HealthChecker {
	h.clock = c
	return h
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	status.EventsProcessed, status.LastEventTime = h.app.Stats()

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.bus != nil {
		status.NATSConnected = h.bus.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	status.ListenerActive = h.listener.Running()
	if !status.ListenerActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "listener not active")
	}

	if status.DatabaseConnected {
		pending, err := h.app.Pending(ctx)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = pending
			if pending > highPendingThreshold {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", pending))
			}
		}
	}

	// stalled: work is waiting but nothing has gone out for a while
	if status.PendingEvents > 0 && !status.LastEventTime.IsZero() {
		since := h.clock.Since(status.LastEventTime)
		if since > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no events processed for %s", since))
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
