package outbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type busStatus bool

func (b busStatus) IsConnected() bool { return bool(b) }

func okPinger() Pinger {
	return pingerFunc(func(context.Context) error { return nil })
}

func TestHealthChecker_ListenerNotRunning(t *testing.T) {
	app := NewApp(&fakeRepo{}, &fakePublisher{}, nil, testRelayConfig())
	listener := NewListener(app, newFakeNotifier(), DefaultListenerConfig())
	checker := NewHealthChecker(app, listener, okPinger(), busStatus(true), time.Minute)

	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.True(t, status.DatabaseConnected)
	assert.True(t, status.NATSConnected)
	assert.Contains(t, status.Errors, "listener not active")
}

func runningListener(app *App) *Listener {
	l := NewListener(app, newFakeNotifier(), DefaultListenerConfig())
	l.setRunning(true)
	return l
}

func TestHealthChecker_Healthy(t *testing.T) {
	app := NewApp(&fakeRepo{}, &fakePublisher{}, nil, testRelayConfig())
	checker := NewHealthChecker(app, runningListener(app), okPinger(), busStatus(true), time.Minute)

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy, status.Errors)
	assert.True(t, status.ListenerActive)
	assert.Empty(t, status.Errors)
}

func TestHealthChecker_DatabaseAndBusDown(t *testing.T) {
	app := NewApp(&fakeRepo{}, &fakePublisher{}, nil, testRelayConfig())
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	checker := NewHealthChecker(app, runningListener(app), down, busStatus(false), time.Minute)

	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.DatabaseConnected)
	assert.False(t, status.NATSConnected)
	assert.Len(t, status.Errors, 2)
}

func TestHealthChecker_StalledRelay(t *testing.T) {
	repo := &fakeRepo{}
	app := NewApp(repo, &fakePublisher{}, nil, testRelayConfig())

	ev := repo.add(EventTypeTradeAccepted)
	require.NoError(t, app.PublishByID(context.Background(), ev.ID))
	repo.add(EventTypeTradeAccepted)

	_, last := app.Stats()
	clock := clockwork.NewFakeClockAt(last.Add(10 * time.Minute))
	checker := NewHealthChecker(app, runningListener(app), okPinger(), nil, time.Minute).WithClock(clock)

	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, 1, status.PendingEvents)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "no events processed for")
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	app := NewApp(&fakeRepo{}, &fakePublisher{}, nil, testRelayConfig())
	listener := NewListener(app, newFakeNotifier(), DefaultListenerConfig())
	checker := NewHealthChecker(app, listener, okPinger(), nil, time.Minute)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Healthy)
	assert.True(t, body.DatabaseConnected)
}
