package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    "trade_outbox_events",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
	}
}

// Notifier delivers Postgres notifications. *pq.Listener satisfies it.
type Notifier interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// NewPQNotifier opens a pq.Listener on the configured channel.
func NewPQNotifier(cfg ListenerConfig) (*pq.Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")
	return l, nil
}

// Listener relays outbox rows as soon as they are notified, with a
// periodic sweep for anything a dropped connection missed.
type Listener struct {
	app      *App
	notifier Notifier
	cfg      ListenerConfig
	clock    clockwork.Clock

	mu      sync.Mutex
	running bool
}

func NewListener(app *App, notifier Notifier, cfg ListenerConfig) *Listener {
	return &Listener{
		app:      app,
		notifier: notifier,
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock driving the ping and fallback tickers.
func (l *Listener) WithClock(c clockwork.Clock) *Listener {
	l.clock = c
	return l
}

// Running reports whether Start is looping.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) setRunning(v bool) {
	l.mu.Lock()
	l.running = v
	l.mu.Unlock()
}

// Start blocks until ctx is done, then closes the notifier.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	l.setRunning(true)
	defer l.setRunning(false)

	pingTicker := l.clock.NewTicker(l.cfg.PingInterval)
	fallbackTicker := l.clock.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// catch up on anything written while we were down
	l.sweep(ctx)

	notifications := l.notifier.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.notifier.Close()
		case note := <-notifications:
			if note == nil {
				// connection was re-established, notifications may have been lost
				l.sweep(ctx)
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.Chan():
			l.sweep(ctx)
		case <-pingTicker.Chan():
			if err := l.notifier.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) sweep(ctx context.Context) {
	if _, err := l.app.PublishPending(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}
}

// handleNotification publishes the outbox row whose id is the payload.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}
	return l.app.PublishByID(ctx, id)
}
