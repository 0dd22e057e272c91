package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// OutboxRepository defines what the app layer needs from the repository
type OutboxRepository interface {
	FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
	CountPendingOutbox(ctx context.Context) (int, error)
}

// RelayConfig controls batching and publish retries
type RelayConfig struct {
	BatchSize  int32
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:  100,
		MaxRetries: 5,
		RetryDelay: 200 * time.Millisecond,
	}
}

// App relays outbox rows to the message bus and marks them sent
type App struct {
	repo      OutboxRepository
	publisher EventPublisher
	metrics   MetricsCollector
	cfg       RelayConfig
	clock     clockwork.Clock

	mu        sync.Mutex
	processed uint64
	lastEvent time.Time
}

// NewApp creates a new outbox App. metrics may be nil.
func NewApp(repo OutboxRepository, publisher EventPublisher, metrics MetricsCollector, cfg RelayConfig) *App {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &App{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used for retry backoff.
func (a *App) WithClock(c clockwork.Clock) *App {
	a.clock = c
	return a
}

// PublishByID publishes one pending event, typically after a NOTIFY. An
// event that was already sent by the fallback sweep is skipped.
func (a *App) PublishByID(ctx context.Context, id uuid.UUID) error {
	event, err := a.repo.FetchOutboxByID(ctx, id)
	if errors.Is(err, ErrEventNotPending) {
		log.Debug().Str("event_id", id.String()).Msg("outbox event already sent")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := a.publishWithRetry(ctx, *event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := a.markSent(ctx, *event); err != nil {
		return err
	}

	log.Info().Str("event_id", id.String()).Msg("published and marked event as sent")
	return nil
}

// PublishPending sweeps unsent events in creation order. Events that fail
// to publish stay pending for the next sweep. It returns how many were sent.
func (a *App) PublishPending(ctx context.Context) (int, error) {
	start := a.clock.Now()
	unsent, err := a.repo.FetchUnsentOutbox(ctx, a.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	sent := 0
	for _, event := range unsent {
		if err := a.publishWithRetry(ctx, event); err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to publish event")
			continue
		}
		if err := a.markSent(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to mark outbox event as sent")
			continue
		}
		sent++
	}

	if len(unsent) > 0 {
		a.metrics.RecordBatchProcessed(sent, a.clock.Since(start))
		log.Info().Int("total", len(unsent)).Int("successful", sent).Msg("processed outbox events")
	}

	if pending, err := a.repo.CountPendingOutbox(ctx); err == nil {
		a.metrics.RecordOutboxLag(pending)
	}
	return sent, nil
}

func (a *App) markSent(ctx context.Context, event OutboxEvent) error {
	if err := a.repo.MarkOutboxSent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark outbox event %s as sent: %w", event.ID, err)
	}
	a.mu.Lock()
	a.processed++
	a.lastEvent = a.clock.Now()
	a.mu.Unlock()
	return nil
}

// publishWithRetry publishes with linear backoff, MaxRetries retries.
func (a *App) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(a.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		err := a.publisher.Publish(ctx, event)
		a.metrics.RecordPublishAttempt(event.EventType, attempt+1, err == nil)
		if err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", a.cfg.MaxRetries+1, lastErr)
}

// Stats reports how many events were relayed and when the last one was.
func (a *App) Stats() (uint64, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processed, a.lastEvent
}

// Pending counts events that have not been sent yet.
func (a *App) Pending(ctx context.Context) (int, error) {
	return a.repo.CountPendingOutbox(ctx)
}
