package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type fakeRepo struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func (r *fakeRepo) add(eventType string) OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"season":2025}`),
		CreatedAt: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	r.events = append(r.events, ev)
	return ev
}

func (r *fakeRepo) FetchUnsentOutbox(_ context.Context, limit int32) ([]OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []OutboxEvent
	for _, ev := range r.events {
		if ev.SentAt == nil && (limit <= 0 || int32(len(out)) < limit) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeRepo) FetchOutboxByID(_ context.Context, id uuid.UUID) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id && ev.SentAt == nil {
			out := ev
			return &out, nil
		}
	}
	return nil, ErrEventNotPending
}

func (r *fakeRepo) MarkOutboxSent(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			now := time.Now()
			r.events[i].SentAt = &now
		}
	}
	return nil
}

func (r *fakeRepo) CountPendingOutbox(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.SentAt == nil {
			n++
		}
	}
	return n, nil
}

// fakePublisher fails the first failures calls, then records events.
type fakePublisher struct {
	mu        sync.Mutex
	failures  int
	failFor   map[uuid.UUID]bool
	calls     int
	published []uuid.UUID
}

func (p *fakePublisher) Publish(_ context.Context, event OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failFor[event.ID] {
		return errors.New("nats: no responders available for request")
	}
	if p.failures > 0 {
		p.failures--
		return errors.New("nats: timeout")
	}
	p.published = append(p.published, event.ID)
	return nil
}

func (p *fakePublisher) ids() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.published...)
}

type fakeNotifier struct {
	ch     chan *pq.Notification
	mu     sync.Mutex
	pings  int
	closed bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan *pq.Notification)}
}

func (n *fakeNotifier) NotificationChannel() <-chan *pq.Notification { return n.ch }

func (n *fakeNotifier) Ping() error {
	n.mu.Lock()
	n.pings++
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	return nil
}

func (n *fakeNotifier) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

type recordingMetrics struct {
	NoOpMetricsCollector
	mu       sync.Mutex
	attempts []bool
	batches  []int
	lag      int
}

func (m *recordingMetrics) RecordPublishAttempt(_ string, _ int, success bool) {
	m.mu.Lock()
	m.attempts = append(m.attempts, success)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordBatchProcessed(count int, _ time.Duration) {
	m.mu.Lock()
	m.batches = append(m.batches, count)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordOutboxLag(lag int) {
	m.mu.Lock()
	m.lag = lag
	m.mu.Unlock()
}
