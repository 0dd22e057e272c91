package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listenerHarness struct {
	repo     *fakeRepo
	pub      *fakePublisher
	notifier *fakeNotifier
	clock    *clockwork.FakeClock
	listener *Listener
	cancel   context.CancelFunc
	done     chan error
}

func startListener(t *testing.T, repo *fakeRepo) *listenerHarness {
	t.Helper()
	h := &listenerHarness{
		repo:     repo,
		pub:      &fakePublisher{},
		notifier: newFakeNotifier(),
		clock:    clockwork.NewFakeClock(),
		done:     make(chan error, 1),
	}
	app := NewApp(repo, h.pub, nil, testRelayConfig())
	h.listener = NewListener(app, h.notifier, DefaultListenerConfig()).WithClock(h.clock)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.listener.Start(ctx) }()

	// ping and fallback tickers
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, h.clock.BlockUntilContext(waitCtx, 2))

	t.Cleanup(h.stop)
	return h
}

func (h *listenerHarness) stop() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
		h.cancel = nil
	}
}

func (h *listenerHarness) published(n int) func() bool {
	return func() bool { return len(h.pub.ids()) == n }
}

func TestListener_SweepsOnStart(t *testing.T) {
	repo := &fakeRepo{}
	ev := repo.add(EventTypeTradeAccepted)

	h := startListener(t, repo)

	assert.Eventually(t, h.published(1), time.Second, 5*time.Millisecond)
	assert.Equal(t, []uuid.UUID{ev.ID}, h.pub.ids())
	assert.True(t, h.listener.Running())
}

func TestListener_PublishesNotifiedEvent(t *testing.T) {
	repo := &fakeRepo{}
	h := startListener(t, repo)

	ev := repo.add(EventTypeTradeAccepted)
	h.notifier.ch <- &pq.Notification{Channel: "trade_outbox_events", Extra: ev.ID.String()}

	assert.Eventually(t, h.published(1), time.Second, 5*time.Millisecond)

	// a malformed payload is logged and skipped
	h.notifier.ch <- &pq.Notification{Channel: "trade_outbox_events", Extra: "not-a-uuid"}
	assert.True(t, h.listener.Running())
}

func TestListener_ReconnectTriggersSweep(t *testing.T) {
	repo := &fakeRepo{}
	h := startListener(t, repo)

	repo.add(EventTypeTradeAccepted)
	repo.add(EventTypeTradeAccepted)
	h.notifier.ch <- nil

	assert.Eventually(t, h.published(2), time.Second, 5*time.Millisecond)
}

func TestListener_FallbackAndPing(t *testing.T) {
	repo := &fakeRepo{}
	h := startListener(t, repo)

	repo.add(EventTypeTradeAccepted)
	h.clock.Advance(DefaultListenerConfig().FallbackInterval)
	assert.Eventually(t, h.published(1), time.Second, 5*time.Millisecond)

	h.clock.Advance(DefaultListenerConfig().PingInterval)
	assert.Eventually(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return h.notifier.pings > 0
	}, time.Second, 5*time.Millisecond)
}

func TestListener_StopClosesNotifier(t *testing.T) {
	h := startListener(t, &fakeRepo{})

	h.stop()

	assert.True(t, h.notifier.isClosed())
	assert.False(t, h.listener.Running())
}
