package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hexagono/internal/apierror"
	"hexagono/internal/model"
	"hexagono/internal/notify"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs creation jobs through the real notify.Dispatcher, the queue and the DLQ.

type memQuotes map[uuid.UUID]*model.Quote

func (m memQuotes) FindByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	q, ok := m[id]
	if !ok {
		return nil, apierror.NotFound("id", "cotizacion %s no encontrada", id)
	}
	return q, nil
}

func (m memQuotes) ListStalePending(context.Context, time.Time) ([]model.Quote, error) {
	return nil, nil
}

func (m memQuotes) MarkReminded(context.Context, uuid.UUID, time.Time) error { return nil }

// mailbox records accepted messages per recipient and rejects addresses in down.
type mailbox struct {
	mu   sync.Mutex
	got  map[string]int
	down map[string]bool
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if m.down[to] {
			return errors.New("smtp: 451 temporary failure")
		}
	}
	for _, to := range msg.To {
		m.got[to]++
	}
	return nil
}

func (m *mailbox) count(to string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.got[to]
}

func createdFlow(t *testing.T, adminEmail string, box *mailbox) (*redis.Client, *model.Quote, *NotificationWorker) {
	t.Helper()
	rdb, _ := newTestRedis(t)
	q := &model.Quote{
		ID:             uuid.New(),
		QuoteNumber:    "COT-20260314-0001",
		AccessToken:    "abcdefghijABCDEFGHIJ0123456789xy",
		ClientName:     "Lucia Fernandez",
		ClientEmail:    "lucia@cliente.test",
		ServiceType:    model.ServiceLandingPage,
		BasePrice:      decimal.NewFromInt(170000),
		EstimatedPrice: decimal.NewFromInt(170000),
		Currency:       "ARS",
		Status:         model.StatusPending,
		Priority:       model.PriorityLow,
		CreatedAt:      time.Now(),
	}
	r, err := notify.NewTemplateRenderer("https://hexagono.test", notify.Contact{Company: "Hexagono", Email: "hola@hexagono.test"})
	require.NoError(t, err)
	cfg := notify.DefaultConfig()
	cfg.AdminEmail = adminEmail
	cfg.MaxAttempts = 1
	d := notify.NewDispatcher(memQuotes{q.ID: q}, box, r, cfg)

	require.NoError(t, NewDispatcher(rdb).EnqueueCreated(context.Background(), q.ID))
	return rdb, q, NewNotificationWorker(d)
}

func drainQueue(t *testing.T, rdb *redis.Client, w *NotificationWorker) {
	t.Helper()
	ctx := context.Background()
	for {
		raw, err := rdb.RPop(ctx, QueueNotifications).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		require.NoError(t, err)
		processJob(ctx, rdb, QueueNotifications, raw, w)
	}
}

func TestCreatedFlow_NoAdminAddressDeliversWithoutDeadLetter(t *testing.T) {
	box := &mailbox{got: map[string]int{}}
	rdb, q, w := createdFlow(t, "", box)

	drainQueue(t, rdb, w)

	assert.Equal(t, 1, box.count(q.ClientEmail))
	n, err := DLQLength(context.Background(), rdb, QueueNotifications)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreatedFlow_ReplayResendsOnlyTheFailedNotice(t *testing.T) {
	ctx := context.Background()
	box := &mailbox{got: map[string]int{}, down: map[string]bool{"admin@hexagono.test": true}}
	rdb, q, w := createdFlow(t, "admin@hexagono.test", box)

	drainQueue(t, rdb, w)

	assert.Equal(t, 1, box.count(q.ClientEmail))
	assert.Zero(t, box.count("admin@hexagono.test"))
	entries, err := ListDLQ(ctx, rdb, QueueNotifications, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, JobAdminNotice, entries[0].JobType)

	box.mu.Lock()
	box.down = nil
	box.mu.Unlock()
	moved, err := RequeueDLQ(ctx, rdb, QueueNotifications, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	drainQueue(t, rdb, w)

	assert.Equal(t, 1, box.count(q.ClientEmail))
	assert.Equal(t, 1, box.count("admin@hexagono.test"))
	n, err := DLQLength(ctx, rdb, QueueNotifications)
	require.NoError(t, err)
	assert.Zero(t, n)
}
