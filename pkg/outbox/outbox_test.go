package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-workshop-service/pkg/database"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/tracing"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (p *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return NewSQLStore(db)
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestRelayPublishesCommittedEvents(t *testing.T) {
	tracing.Setup()
	store := newStore(t)
	ctx := tracing.FromTraceparent(context.Background(), "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	require.NoError(t, store.Publish(ctx, "inventory_item", "7", "inventory.stock_adjusted", map[string]int{"after": 6}))

	producer := &fakeProducer{}
	relay := NewRelay(logger.NewNop(), store, NewDispatcher(logger.NewNop(), producer, "workshop.events"), RelayConfig{RelayID: "test"})

	sent, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "workshop.events", msg.Topic)
	assert.Equal(t, "7", string(msg.Key))
	assert.JSONEq(t, `{"after":6}`, string(msg.Value))
	assert.Equal(t, "inventory.stock_adjusted", header(msg, "event_type"))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(msg, tracing.TraceparentHeader))

	sentEvents, err := store.ListByStatus(context.Background(), StatusSent)
	require.NoError(t, err)
	assert.Len(t, sentEvents, 1)

	sent, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestRolledBackEventsAreNeverPublished(t *testing.T) {
	store := newStore(t)
	m := txn.NewManager(store.DB)

	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, store.Publish(ctx, "job_card", "1", "jobcard.status_changed", map[string]string{"status": "Under Repair"}))
		return errors.New("insufficient stock")
	})
	require.Error(t, err)

	pending, err := store.ListByStatus(context.Background(), StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFailedDispatchIsRetriedThenParked(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Publish(context.Background(), "sales_return", "3", "salesreturn.approved", map[string]int{"id": 3}))

	producer := &fakeProducer{err: errors.New("broker down")}
	relay := NewRelay(logger.NewNop(), store, NewDispatcher(logger.NewNop(), producer, "workshop.events"),
		RelayConfig{RelayID: "test", Lease: time.Second})

	for i := 0; i < maxAttempts; i++ {
		sent, err := relay.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	}

	failed, err := store.ListByStatus(context.Background(), StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, maxAttempts, failed[0].RetryCount)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "broker down", *failed[0].LastError)
}
