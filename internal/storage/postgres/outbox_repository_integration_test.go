package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

func pricesRecalculated(orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     domain.EventOrderPricesRecalculated,
		Payload:       []byte(`{"order_id":"` + orderID + `"}`),
	}
}

func TestOutboxRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	first, err := repo.Enqueue(pricesRecalculated("order-1"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	fixed := pricesRecalculated("order-2")
	fixed.ID = "outbox-fixed-id"
	second, err := repo.Enqueue(fixed)
	require.NoError(t, err)
	assert.Equal(t, "outbox-fixed-id", second.ID)

	pending, err := repo.PullPending(0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(pending[0].Payload))

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.False(t, stats.OldestPendingAt.IsZero())

	require.NoError(t, repo.MarkSent(first.ID))
	require.NoError(t, repo.MarkFailed(second.ID))

	after, err := repo.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, after)

	stats, err = repo.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestOutboxRepository_PostgresMissingRows(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	require.ErrorIs(t, repo.MarkSent("missing-outbox"), domain.ErrOutboxPublish)
	require.ErrorIs(t, repo.MarkFailed("missing-outbox"), domain.ErrOutboxPublish)
}

func TestOutboxRepository_PostgresOldestPendingFirst(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	_, err := repo.Enqueue(pricesRecalculated("order-old"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Enqueue(pricesRecalculated("order-new"))
	require.NoError(t, err)

	pending, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "order-old", pending[0].AggregateID)
}
