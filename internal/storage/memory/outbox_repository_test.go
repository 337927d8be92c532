package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

func recalculatedEvent(orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     domain.EventOrderPricesRecalculated,
		Payload:       []byte(`{"order_id":"` + orderID + `"}`),
	}
}

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(recalculatedEvent("order-1"))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, saved.ID, pending[0].ID)

	require.NoError(t, repo.MarkSent(saved.ID))

	pending, err = repo.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxRepository_PullKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()
	for _, id := range []string{"order-3", "order-1", "order-2"} {
		_, err := repo.Enqueue(recalculatedEvent(id))
		require.NoError(t, err)
	}

	pending, err := repo.PullPending(2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "order-3", pending[0].AggregateID)
	assert.Equal(t, "order-1", pending[1].AggregateID)
	assert.Len(t, repo.AllPending(), 3)
}

func TestOutboxRepository_StatsAndFailures(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
	assert.True(t, stats.OldestPendingAt.IsZero())

	first, err := repo.Enqueue(recalculatedEvent("order-1"))
	require.NoError(t, err)
	_, err = repo.Enqueue(recalculatedEvent("order-2"))
	require.NoError(t, err)

	stats, err = repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, repo.records[first.ID].createdAt, stats.OldestPendingAt)

	require.NoError(t, repo.MarkFailed(first.ID))
	assert.Equal(t, outboxStatusFailed, repo.records[first.ID].status)
	assert.Equal(t, 1, repo.records[first.ID].attempts)

	require.ErrorIs(t, repo.MarkSent("unknown"), domain.ErrOutboxPublish)
}

func TestOutboxRepository_PayloadIsCopied(t *testing.T) {
	repo := NewOutboxRepository()
	msg := recalculatedEvent("order-1")

	_, err := repo.Enqueue(msg)
	require.NoError(t, err)
	msg.Payload[0] = 'x'

	pending, err := repo.PullPending(1)
	require.NoError(t, err)
	assert.Equal(t, `{"order_id":"order-1"}`, string(pending[0].Payload))
}
