package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/internal/queue"
)

func TestMemoryPushReceiveDelete(t *testing.T) {
	q := queue.NewMemory(50*time.Millisecond, time.Second)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "order-1"))

	msg, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "order-1", msg.OrderID)
	assert.Equal(t, `{"id":"order-1"}`, msg.Receipt())

	require.NoError(t, q.Delete(ctx, msg))

	// Acknowledged: nothing comes back after the visibility window.
	again, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMemoryEmptyPoll(t *testing.T) {
	q := queue.NewMemory(20*time.Millisecond, time.Second)

	msg, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryRedeliversAfterVisibilityTimeout(t *testing.T) {
	q := queue.NewMemory(time.Second, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "order-2"))

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Never deleted: the lease lapses and the message reappears.
	second, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "order-2", second.OrderID)
}

func TestMemoryReceiveHonorsContext(t *testing.T) {
	q := queue.NewMemory(10*time.Second, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
