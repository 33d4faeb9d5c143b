package consumer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snapkeep/printworks/internal/consumer"
	"github.com/snapkeep/printworks/internal/queue"
)

// runUntilIdle runs the loop until the queue stays empty for one poll window.
func runUntilIdle(t *testing.T, loop *consumer.Loop, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	_ = loop.Run(ctx)
}

func TestLoopAcksSuccessfulOrder(t *testing.T) {
	h := newHarness(t, fakeDownloader{})
	q := queue.NewMemory(20*time.Millisecond, 100*time.Millisecond)

	require.NoError(t, q.Push(context.Background(), h.orderID))

	loop := consumer.NewLoop(q, h.pipeline, nil, discard())
	runUntilIdle(t, loop, 500*time.Millisecond)

	final := h.orders.last(t)
	assert.True(t, final.IsPrinted)

	// Acknowledged: nothing is redelivered even after the visibility
	// timeout has long passed.
	msg, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestLoopAcksNotFoundOrder(t *testing.T) {
	h := newHarness(t, fakeDownloader{})
	q := queue.NewMemory(20*time.Millisecond, 100*time.Millisecond)

	require.NoError(t, q.Push(context.Background(), primitive.NewObjectID().Hex()))

	loop := consumer.NewLoop(q, h.pipeline, nil, discard())
	runUntilIdle(t, loop, 500*time.Millisecond)

	// Terminal failure: the message must not bounce forever.
	msg, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestLoopLeavesTransientFailureForRedelivery(t *testing.T) {
	h := newHarness(t, failDownloader{})
	q := queue.NewMemory(20*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, q.Push(context.Background(), h.orderID))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	loop := consumer.NewLoop(q, h.pipeline, nil, discard())
	_ = loop.Run(ctx)

	// Every attempt failed and left the order failed but unacknowledged;
	// at least one redelivery happened within the window.
	h.orders.mu.Lock()
	attempts := len(h.orders.saves)
	h.orders.mu.Unlock()
	assert.GreaterOrEqual(t, attempts, 3) // 2 saves per attempt, 2+ attempts
}
