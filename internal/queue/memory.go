package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process queue for development and tests. Messages are
// redelivered after the visibility timeout unless deleted, mirroring the
// Redis driver's lease behaviour.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      chan []byte
	inflight   map[string]*time.Timer
	waitTime   time.Duration
	visibility time.Duration
}

// NewMemory creates a MemoryQueue with the given poll wait and visibility
// timeout.
func NewMemory(waitTime, visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{
		ready:      make(chan []byte, 1024),
		inflight:   map[string]*time.Timer{},
		waitTime:   waitTime,
		visibility: visibility,
	}
}

func (q *MemoryQueue) Push(_ context.Context, orderID string) error {
	payload, err := encode(orderID)
	if err != nil {
		return err
	}
	q.ready <- payload
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context) (*Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case raw := <-q.ready:
		msg, err := decode(raw)
		if err != nil {
			return nil, err
		}
		q.lease(raw)
		return msg, nil
	case <-time.After(q.waitTime):
		return nil, nil
	}
}

func (q *MemoryQueue) Delete(_ context.Context, msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.inflight[msg.receipt]; ok {
		t.Stop()
		delete(q.inflight, msg.receipt)
	}
	return nil
}

// lease schedules redelivery unless the message is deleted first.
func (q *MemoryQueue) lease(raw []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := string(raw)
	q.inflight[key] = time.AfterFunc(q.visibility, func() {
		q.mu.Lock()
		delete(q.inflight, key)
		q.mu.Unlock()
		q.ready <- raw
	})
}
