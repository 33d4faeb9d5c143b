package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/snapkeep/printworks/internal/journal"
	"github.com/snapkeep/printworks/internal/queue"
)

// receiveBackoff is how long the loop sleeps after a failed receive before
// polling again, so a broken queue connection doesn't spin the CPU.
const receiveBackoff = 5 * time.Second

// Loop is the long-running consume loop: receive a message, run the
// pipeline, journal failures, and acknowledge according to the failure
// kind.
type Loop struct {
	queue    queue.Queue
	pipeline *Pipeline
	journal  *journal.Journal
	log      *slog.Logger
}

func NewLoop(q queue.Queue, p *Pipeline, j *journal.Journal, log *slog.Logger) *Loop {
	return &Loop{queue: q, pipeline: p, journal: j, log: log}
}

// Run consumes until ctx is cancelled. It always returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("consumer started")
	for {
		if err := ctx.Err(); err != nil {
			l.log.Info("consumer stopped")
			return err
		}

		msg, err := l.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			l.log.Error("receive failed", "error", err)
			sleep(ctx, receiveBackoff)
			continue
		}
		if msg == nil {
			continue // empty poll
		}

		l.handle(ctx, msg)
	}
}

// handle runs one message to completion. A message is only deleted when
// redelivery would be pointless: success, or a terminal failure like a
// missing record. Transient failures leave the message leased so it comes
// back after the visibility timeout.
//
// Shutdown only stops receiving: an order already in flight runs to its
// terminal state, so a SIGTERM never strands a half-fulfilled order.
func (l *Loop) handle(ctx context.Context, msg *queue.Message) {
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	err := l.pipeline.Process(ctx, msg.OrderID)
	OrderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		l.log.Error("order failed", "order", msg.OrderID, "error", err)
		OrdersProcessed.WithLabelValues("failed").Inc()
		l.recordFailure(msg.OrderID, err)
	}

	if !ShouldAck(err) {
		return
	}
	if derr := l.queue.Delete(ctx, msg); derr != nil {
		// At-least-once: the message will be redelivered and the printed
		// guard will skip the rerun.
		l.log.Error("ack failed", "order", msg.OrderID, "error", derr)
	}
}

func (l *Loop) recordFailure(orderID string, err error) {
	stage, kind := StageReceived, KindTransient
	var fe *FulfillmentError
	if errors.As(err, &fe) {
		stage, kind = fe.Stage, fe.Kind
	}
	OrderFailures.WithLabelValues(string(stage), string(kind)).Inc()

	if l.journal != nil {
		l.journal.Record(orderID, string(stage), string(kind), err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
