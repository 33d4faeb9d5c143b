// Package queue is the print work queue boundary.
//
// Delivery is at-least-once: a received message stays invisible for the
// configured visibility timeout and reappears if the worker never deletes
// it. Deleting the message is the acknowledgement.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is one unit of print work: a reference to an order.
type Message struct {
	// OrderID is the order to process.
	OrderID string

	// receipt is the raw payload used to acknowledge the message.
	receipt string
}

// Receipt returns the opaque acknowledgement token.
func (m *Message) Receipt() string { return m.receipt }

// Queue delivers and acknowledges print messages.
type Queue interface {
	// Receive long-polls for the next message. A nil message with a nil
	// error means the poll window elapsed with nothing to do.
	Receive(ctx context.Context) (*Message, error)

	// Delete acknowledges the message so it is never redelivered.
	Delete(ctx context.Context, msg *Message) error

	// Push enqueues a new message for the given order.
	Push(ctx context.Context, orderID string) error
}

// envelope is the wire shape: {"id": "<order-id>"}.
type envelope struct {
	ID string `json:"id"`
}

func encode(orderID string) ([]byte, error) {
	payload, err := json.Marshal(envelope{ID: orderID})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal message: %w", err)
	}
	return payload, nil
}

func decode(raw []byte) (*Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("queue: bad envelope %q: %w", raw, err)
	}
	if env.ID == "" {
		return nil, fmt.Errorf("queue: envelope %q has no order id", raw)
	}
	return &Message{OrderID: env.ID, receipt: string(raw)}, nil
}
