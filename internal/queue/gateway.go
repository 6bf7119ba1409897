// Package queue provides the durable message gateway used for cross-service
// eventing: publish-with-durability and consume-with-prefetch-and-ack.
package queue

import (
	"context"
	"errors"
)

// DefaultConcurrency is the default bound on in-flight unacknowledged
// messages per subscription.
const DefaultConcurrency = 5

// Common queue errors.
var (
	// ErrNotInitialized is returned when an operation is attempted before
	// Init or after Close.
	ErrNotInitialized = errors.New("queue gateway is not initialized")
)

// Message is a single delivery handed to a subscriber. Every message must be
// acknowledged or rejected exactly once; nothing is dropped silently.
type Message interface {
	// Data returns the message payload.
	Data() []byte

	// Ack marks the message as processed.
	Ack() error

	// Reject marks the message as failed. With requeue it returns to the
	// queue for redelivery; without it the message is terminated.
	Reject(requeue bool) error

	// Deliveries reports how many times this message has been delivered,
	// starting at 1.
	Deliveries() int
}

// Handler processes one delivered message. Returning an error causes the
// gateway to reject-and-requeue the message on the handler's behalf (bounded
// by the gateway's retry policy) if the handler has not already settled it.
type Handler func(ctx context.Context, msg Message) error

// Gateway is the durable queue abstraction. Implementations hold one
// process-wide connection; Init is idempotent and Close releases it.
type Gateway interface {
	// Init establishes the broker connection. Calling Init when already
	// connected is a no-op returning success.
	Init(ctx context.Context) error

	// Publish serializes payload as JSON and sends it to topic with
	// persistence enabled. The target topic is created durably if it does
	// not exist; repeated creation attempts do not error.
	Publish(ctx context.Context, topic string, payload any) error

	// Subscribe consumes from topic, delivering at most limit
	// unacknowledged messages to handler at a time. A limit <= 0 uses
	// DefaultConcurrency. Subscribe returns after the consumer is running;
	// consumption stops when ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler Handler, limit int) error

	// Close releases the connection. Subsequent operations return
	// ErrNotInitialized until Init is called again.
	Close() error
}
