package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/phrazzld/taskhub-api/internal/config"
)

const (
	// maxDeliveries bounds redelivery of a failing message before it is
	// routed to the dead-letter subject instead of being requeued forever.
	maxDeliveries = 5

	// ackWait is how long the broker waits for an ack before redelivering.
	ackWait = 30 * time.Second

	// deadLetterSuffix is appended to a topic to form its dead-letter subject.
	deadLetterSuffix = ".dlq"
)

// NATSGateway implements Gateway on NATS JetStream. Streams are durable and
// file-backed; consumers use explicit acks with a bounded in-flight window.
type NATSGateway struct {
	mu     sync.Mutex
	url    string
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// Ensure NATSGateway implements Gateway interface.
var _ Gateway = (*NATSGateway)(nil)

// NewNATSGateway creates a gateway for the configured broker. The connection
// is established by Init, not here.
func NewNATSGateway(cfg config.QueueConfig, logger *slog.Logger) *NATSGateway {
	if logger == nil {
		logger = slog.Default()
	}

	return &NATSGateway{
		url:    cfg.URL,
		logger: logger.With(slog.String("component", "queue_gateway")),
	}
}

// Init implements Gateway.Init. It is idempotent: a second call on a live
// connection returns success without creating another connection.
func (g *NATSGateway) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nc != nil {
		if g.nc.IsConnected() {
			return nil
		}
		// Release the stale handle, it would otherwise keep reconnecting in
		// the background after being replaced.
		g.nc.Close()
		g.nc = nil
		g.js = nil
	}

	nc, err := nats.Connect(g.url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to queue broker: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	g.nc = nc
	g.js = js
	g.logger.Info("queue broker connected")
	return nil
}

// Publish implements Gateway.Publish.
func (g *NATSGateway) Publish(ctx context.Context, topic string, payload any) error {
	js, err := g.jetStream()
	if err != nil {
		return err
	}

	if _, err := g.ensureStream(ctx, js, topic); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %q: %w", topic, err)
	}

	if _, err := js.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", topic, err)
	}

	g.logger.Debug("message published", slog.String("topic", topic))
	return nil
}

// Subscribe implements Gateway.Subscribe. Each message is handed to handler;
// a handler error rejects the message for redelivery until maxDeliveries is
// reached, after which the message moves to the topic's dead-letter subject.
func (g *NATSGateway) Subscribe(ctx context.Context, topic string, handler Handler, limit int) error {
	js, err := g.jetStream()
	if err != nil {
		return err
	}

	if limit <= 0 {
		limit = DefaultConcurrency
	}

	stream, err := g.ensureStream(ctx, js, topic)
	if err != nil {
		return err
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName(topic),
		Durable:       consumerName(topic),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliveries,
		MaxAckPending: limit,
		FilterSubject: topic,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer for %q: %w", topic, err)
	}

	go g.consume(ctx, consumer, topic, handler)
	return nil
}

// consume runs the delivery loop until ctx is cancelled.
func (g *NATSGateway) consume(ctx context.Context, consumer jetstream.Consumer, topic string, handler Handler) {
	iter, err := consumer.Messages()
	if err != nil {
		g.logger.Error("failed to start message iterator",
			slog.String("topic", topic), "error", err)
		return
	}
	defer iter.Stop()

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	for {
		raw, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil {
				g.logger.Info("consumer stopped", slog.String("topic", topic))
				return
			}
			g.logger.Warn("failed to fetch message",
				slog.String("topic", topic), "error", err)
			continue
		}

		msg := &natsMessage{msg: raw}
		if err := handler(ctx, msg); err != nil {
			g.logger.Error("handler failed",
				slog.String("topic", topic),
				slog.Int("deliveries", msg.Deliveries()),
				"error", err)
			g.settleFailed(ctx, topic, msg)
		}
	}
}

// settleFailed rejects a message whose handler errored, unless the handler
// already settled it. On the final permitted delivery the payload goes to
// the dead-letter subject and redelivery stops.
func (g *NATSGateway) settleFailed(ctx context.Context, topic string, msg *natsMessage) {
	if msg.settled() {
		return
	}

	if msg.Deliveries() >= maxDeliveries {
		if err := g.Publish(ctx, topic+deadLetterSuffix, json.RawMessage(msg.Data())); err != nil {
			g.logger.Error("failed to publish dead-letter message",
				slog.String("topic", topic), "error", err)
			// Leave the message unacked so the broker redelivers it and
			// the dead-letter publish gets retried.
			_ = msg.Reject(true)
			return
		}
		g.logger.Warn("message dead-lettered",
			slog.String("topic", topic),
			slog.Int("deliveries", msg.Deliveries()))
		_ = msg.Reject(false)
		return
	}

	_ = msg.Reject(true)
}

// Close implements Gateway.Close.
func (g *NATSGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nc == nil {
		return ErrNotInitialized
	}

	g.nc.Close()
	g.nc = nil
	g.js = nil
	g.logger.Info("queue broker connection closed")
	return nil
}

// jetStream returns the live JetStream handle or ErrNotInitialized.
func (g *NATSGateway) jetStream() (jetstream.JetStream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.js == nil {
		return nil, ErrNotInitialized
	}
	return g.js, nil
}

// ensureStream creates the durable stream backing a topic if it does not
// exist. CreateOrUpdateStream is idempotent, satisfying the repeated
// ensure-exists requirement.
func (g *NATSGateway) ensureStream(ctx context.Context, js jetstream.JetStream, topic string) (jetstream.Stream, error) {
	base := strings.TrimSuffix(topic, deadLetterSuffix)

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName(base),
		Subjects: []string{base, base + deadLetterSuffix},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stream for %q: %w", topic, err)
	}
	return stream, nil
}

// streamName derives a valid JetStream stream name from a topic.
// Stream names cannot contain dots or spaces.
func streamName(topic string) string {
	replacer := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return strings.ToUpper(replacer.Replace(topic))
}

// consumerName derives the durable consumer name for a topic.
func consumerName(topic string) string {
	return streamName(topic) + "_WORKERS"
}

// natsMessage adapts a jetstream.Msg to the Message interface, tracking
// whether it has been settled so the gateway doesn't double-settle after a
// handler error.
type natsMessage struct {
	msg  jetstream.Msg
	mu   sync.Mutex
	done bool
}

// Ensure natsMessage implements Message interface.
var _ Message = (*natsMessage)(nil)

// Data implements Message.Data.
func (m *natsMessage) Data() []byte {
	return m.msg.Data()
}

// Ack implements Message.Ack.
func (m *natsMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil
	}
	m.done = true
	return m.msg.Ack()
}

// Reject implements Message.Reject.
func (m *natsMessage) Reject(requeue bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil
	}
	m.done = true

	if requeue {
		return m.msg.Nak()
	}
	return m.msg.Term()
}

// Deliveries implements Message.Deliveries.
func (m *natsMessage) Deliveries() int {
	meta, err := m.msg.Metadata()
	if err != nil || meta == nil {
		return 1
	}
	return int(meta.NumDelivered)
}

// settled reports whether the message has been acked or rejected.
func (m *natsMessage) settled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}
