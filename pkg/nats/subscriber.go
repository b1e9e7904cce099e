package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clairexuu/SWAG-Golf/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event from the bus.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber listens for lifecycle events from NATS.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream

	consumeCtx jetstream.ConsumeContext
}

// NewSubscriber connects to the bus for consuming.
func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a handler for a subject pattern on the lifecycle
// stream. An empty durableName creates an ephemeral consumer delivering
// only new messages, which is what a live tail wants.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durableName != "" {
		cfg.Durable = durableName
	} else {
		cfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data(), &env); err != nil {
			msg.Nak()
			return
		}

		event := events.BaseEvent{
			Id:         env.Id,
			Type:       env.Type,
			Data:       env.Payload,
			OccurredAt: env.Timestamp,
		}

		if err := handler(ctx, event); err != nil {
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.consumeCtx = consumeCtx
	return nil
}

// Close stops consumption and closes the connection.
func (s *Subscriber) Close() {
	if s.consumeCtx != nil {
		s.consumeCtx.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
