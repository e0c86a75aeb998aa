package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
	fetchBackoff = 5 * time.Second
)

// Handler processes one message payload. A returned error NAKs the message for redelivery.
type Handler func(data []byte) error

// Consumer pulls messages from a durable JetStream consumer
type Consumer struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	spec   ConsumerSpec
	logger *logger.Logger
}

// NewConsumer connects to NATS, ensures the stream and consumer exist and binds a pull subscription
func NewConsumer(cfg *config.Config, spec ConsumerSpec, log *logger.Logger) (*Consumer, error) {
	nc, js, err := connect(cfg, spec.Name, log)
	if err != nil {
		return nil, err
	}

	if err := NewStreamConfig(js, log).EnsureConsumer(spec); err != nil {
		nc.Close()
		return nil, err
	}

	sub, err := js.PullSubscribe(spec.FilterSubject, spec.Name, nats.Bind(StreamName, spec.Name), nats.ManualAck())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to JetStream consumer: %w", err)
	}

	log.WithFields(map[string]any{
		"stream":   StreamName,
		"consumer": spec.Name,
	}).Info("Subscribed to JetStream consumer")

	return &Consumer{
		nc:     nc,
		sub:    sub,
		spec:   spec,
		logger: log,
	}, nil
}

// Run fetches messages in batches and hands each to handler until ctx is cancelled
func (c *Consumer) Run(ctx context.Context, handler Handler) {
	for ctx.Err() == nil {
		msgs, err := c.sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || ctx.Err() != nil {
				continue
			}
			c.logger.Error("Failed to fetch messages from JetStream", err)
			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
			}
			continue
		}

		for _, msg := range msgs {
			c.dispatch(msg, handler)
		}
	}
}

func (c *Consumer) dispatch(msg *nats.Msg, handler Handler) {
	if err := handler(msg.Data); err != nil {
		c.logger.WithFields(map[string]any{
			"consumer": c.spec.Name,
			"subject":  msg.Subject,
		}).Error("Failed to handle event", err)

		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error("Failed to NAK message", nakErr)
		}
		return
	}

	if ackErr := msg.Ack(); ackErr != nil {
		c.logger.Error("Failed to ACK message", ackErr)
	}
}

// Close unsubscribes and closes the NATS connection. The durable consumer is kept.
func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			c.logger.Warnf("Failed to drain JetStream subscription: %v", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// DecodeEvent parses an event payload
func DecodeEvent(data []byte) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return domain.Event{}, errors.New("event has no type")
	}
	return event, nil
}

// LoggingHandler logs every event it receives
func LoggingHandler(log *logger.Logger) Handler {
	return func(data []byte) error {
		event, err := DecodeEvent(data)
		if err != nil {
			// Redelivery cannot fix a malformed payload
			log.Error("Dropping malformed event", err)
			return nil
		}

		fields := map[string]any{
			"event_id":   event.ID.String(),
			"event_type": string(event.Type),
			"product_id": event.ProductID.String(),
			"actor_id":   event.ActorID.String(),
			"timestamp":  event.Timestamp,
		}
		if event.ReviewID != nil {
			fields["review_id"] = event.ReviewID.String()
		}
		if event.Status != "" {
			fields["status"] = event.Status
		}
		if event.Reason != "" {
			fields["reason"] = event.Reason
		}
		if event.AverageRating != nil {
			fields["average_rating"] = event.AverageRating.StringFixed(2)
		}
		if event.TotalReviews != nil {
			fields["total_reviews"] = *event.TotalReviews
		}
		if event.HelpfulCount != nil {
			fields["helpful_count"] = *event.HelpfulCount
		}

		log.WithFields(fields).Info("Received event")
		return nil
	}
}
