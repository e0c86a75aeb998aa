package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

// Publisher writes directory events to the JetStream stream
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewPublisher connects to NATS and makes sure the event stream exists
func NewPublisher(cfg *config.Config, log *logger.Logger) (*Publisher, error) {
	nc, js, err := connect(cfg, "directory-api", log)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// Publish sends event on the subject of its type and waits for the stream ack.
// The event ID is the JetStream message ID, so a retried publish is stored once.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	subject := event.Type.Subject()
	fields := map[string]any{
		"subject":    subject,
		"event_id":   event.ID,
		"product_id": event.ProductID,
	}

	ack, err := p.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(event.ID.String()))
	if err != nil {
		p.logger.WithFields(fields).Error("Failed to publish event", err)
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	fields["sequence"] = ack.Sequence
	fields["duplicate"] = ack.Duplicate
	p.logger.WithFields(fields).Debug("Published event")
	return nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
	p.logger.Info("NATS publisher connection closed")
}

// NoopPublisher drops every event. Used when NATS is disabled.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(context.Context, domain.Event) error { return nil }
