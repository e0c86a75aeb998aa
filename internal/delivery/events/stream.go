package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream holding directory events
	StreamName = "DIRECTORY"

	// StreamSubjects matches every event subject
	StreamSubjects = domain.EventSubjectPrefix + ">"

	// MaxDeliveryAttempts is the max number of delivery attempts before a message is dropped
	MaxDeliveryAttempts = 3

	// AckWait is how long to wait for acknowledgment before redelivery
	AckWait = 30 * time.Second
)

// ConsumerSpec describes a durable pull consumer on the stream
type ConsumerSpec struct {
	Name          string
	FilterSubject string
	Description   string
}

var (
	// AuditConsumer feeds review events to the aggregate audit worker
	AuditConsumer = ConsumerSpec{
		Name:          "aggregate-audit",
		FilterSubject: domain.EventSubjectPrefix + "review.>",
		Description:   "Aggregate audit worker",
	}

	// NotifierConsumer receives every event
	NotifierConsumer = ConsumerSpec{
		Name:          "notifier",
		FilterSubject: StreamSubjects,
		Description:   "Event notifier",
	}
)

// StreamConfig holds the JetStream stream configuration
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// generateExponentialBackoff creates a backoff schedule for NATS redeliveries: 1s, 2s, 4s, ...
// MaxDeliver N requires N-1 backoff durations since the first delivery is immediate.
func generateExponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

// EnsureStream creates the event stream if it does not exist.
// Interest retention keeps a message until every consumer has acked it.
func (s *StreamConfig) EnsureStream() error {
	stream, err := s.js.StreamInfo(StreamName)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": StreamSubjects,
		}).Info("Creating JetStream stream")

		_, err = s.js.AddStream(&nats.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{StreamSubjects},
			Retention:   nats.InterestPolicy,
			Storage:     nats.FileStorage,
			Replicas:    1,
			MaxAge:      24 * time.Hour,
			Discard:     nats.DiscardOld,
			Description: "Product directory events",
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}

		s.logger.Info("JetStream stream created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Info("JetStream stream already exists")

	return nil
}

// consumerConfig builds the durable consumer configuration
func consumerConfig(spec ConsumerSpec) *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       spec.Name,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: spec.FilterSubject,
		BackOff:       generateExponentialBackoff(MaxDeliveryAttempts),
		Description:   spec.Description,
	}
}

// EnsureConsumer creates the durable consumer if it does not exist and brings the
// filter of an existing one in line with its ConsumerSpec.
// Messages that fail every delivery attempt are dropped; the audit worker repairs
// aggregates from database state, so a later event covers the loss.
func (s *StreamConfig) EnsureConsumer(spec ConsumerSpec) error {
	consumerInfo, err := s.js.ConsumerInfo(StreamName, spec.Name)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"consumer": spec.Name,
			"filter":   spec.FilterSubject,
		}).Info("Creating JetStream consumer")

		if _, err = s.js.AddConsumer(StreamName, consumerConfig(spec)); err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}

		s.logger.Info("JetStream consumer created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	if consumerInfo.Config.FilterSubject != spec.FilterSubject || consumerInfo.Config.Description != spec.Description {
		s.logger.WithFields(map[string]any{
			"consumer":   spec.Name,
			"old_filter": consumerInfo.Config.FilterSubject,
			"new_filter": spec.FilterSubject,
		}).Info("Updating JetStream consumer")

		if consumerInfo, err = s.js.UpdateConsumer(StreamName, consumerConfig(spec)); err != nil {
			return fmt.Errorf("failed to update consumer: %w", err)
		}
	}

	s.logger.WithFields(map[string]any{
		"consumer":    consumerInfo.Name,
		"pending":     consumerInfo.NumPending,
		"redelivered": consumerInfo.NumRedelivered,
		"ack_pending": consumerInfo.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}
