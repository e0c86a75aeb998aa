package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

const (
	reconnectWait = 2 * time.Second
	maxReconnects = 60
)

// connect opens a named NATS connection with JetStream and makes sure the event stream exists.
// Disconnects and reconnects are logged; the client reconnects on its own.
func connect(cfg *config.Config, name string, log *logger.Logger) (*nats.Conn, nats.JetStreamContext, error) {
	connLog := log.WithFields(map[string]any{
		"url":  cfg.NATS.URL,
		"name": name,
	})

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name(name),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				connLog.Error("Disconnected from NATS", err)
			}
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			connLog.Info("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := NewStreamConfig(js, log).EnsureStream(); err != nil {
		nc.Close()
		return nil, nil, err
	}

	connLog.Info("Connected to NATS JetStream")
	return nc, js, nil
}
