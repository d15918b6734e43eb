// Package ingest listens for measurement notifications and invalidates the
// cached analytics of the controllers that received new data.
package ingest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
)

// Notification announces new measurements for a controller
type Notification struct {
	ControllerID string    `json:"controller_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// Invalidator drops cached results of a controller
type Invalidator interface {
	InvalidateController(ctx context.Context, controllerID string) (int, error)
}

// MessageReader is the subset of *kafka.Reader the listener needs
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Listener consumes the measurements topic
type Listener struct {
	reader      MessageReader
	invalidator Invalidator
}

// NewListener connects a consumer group reader. It returns nil when no brokers are configured.
func NewListener(cfg config.KafkaConfig, invalidator Invalidator) *Listener {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	nuts.L.Infof("[Ingest] Listening on topic %s (group %s)", cfg.Topic, cfg.GroupID)
	return newListener(reader, invalidator)
}

func newListener(reader MessageReader, invalidator Invalidator) *Listener {
	return &Listener{reader: reader, invalidator: invalidator}
}

// Decode parses and checks a notification payload
func Decode(payload []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return n, fmt.Errorf("invalid notification: %w", err)
	}
	if n.ControllerID == "" {
		return n, fmt.Errorf("notification without controller_id")
	}
	return n, nil
}

// HandleMessage invalidates the controller named by one message
func (l *Listener) HandleMessage(ctx context.Context, msg kafka.Message) error {
	n, err := Decode(msg.Value)
	if err != nil {
		return err
	}
	removed, err := l.invalidator.InvalidateController(ctx, n.ControllerID)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", n.ControllerID, err)
	}
	nuts.L.Debugf("[Ingest] New data for %s at %v, %d cache entries dropped", n.ControllerID, n.Timestamp, removed)
	return nil
}

// Run reads until ctx is cancelled or the reader fails. Bad messages are skipped.
func (l *Listener) Run(ctx context.Context) error {
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := l.HandleMessage(ctx, msg); err != nil {
			nuts.L.Warnf("[Ingest] Skipping message at offset %d: %v", msg.Offset, err)
		}
	}
}

// Close closes the underlying reader
func (l *Listener) Close() error {
	return l.reader.Close()
}
