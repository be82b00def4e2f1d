package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/oziev02/ImageGallery/internal/domain"
)

// EventHandler applies a gallery feed event
type EventHandler interface {
	HandleEvent(ctx context.Context, event domain.Event) error
}

type Consumer interface {
	Start(ctx context.Context, handler EventHandler) error
	Close() error
}

// messageReader is the part of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type consumer struct {
	reader messageReader
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &consumer{reader: reader, logger: logger}
}

// Start delivers events to handler in partition order until ctx is done.
// Malformed messages and handler failures are logged and committed so one
// bad event cannot stall the feed.
func (c *consumer) Start(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skipping gallery event", "offset", msg.Offset, "error", err)
		} else if err := handler.HandleEvent(ctx, event); err != nil {
			c.logger.Error("failed to handle gallery event", "type", event.Type, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *consumer) Close() error {
	return c.reader.Close()
}

func decodeEvent(data []byte) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}
