// Package consumer runs a Kafka consumer-group loop with duplicate
// suppression and trace propagation, handing each message to a Handler.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

// Handler processes one message. Returning an error makes the loop retry the
// message a bounded number of times before it is skipped.
type Handler func(ctx context.Context, msg kafka.Message) error

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduper is satisfied by idempotency.Store.
type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Consumer struct {
	log         *slog.Logger
	reader      Reader
	idem        Deduper
	handle      Handler
	tracer      trace.Tracer
	maxAttempts uint64
	backoff     time.Duration
}

// NewReader joins group on one or more topics.
func NewReader(brokers []string, group string, topics ...string) *kafka.Reader {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: group,
	}
	if len(topics) == 1 {
		cfg.Topic = topics[0]
	} else {
		cfg.GroupTopics = topics
	}
	return kafka.NewReader(cfg)
}

func New(log *slog.Logger, name string, reader Reader, idem Deduper, handle Handler) *Consumer {
	return &Consumer{
		log:         log,
		reader:      reader,
		idem:        idem,
		handle:      handle,
		tracer:      otel.Tracer(name),
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.process(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var key string
	if c.idem != nil {
		key = c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
		} else if seen {
			c.log.Info("duplicate message skipped", "key", key)
			return
		}
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	eventType := tracing.HeaderValue(msg.Headers, "event_type")
	msgCtx, span := c.tracer.Start(msgCtx, "Consume "+msg.Topic)
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("messaging.event_type", eventType),
	)
	defer span.End()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxAttempts-1), ctx)

	err := backoff.Retry(func() error { return c.handle(msgCtx, msg) }, policy)
	if err != nil {
		span.RecordError(err)
		c.log.Error("message handling failed, skipping", "topic", msg.Topic, "offset", msg.Offset, "type", eventType, "err", err)
		if c.idem != nil {
			// Let a later redelivery of the same offset try again.
			_ = c.idem.Forget(ctx, key)
		}
		return
	}
	c.log.Info("message processed", "topic", msg.Topic, "offset", msg.Offset, "type", eventType)
}
