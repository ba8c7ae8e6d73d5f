package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher writes leased outbox rows to a single topic.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	tracer   trace.Tracer
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic, tracer: otel.Tracer("outbox")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx, span := d.tracer.Start(ctx, "Relay "+d.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("outbox.event_id", event.ID),
			attribute.String("outbox.aggregate", event.AggregateType+"/"+event.AggregateID),
			attribute.Int("outbox.retry_count", event.RetryCount),
		))
	defer span.End()

	if err := d.producer.WriteMessages(ctx, event.Message(d.topic)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "type", event.Type, "retry_count", event.RetryCount, "err", err)
		return err
	}
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type, "aggregate_id", event.AggregateID)
	return nil
}
