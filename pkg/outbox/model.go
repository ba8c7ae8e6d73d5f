package outbox

import (
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// EventTypeHeader carries Event.Type on every relayed message.
const EventTypeHeader = "event_type"

// Event is one row of the outbox table. AggregateID doubles as the Kafka key
// so events of one aggregate stay ordered within a partition.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}

// Message renders the event for topic. The stored traceparent is forwarded
// untouched, it belongs to the request that wrote the row.
func (e Event) Message(topic string) kafka.Message {
	headers := make([]kafka.Header, 0, len(e.Headers)+2)
	for k, v := range e.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers, kafka.Header{Key: EventTypeHeader, Value: []byte(e.Type)})
	if e.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: tracing.TraceparentHeader, Value: []byte(e.Traceparent)})
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(e.AggregateID),
		Value:   e.Payload,
		Headers: headers,
	}
}
