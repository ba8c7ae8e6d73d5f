// Package publisher emits domain events to Kafka without blocking the
// caller. Delivery is retried a bounded number of times, then dropped.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

const EventTypeHeader = "event_type"

var (
	ErrQueueFull = errors.New("publisher queue full")
	ErrClosed    = errors.New("publisher closed")
)

// Event is implemented by every domain event that goes on the wire.
type Event interface {
	Topic() string
	Key() string
	Type() string
}

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Options struct {
	QueueSize      int
	Workers        int
	MaxAttempts    int
	InitialBackoff time.Duration
	WriteTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		QueueSize:      1024,
		Workers:        2,
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		WriteTimeout:   5 * time.Second,
	}
}

type Publisher struct {
	log      *slog.Logger
	producer Producer
	opts     Options

	queue chan kafka.Message
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New(log *slog.Logger, producer Producer, opts Options) *Publisher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 100 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Publisher{
		log:      log,
		producer: producer,
		opts:     opts,
		queue:    make(chan kafka.Message, opts.QueueSize),
	}
}

// Start launches the delivery workers. They exit once Close drains the queue.
func (p *Publisher) Start() {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for msg := range p.queue {
				p.deliver(msg)
			}
		}()
	}
}

// Publish encodes ev and queues it. It never waits on the broker; a full
// queue is reported as ErrQueueFull and the event is not sent.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	headers := []kafka.Header{{Key: EventTypeHeader, Value: []byte(ev.Type())}}
	msg := kafka.Message{
		Topic:   ev.Topic(),
		Key:     []byte(ev.Key()),
		Value:   payload,
		Headers: tracing.InjectKafkaHeaders(ctx, headers),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		p.log.Warn("event dropped", "type", ev.Type(), "key", ev.Key(), "err", ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// dropped, or for ctx to end.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) deliver(msg kafka.Message) {
	eventType := tracing.HeaderValue(msg.Headers, EventTypeHeader)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(b, uint64(p.opts.MaxAttempts-1))

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.WriteTimeout)
		defer cancel()
		return p.producer.WriteMessages(ctx, msg)
	}, policy)
	if err != nil {
		p.log.Warn("event dropped after retries",
			"topic", msg.Topic, "type", eventType, "key", string(msg.Key), "attempts", attempt, "err", err)
		return
	}
	p.log.Debug("event published", "topic", msg.Topic, "type", eventType, "key", string(msg.Key))
}
