package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type sliceReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

type mapDeduper struct {
	seen      map[string]bool
	forgotten []string
}

func (d *mapDeduper) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

func (d *mapDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *mapDeduper) Forget(_ context.Context, key string) error {
	delete(d.seen, key)
	d.forgotten = append(d.forgotten, key)
	return nil
}

func TestRun_DedupesRetriesAndCommits(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{
		{Topic: "order-placed", Offset: 1, Value: []byte("a")},
		{Topic: "order-placed", Offset: 1, Value: []byte("a")},
		{Topic: "order-placed", Offset: 2, Value: []byte("bad")},
	}}
	idem := &mapDeduper{seen: map[string]bool{}}

	handled := map[int64]int{}
	handler := func(_ context.Context, msg kafka.Message) error {
		handled[msg.Offset]++
		if string(msg.Value) == "bad" {
			return errors.New("cannot process")
		}
		return nil
	}

	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "test", reader, idem, handler)
	c.backoff = 0
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if handled[1] != 1 {
		t.Fatalf("duplicate offset must be handled once, got %d", handled[1])
	}
	if handled[2] != 3 {
		t.Fatalf("failing message should be attempted 3 times, got %d", handled[2])
	}
	if len(reader.committed) != 3 {
		t.Fatalf("every fetched message is committed, got %v", reader.committed)
	}
	if len(idem.forgotten) != 1 || idem.forgotten[0] != "order-placed:0:2" {
		t.Fatalf("failed message key should be forgotten, got %v", idem.forgotten)
	}
	if !reader.closed {
		t.Fatalf("reader should be closed")
	}
}
