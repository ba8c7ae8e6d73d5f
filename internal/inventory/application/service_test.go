package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/infrastructure/memory"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []publisher.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, ev publisher.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

func newService(t *testing.T) (*application.Service, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewService(log, memory.NewLedger(), pub), pub
}

func TestCheckAvailable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ok, err := svc.CheckAvailable(ctx, "WIDGET", 1)
	if err != nil || ok {
		t.Fatalf("unknown sku must be unavailable: ok=%v err=%v", ok, err)
	}
	if _, err := svc.UpsertInitial(ctx, "WIDGET", 3); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok, _ := svc.CheckAvailable(ctx, "WIDGET", 3); !ok {
		t.Fatalf("3 of 3 should be available")
	}
	if ok, _ := svc.CheckAvailable(ctx, "WIDGET", 4); ok {
		t.Fatalf("4 of 3 should not be available")
	}
	if _, err := svc.CheckAvailable(ctx, "WIDGET", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestReserve_PublishesAdjustmentOnlyWhenCommitted(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()
	if _, err := svc.UpsertInitial(ctx, "WIDGET", 3); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	pub.events = nil

	res, err := svc.Reserve(ctx, "WIDGET", 5)
	if err != nil || res.Committed || res.ResultingQuantity != 3 {
		t.Fatalf("expected rejection, got %+v %v", res, err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("rejection must not publish, got %v", pub.events)
	}

	res, err = svc.Reserve(ctx, "WIDGET", 2)
	if err != nil || !res.Committed || res.ResultingQuantity != 1 {
		t.Fatalf("expected commit, got %+v %v", res, err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	adj, ok := pub.events[0].(domain.InventoryAdjusted)
	if !ok || adj.SKU != "WIDGET" || adj.Quantity != 1 {
		t.Fatalf("unexpected event %#v", pub.events[0])
	}
}

func TestRelease_RestoresAndPublishes(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()
	_, _ = svc.UpsertInitial(ctx, "WIDGET", 10)
	_, _ = svc.Reserve(ctx, "WIDGET", 4)
	pub.events = nil

	if err := svc.Release(ctx, "WIDGET", 4); err != nil {
		t.Fatalf("release: %v", err)
	}
	rec, err := svc.Get(ctx, "WIDGET")
	if err != nil || rec.Quantity != 10 {
		t.Fatalf("expected 10 after release, got %+v %v", rec, err)
	}
	if len(pub.events) != 1 || pub.events[0].(domain.InventoryAdjusted).Quantity != 10 {
		t.Fatalf("unexpected events %v", pub.events)
	}
}

func TestPublishFailureDoesNotFailLedgerOperation(t *testing.T) {
	svc, pub := newService(t)
	pub.err = errors.New("queue full")
	if _, err := svc.UpsertInitial(context.Background(), "WIDGET", 1); err != nil {
		t.Fatalf("upsert must succeed despite publish error: %v", err)
	}
}

func TestUpsertInitialValidation(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.UpsertInitial(context.Background(), "", 1); !errors.Is(err, domain.ErrInvalidSKU) {
		t.Fatalf("expected ErrInvalidSKU, got %v", err)
	}
	if _, err := svc.UpsertInitial(context.Background(), "WIDGET", -1); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	rec, err := svc.UpsertInitial(context.Background(), "WIDGET", 0)
	if err != nil || rec.Quantity != 0 {
		t.Fatalf("zero initial stock is allowed: %+v %v", rec, err)
	}
}
