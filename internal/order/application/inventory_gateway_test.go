package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/resilience"
)

var errUnreachable = errors.New("connection refused")

type flakyTransport struct {
	calls     atomic.Int32
	failFirst int32
	result    invdomain.ReservationResult
	available bool
}

func (f *flakyTransport) fail() error {
	if f.calls.Add(1) <= f.failFirst {
		return errUnreachable
	}
	return nil
}

func (f *flakyTransport) CheckAvailability(context.Context, string, int) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	return f.available, nil
}

func (f *flakyTransport) Reserve(context.Context, string, int) (invdomain.ReservationResult, error) {
	if err := f.fail(); err != nil {
		return invdomain.ReservationResult{}, err
	}
	return f.result, nil
}

func (f *flakyTransport) Release(context.Context, string, int) error {
	return f.fail()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guard(minRequests uint32) *resilience.Wrapper {
	return resilience.New("inventory", resilience.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		AttemptTimeout: time.Second,
		FailureRate:    0.5,
		MinRequests:    minRequests,
		Window:         time.Minute,
		OpenTimeout:    time.Minute,
		HalfOpenMax:    1,
	}, quietLogger())
}

func TestIsAvailable_FailsClosed(t *testing.T) {
	tr := &flakyTransport{failFirst: 100, available: true}
	g := NewInventoryGateway(quietLogger(), tr, guard(1000))

	if g.IsAvailable(context.Background(), "WIDGET", 1) {
		t.Fatalf("unreachable inventory must read as unavailable")
	}
	if tr.calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", tr.calls.Load())
	}
}

func TestIsAvailable_RecoversWithinRetryBudget(t *testing.T) {
	tr := &flakyTransport{failFirst: 2, available: true}
	g := NewInventoryGateway(quietLogger(), tr, guard(1000))

	if !g.IsAvailable(context.Background(), "WIDGET", 1) {
		t.Fatalf("expected available after retries")
	}
}

func TestReserveStock_BusinessRejectionIsNotRetried(t *testing.T) {
	tr := &flakyTransport{result: invdomain.ReservationResult{Committed: false, ResultingQuantity: 3}}
	g := NewInventoryGateway(quietLogger(), tr, guard(1000))

	res := g.ReserveStock(context.Background(), "WIDGET", 5)
	if !res.Rejected() || res.ResultingQuantity != 3 {
		t.Fatalf("expected business rejection with quantity 3, got %+v", res)
	}
	if tr.calls.Load() != 1 {
		t.Fatalf("rejection must not be retried, got %d calls", tr.calls.Load())
	}
}

func TestReserveStock_TransportFailureSentinel(t *testing.T) {
	tr := &flakyTransport{failFirst: 100}
	g := NewInventoryGateway(quietLogger(), tr, guard(1000))

	res := g.ReserveStock(context.Background(), "WIDGET", 5)
	want := invdomain.ReservationResult{Committed: false, ResultingQuantity: 0, TransportFailure: true}
	if res != want {
		t.Fatalf("expected transport-failure sentinel, got %+v", res)
	}
	if res.Rejected() {
		t.Fatalf("transport failure must not read as a business rejection")
	}
}

func TestReserveStock_OpenCircuitSkipsNetwork(t *testing.T) {
	tr := &flakyTransport{failFirst: 100}
	g := NewInventoryGateway(quietLogger(), tr, guard(1))

	g.ReserveStock(context.Background(), "WIDGET", 1)
	if g.CircuitState() != resilience.StateOpen {
		t.Fatalf("expected breaker open, got %s", g.CircuitState())
	}
	before := tr.calls.Load()

	res := g.ReserveStock(context.Background(), "WIDGET", 1)
	if !res.TransportFailure {
		t.Fatalf("expected transport-failure sentinel, got %+v", res)
	}
	if tr.calls.Load() != before {
		t.Fatalf("open circuit must not reach the transport")
	}
}

func TestReleaseStock_ReturnsFinalError(t *testing.T) {
	tr := &flakyTransport{failFirst: 100}
	g := NewInventoryGateway(quietLogger(), tr, guard(1000))

	if err := g.ReleaseStock(context.Background(), "WIDGET", 1); !errors.Is(err, errUnreachable) {
		t.Fatalf("expected transport error, got %v", err)
	}

	ok := &flakyTransport{failFirst: 1}
	g = NewInventoryGateway(quietLogger(), ok, guard(1000))
	if err := g.ReleaseStock(context.Background(), "WIDGET", 1); err != nil {
		t.Fatalf("expected release to succeed on retry, got %v", err)
	}
}
