package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	invapp "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	invmemory "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/infrastructure/memory"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/orchestrator/application"
	orderapp "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/application"
	orderdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
	ordermemory "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/infrastructure/memory"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/resilience"
)

var errNetwork = errors.New("connection reset by peer")

// ledgerTransport calls the stock ledger in-process and can be told to fail
// like a broken network would.
type ledgerTransport struct {
	svc          *invapp.Service
	reserveCalls atomic.Int32
	releaseCalls atomic.Int32
	reserveErr   error
	releaseErr   error
	afterReserve func()
}

func (l *ledgerTransport) CheckAvailability(ctx context.Context, sku string, quantity int) (bool, error) {
	return l.svc.CheckAvailable(ctx, sku, quantity)
}

func (l *ledgerTransport) Reserve(ctx context.Context, sku string, quantity int) (invdomain.ReservationResult, error) {
	l.reserveCalls.Add(1)
	if l.reserveErr != nil {
		return invdomain.ReservationResult{}, l.reserveErr
	}
	res, err := l.svc.Reserve(ctx, sku, quantity)
	if l.afterReserve != nil {
		l.afterReserve()
	}
	return res, err
}

func (l *ledgerTransport) Release(ctx context.Context, sku string, quantity int) error {
	l.releaseCalls.Add(1)
	if l.releaseErr != nil {
		return l.releaseErr
	}
	return l.svc.Release(ctx, sku, quantity)
}

type flakyOrders struct {
	*ordermemory.Repository
	failEvery int64
	saves     atomic.Int64
}

func (f *flakyOrders) Save(ctx context.Context, o orderdomain.Order) (orderdomain.Order, error) {
	n := f.saves.Add(1)
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return orderdomain.Order{}, errors.New("database unavailable")
	}
	return f.Repository.Save(ctx, o)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publisher.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev publisher.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type())
	}
	return out
}

type fixture struct {
	ledger    *invapp.Service
	transport *ledgerTransport
	gateway   *orderapp.InventoryGateway
	orders    *flakyOrders
	events    *recordingPublisher
	saga      *application.Coordinator
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	log := quietLogger()
	ledger := invapp.NewService(log, invmemory.NewLedger(), nil)
	if stock > 0 {
		if _, err := ledger.UpsertInitial(context.Background(), "WIDGET", stock); err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}

	guard := resilience.New("inventory", resilience.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		AttemptTimeout: time.Second,
		FailureRate:    0.5,
		MinRequests:    1000,
		Window:         time.Minute,
		OpenTimeout:    time.Minute,
		HalfOpenMax:    1,
	}, log)

	f := &fixture{
		ledger:    ledger,
		transport: &ledgerTransport{svc: ledger},
		orders:    &flakyOrders{Repository: ordermemory.NewRepository()},
		events:    &recordingPublisher{},
	}
	f.gateway = orderapp.NewInventoryGateway(log, f.transport, guard)
	f.saga = application.NewCoordinator(log, f.gateway, f.orders, f.events, application.DefaultOptions())
	return f
}

func (f *fixture) quantity(t *testing.T) int {
	t.Helper()
	rec, err := f.ledger.Get(context.Background(), "WIDGET")
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	return rec.Quantity
}

func request(qty int) application.PlaceOrderRequest {
	return application.PlaceOrderRequest{
		SKU:           "WIDGET",
		Quantity:      qty,
		Price:         decimal.RequireFromString("19.99"),
		CustomerEmail: "buyer@example.com",
	}
}

func TestPlaceOrder_LastUnitsEmitDepletedOnly(t *testing.T) {
	f := newFixture(t, 10)

	receipt, err := f.saga.PlaceOrder(context.Background(), request(10))
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if receipt.Status != orderdomain.StatusPlaced {
		t.Fatalf("expected PLACED, got %s", receipt.Status)
	}

	stored, err := f.orders.FindByOrderNumber(context.Background(), receipt.OrderNumber)
	if err != nil || stored.Status != orderdomain.StatusPlaced || stored.Quantity != 10 {
		t.Fatalf("stored order: %+v %v", stored, err)
	}
	if q := f.quantity(t); q != 0 {
		t.Fatalf("expected quantity 0, got %d", q)
	}

	types := f.events.types()
	if len(types) != 2 || types[0] != orderdomain.TypeOrderPlaced || types[1] != invdomain.TypeInventoryDepleted {
		t.Fatalf("expected OrderPlaced then InventoryDepleted, got %v", types)
	}
	placed := f.events.events[0].(orderdomain.OrderPlaced)
	if placed.OrderNumber != receipt.OrderNumber.String() || placed.CustomerEmail != "buyer@example.com" {
		t.Fatalf("unexpected OrderPlaced payload: %+v", placed)
	}
}

func TestPlaceOrder_LowStockAlert(t *testing.T) {
	f := newFixture(t, 10)

	if _, err := f.saga.PlaceOrder(context.Background(), request(6)); err != nil {
		t.Fatalf("place order: %v", err)
	}
	types := f.events.types()
	if len(types) != 2 || types[1] != invdomain.TypeInventoryLow {
		t.Fatalf("expected InventoryLow, got %v", types)
	}
	low := f.events.events[1].(invdomain.InventoryLow)
	if low.Quantity != 4 {
		t.Fatalf("expected low alert with 4 left, got %+v", low)
	}
}

func TestPlaceOrder_InsufficientStockIsRejected(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.saga.PlaceOrder(context.Background(), request(5))
	if !errors.Is(err, application.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if f.orders.Len() != 0 {
		t.Fatalf("rejected order must not be stored")
	}
	if q := f.quantity(t); q != 3 {
		t.Fatalf("expected quantity 3, got %d", q)
	}
	if len(f.events.types()) != 0 {
		t.Fatalf("rejection must not emit events, got %v", f.events.types())
	}
	if f.transport.reserveCalls.Load() != 1 {
		t.Fatalf("business rejection must not be retried, got %d calls", f.transport.reserveCalls.Load())
	}
}

func TestPlaceOrder_UnknownSKUIsRejected(t *testing.T) {
	f := newFixture(t, 0)

	if _, err := f.saga.PlaceOrder(context.Background(), request(1)); !errors.Is(err, application.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestPlaceOrder_PersistFailureIsCompensated(t *testing.T) {
	f := newFixture(t, 10)
	f.orders.failEvery = 1

	_, err := f.saga.PlaceOrder(context.Background(), request(4))
	if !errors.Is(err, application.ErrOrderFailed) {
		t.Fatalf("expected ErrOrderFailed, got %v", err)
	}
	if q := f.quantity(t); q != 10 {
		t.Fatalf("expected quantity restored to 10, got %d", q)
	}
	if f.transport.releaseCalls.Load() != 1 {
		t.Fatalf("expected one release, got %d", f.transport.releaseCalls.Load())
	}
	if f.orders.Len() != 0 {
		t.Fatalf("no order should exist")
	}
	if len(f.events.types()) != 0 {
		t.Fatalf("compensated saga must not emit events, got %v", f.events.types())
	}
}

func TestPlaceOrder_CompensationFailureIsReported(t *testing.T) {
	f := newFixture(t, 10)
	f.orders.failEvery = 1
	f.transport.releaseErr = errNetwork

	_, err := f.saga.PlaceOrder(context.Background(), request(4))
	if !errors.Is(err, application.ErrOrderFailed) || !errors.Is(err, errNetwork) {
		t.Fatalf("expected ErrOrderFailed wrapping the release error, got %v", err)
	}
	if f.transport.releaseCalls.Load() != 3 {
		t.Fatalf("release should use the retry budget, got %d calls", f.transport.releaseCalls.Load())
	}
}

func TestPlaceOrder_TransportFailureIsUnavailableWithoutRelease(t *testing.T) {
	f := newFixture(t, 10)
	f.transport.reserveErr = errNetwork

	_, err := f.saga.PlaceOrder(context.Background(), request(1))
	if !errors.Is(err, application.ErrInventoryUnavailable) {
		t.Fatalf("expected ErrInventoryUnavailable, got %v", err)
	}
	if errors.Is(err, application.ErrOutOfStock) {
		t.Fatalf("transport failure must not look like a stock rejection")
	}
	if f.transport.releaseCalls.Load() != 0 {
		t.Fatalf("no release may follow an unknown reservation outcome")
	}
	if f.orders.Len() != 0 {
		t.Fatalf("no order should exist")
	}
}

func TestPlaceOrder_OpenCircuitShortCircuits(t *testing.T) {
	log := quietLogger()
	f := newFixture(t, 10)
	guard := resilience.New("inventory", resilience.Config{
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		AttemptTimeout: time.Second,
		FailureRate:    0.5,
		MinRequests:    1,
		Window:         time.Minute,
		OpenTimeout:    time.Minute,
		HalfOpenMax:    1,
	}, log)
	gateway := orderapp.NewInventoryGateway(log, f.transport, guard)
	saga := application.NewCoordinator(log, gateway, f.orders, f.events, application.DefaultOptions())

	f.transport.reserveErr = errNetwork
	if _, err := saga.PlaceOrder(context.Background(), request(1)); !errors.Is(err, application.ErrInventoryUnavailable) {
		t.Fatalf("expected ErrInventoryUnavailable, got %v", err)
	}
	if gateway.CircuitState() != resilience.StateOpen {
		t.Fatalf("expected circuit open, got %s", gateway.CircuitState())
	}

	f.transport.reserveErr = nil
	before := f.transport.reserveCalls.Load()
	if _, err := saga.PlaceOrder(context.Background(), request(1)); !errors.Is(err, application.ErrInventoryUnavailable) {
		t.Fatalf("expected ErrInventoryUnavailable, got %v", err)
	}
	if f.transport.reserveCalls.Load() != before {
		t.Fatalf("open circuit must not reach the ledger")
	}
	if f.transport.releaseCalls.Load() != 0 || f.orders.Len() != 0 {
		t.Fatalf("open circuit must leave no order and issue no release")
	}
	if q := f.quantity(t); q != 10 {
		t.Fatalf("expected quantity untouched, got %d", q)
	}
}

func TestPlaceOrder_EventFailureKeepsOrder(t *testing.T) {
	f := newFixture(t, 10)
	f.events.err = publisher.ErrQueueFull

	receipt, err := f.saga.PlaceOrder(context.Background(), request(1))
	if err != nil {
		t.Fatalf("event failure must not fail the order: %v", err)
	}
	if _, err := f.orders.FindByID(context.Background(), receipt.OrderID); err != nil {
		t.Fatalf("order should be stored: %v", err)
	}
	if q := f.quantity(t); q != 9 {
		t.Fatalf("expected quantity 9, got %d", q)
	}
}

func TestPlaceOrder_InvalidRequestTouchesNothing(t *testing.T) {
	f := newFixture(t, 10)

	if _, err := f.saga.PlaceOrder(context.Background(), request(0)); !errors.Is(err, orderdomain.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if f.transport.reserveCalls.Load() != 0 {
		t.Fatalf("invalid request must not reach the ledger")
	}
}

func TestPlaceOrder_CancelledBeforeReservation(t *testing.T) {
	f := newFixture(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.saga.PlaceOrder(ctx, request(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.transport.reserveCalls.Load() != 0 || f.quantity(t) != 10 {
		t.Fatalf("cancelled request must have no side effects")
	}
}

func TestPlaceOrder_CancelledAfterReservationStillCompletes(t *testing.T) {
	f := newFixture(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.transport.afterReserve = cancel

	receipt, err := f.saga.PlaceOrder(ctx, request(2))
	if err != nil {
		t.Fatalf("saga must finish once stock is reserved: %v", err)
	}
	if _, err := f.orders.FindByOrderNumber(context.Background(), receipt.OrderNumber); err != nil {
		t.Fatalf("order should be stored: %v", err)
	}
	if q := f.quantity(t); q != 8 {
		t.Fatalf("expected quantity 8, got %d", q)
	}
}

func TestPlaceOrder_ConcurrentSagasLeaveNoOrphans(t *testing.T) {
	const initial, requests = 20, 60
	f := newFixture(t, initial)
	f.orders.failEvery = 4

	var g errgroup.Group
	for i := 0; i < requests; i++ {
		g.Go(func() error {
			_, err := f.saga.PlaceOrder(context.Background(), request(1))
			switch {
			case err == nil,
				errors.Is(err, application.ErrOutOfStock),
				errors.Is(err, application.ErrOrderFailed):
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected saga error: %v", err)
	}

	placed := f.orders.Len()
	if placed > initial {
		t.Fatalf("oversold: %d orders for %d units", placed, initial)
	}
	if q := f.quantity(t); initial-q != placed {
		t.Fatalf("ledger deducted %d units but %d orders exist", initial-q, placed)
	}
}
