package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/orchestrator/domain"
	orderapp "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/application"
	orderdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
)

var (
	ErrOutOfStock           = errors.New("insufficient stock")
	ErrInventoryUnavailable = errors.New("inventory service temporarily unavailable")
	ErrOrderFailed          = errors.New("order could not be placed")
)

type PlaceOrderRequest struct {
	SKU           string          `json:"sku"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	CustomerEmail string          `json:"customer_email"`
}

type Receipt struct {
	OrderID     int64                   `json:"order_id"`
	OrderNumber uuid.UUID               `json:"order_number"`
	Status      orderdomain.OrderStatus `json:"status"`
}

type Options struct {
	LowStockThreshold int
	// PersistTimeout bounds the save and compensation steps, which run
	// detached from the caller's context.
	PersistTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{LowStockThreshold: 5, PersistTimeout: 5 * time.Second}
}

// Coordinator runs the order placement saga: reserve stock, persist the
// order, then announce it. A persistence failure after a committed
// reservation is undone by releasing the stock.
type Coordinator struct {
	log       *slog.Logger
	inventory Inventory
	orders    orderapp.OrderRepository
	events    EventPublisher
	opts      Options
	tracer    trace.Tracer
}

func NewCoordinator(log *slog.Logger, inventory Inventory, orders orderapp.OrderRepository, events EventPublisher, opts Options) *Coordinator {
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = 0
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultOptions().PersistTimeout
	}
	return &Coordinator{
		log:       log,
		inventory: inventory,
		orders:    orders,
		events:    events,
		opts:      opts,
		tracer:    otel.Tracer("order-saga"),
	}
}

func (c *Coordinator) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "PlaceOrder", trace.WithAttributes(
		attribute.String("sku", req.SKU),
		attribute.Int("quantity", req.Quantity),
	))
	defer span.End()

	receipt, err := c.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return receipt, err
}

func (c *Coordinator) run(ctx context.Context, req PlaceOrderRequest) (Receipt, error) {
	order := orderdomain.NewOrder(req.SKU, req.Quantity, req.Price, req.CustomerEmail)
	if err := order.Validate(); err != nil {
		return Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	saga := domain.NewSaga(req.SKU, req.Quantity)
	log := c.log.With("sku", req.SKU, "quantity", req.Quantity, "order_number", order.OrderNumber.String())
	c.advance(log, saga, domain.StateReserving)

	res := c.inventory.ReserveStock(ctx, req.SKU, req.Quantity)
	switch {
	case res.TransportFailure:
		c.advance(log, saga, domain.StateRejected)
		log.Warn("order rejected, inventory unreachable")
		if err := ctx.Err(); err != nil {
			return Receipt{}, fmt.Errorf("%w: %w", ErrInventoryUnavailable, err)
		}
		return Receipt{}, ErrInventoryUnavailable
	case !res.Committed:
		c.advance(log, saga, domain.StateRejected)
		log.Info("order rejected, insufficient stock", "available", res.ResultingQuantity)
		return Receipt{}, ErrOutOfStock
	}
	c.advance(log, saga, domain.StateReserved)

	// From here the saga must end PERSISTED or COMPENSATED whatever the
	// caller does with its context.
	sagaCtx := context.WithoutCancel(ctx)

	saved, err := c.persist(sagaCtx, order)
	if err != nil {
		return Receipt{}, c.compensate(sagaCtx, log, saga, err)
	}
	c.advance(log, saga, domain.StatePersisted)

	c.emit(sagaCtx, log, orderdomain.OrderPlaced{
		OrderNumber:   saved.OrderNumber.String(),
		CustomerEmail: saved.CustomerEmail,
	})
	if alert, ok := invdomain.StockAlert(req.SKU, res.ResultingQuantity, c.opts.LowStockThreshold); ok {
		c.emit(sagaCtx, log, alert)
	}
	c.advance(log, saga, domain.StateCompleted)

	log.Info("order placed", "order_id", saved.ID, "remaining", res.ResultingQuantity)
	return Receipt{OrderID: saved.ID, OrderNumber: saved.OrderNumber, Status: saved.Status}, nil
}

func (c *Coordinator) persist(ctx context.Context, order orderdomain.Order) (orderdomain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PersistTimeout)
	defer cancel()
	return c.orders.Save(ctx, order)
}

func (c *Coordinator) compensate(ctx context.Context, log *slog.Logger, saga *domain.Saga, cause error) error {
	c.advance(log, saga, domain.StateCompensating)

	ctx, cancel := context.WithTimeout(ctx, c.opts.PersistTimeout)
	defer cancel()

	if err := c.inventory.ReleaseStock(ctx, saga.SKU, saga.Quantity); err != nil {
		log.Error("compensation failed, stock stays reserved without an order",
			"saga_state", saga.State, "persist_err", cause, "release_err", err)
		return fmt.Errorf("%w: release after persist failure: %w", ErrOrderFailed, err)
	}
	c.advance(log, saga, domain.StateCompensated)
	log.Error("saga compensated", "persist_err", cause)
	return fmt.Errorf("%w: %w", ErrOrderFailed, cause)
}

// emit is best effort: a lost event never undoes a placed order.
func (c *Coordinator) emit(ctx context.Context, log *slog.Logger, ev publisher.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, ev); err != nil {
		log.Warn("event not published", "type", ev.Type(), "err", err)
	}
}

func (c *Coordinator) advance(log *slog.Logger, saga *domain.Saga, to domain.SagaState) {
	if err := saga.Transition(to); err != nil {
		log.Error("saga state", "err", err)
		return
	}
	log.Debug("saga state", "state", to)
}
