package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	invdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/notification/application"
	orderdomain "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/consumer"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/publisher"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

// Topics the notification service subscribes to.
var Topics = []string{orderdomain.TopicOrderPlaced, invdomain.Topic}

type EventHandler struct {
	log *slog.Logger
	svc *application.Service
}

func NewEventHandler(log *slog.Logger, svc *application.Service) *EventHandler {
	return &EventHandler{log: log, svc: svc}
}

func NewConsumer(log *slog.Logger, reader consumer.Reader, svc *application.Service, idem consumer.Deduper) *consumer.Consumer {
	return consumer.New(log, "notification-consumer", reader, idem, NewEventHandler(log, svc).Handle)
}

func (h *EventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch t := tracing.HeaderValue(msg.Headers, publisher.EventTypeHeader); t {
	case orderdomain.TypeOrderPlaced:
		var ev orderdomain.OrderPlaced
		if !h.decode(msg, &ev) {
			return nil
		}
		return h.svc.OrderPlaced(ctx, ev.OrderNumber, ev.CustomerEmail)
	case invdomain.TypeInventoryLow:
		var ev invdomain.InventoryLow
		if !h.decode(msg, &ev) {
			return nil
		}
		return h.svc.LowStock(ctx, ev.SKU, ev.Quantity)
	case invdomain.TypeInventoryDepleted:
		var ev invdomain.InventoryDepleted
		if !h.decode(msg, &ev) {
			return nil
		}
		return h.svc.OutOfStock(ctx, ev.SKU)
	default:
		h.log.Debug("ignoring event", "topic", msg.Topic, "type", t)
		return nil
	}
}

func (h *EventHandler) decode(msg kafka.Message, v any) bool {
	if err := json.Unmarshal(msg.Value, v); err != nil {
		h.log.Error("unmarshal failed", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return false
	}
	return true
}
