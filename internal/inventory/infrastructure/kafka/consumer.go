package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	catalogdom "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/catalog/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/consumer"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/outbox"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/tracing"
)

// ProductHandler opens a stock record for every product the catalog
// announces.
type ProductHandler struct {
	log *slog.Logger
	svc *application.Service
}

func NewProductHandler(log *slog.Logger, svc *application.Service) *ProductHandler {
	return &ProductHandler{log: log, svc: svc}
}

func NewConsumer(log *slog.Logger, reader consumer.Reader, svc *application.Service, idem consumer.Deduper) *consumer.Consumer {
	return consumer.New(log, "inventory-consumer", reader, idem, NewProductHandler(log, svc).Handle)
}

func (h *ProductHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if t := tracing.HeaderValue(msg.Headers, outbox.EventTypeHeader); t != catalogdom.TypeProductCreated {
		h.log.Debug("ignoring event", "type", t)
		return nil
	}

	var ev catalogdom.ProductCreated
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// A malformed payload will not get better on retry.
		h.log.Error("unmarshal failed", "offset", msg.Offset, "err", err)
		return nil
	}

	rec, err := h.svc.UpsertInitial(ctx, ev.SKU, ev.InitialQuantity)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSKU) || errors.Is(err, domain.ErrInvalidQuantity) {
			h.log.Error("invalid product event", "sku", ev.SKU, "err", err)
			return nil
		}
		return fmt.Errorf("init stock for %s: %w", ev.SKU, err)
	}
	h.log.Info("stock initialised", "sku", rec.SKU, "quantity", rec.Quantity)
	return nil
}
