package application

import (
	"context"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/catalog/domain"
)

type ProductRepository interface {
	// SaveWithOutbox stores the product and its event in one transaction.
	SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) (domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (domain.Product, error)
	List(ctx context.Context, limit int) ([]domain.Product, error)
}
