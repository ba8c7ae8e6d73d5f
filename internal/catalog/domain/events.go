package domain

import "github.com/shopspring/decimal"

const (
	Topic              = "product-events"
	TypeProductCreated = "ProductCreated"
)

// ProductCreated tells inventory to open a stock record for the new SKU.
type ProductCreated struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	InitialQuantity int             `json:"initial_quantity"`
}
