package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateSKU   = errors.New("product with this sku already exists")
	ErrInvalidProduct = errors.New("invalid product")
	ErrNotFound       = errors.New("product not found")
)

type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewProduct(sku, name, description string, price decimal.Decimal) Product {
	return Product{
		SKU:         strings.TrimSpace(sku),
		Name:        strings.TrimSpace(name),
		Description: description,
		Price:       price,
		CreatedAt:   time.Now().UTC(),
	}
}

func (p Product) Validate() error {
	switch {
	case p.SKU == "":
		return errors.Join(ErrInvalidProduct, errors.New("sku is required"))
	case p.Name == "":
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	case !p.Price.IsPositive():
		return errors.Join(ErrInvalidProduct, errors.New("price must be positive"))
	}
	return nil
}
