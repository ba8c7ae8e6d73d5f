package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/catalog/domain"
)

var ErrInvalidQuantity = errors.New("initial quantity must not be negative")

type RegisterProduct struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	InitialQuantity int             `json:"initial_quantity"`
}

type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

// RegisterProduct stores a new product. Stock for it is opened
// asynchronously by inventory once the ProductCreated event is relayed.
func (s *Service) RegisterProduct(ctx context.Context, cmd RegisterProduct, traceparent string) (domain.Product, error) {
	p := domain.NewProduct(cmd.SKU, cmd.Name, cmd.Description, cmd.Price)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if cmd.InitialQuantity < 0 {
		return domain.Product{}, errors.Join(domain.ErrInvalidProduct, ErrInvalidQuantity)
	}

	payload, err := json.Marshal(domain.ProductCreated{
		SKU:             p.SKU,
		Name:            p.Name,
		Price:           p.Price,
		InitialQuantity: cmd.InitialQuantity,
	})
	if err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.SaveWithOutbox(ctx, p, domain.TypeProductCreated, payload, traceparent)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product registered", "sku", saved.SKU, "initial_quantity", cmd.InitialQuantity)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, sku string) (domain.Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}
