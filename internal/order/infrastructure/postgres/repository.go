package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS orders (
	id             BIGSERIAL PRIMARY KEY,
	order_number   UUID NOT NULL UNIQUE,
	sku            TEXT NOT NULL,
	quantity       INTEGER NOT NULL CHECK (quantity > 0),
	price          NUMERIC(12, 2) NOT NULL,
	customer_email TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectOrder = `SELECT id, order_number::text, sku, quantity, price::text, customer_email, status, created_at FROM orders`

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	if err := o.Validate(); err != nil {
		return domain.Order{}, err
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO orders (order_number, sku, quantity, price, customer_email, status, created_at)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING id`,
		o.OrderNumber.String(), o.SKU, o.Quantity, o.Price.String(), o.CustomerEmail, string(o.Status), o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Order{}, domain.ErrDuplicateOrder
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	return r.findOne(ctx, selectOrder+` WHERE id = $1`, id)
}

func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber uuid.UUID) (domain.Order, error) {
	return r.findOne(ctx, selectOrder+` WHERE order_number = $1::uuid`, orderNumber.String())
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (domain.Order, error) {
	var (
		o      domain.Order
		number string
		price  string
		status string
	)
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&o.ID, &number, &o.SKU, &o.Quantity, &price, &o.CustomerEmail, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.OrderNumber, err = uuid.Parse(number); err != nil {
		return domain.Order{}, err
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}
