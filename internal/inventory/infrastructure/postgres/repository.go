package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS stock (
	sku        TEXT PRIMARY KEY,
	quantity   INTEGER NOT NULL CHECK (quantity >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// reserveSQL decrements only when enough stock is left. The second branch
// reports the current quantity when the guard fails; no row at all means the
// SKU is unknown.
const reserveSQL = `
	WITH reserved AS (
		UPDATE stock SET quantity = quantity - $2, updated_at = now()
		WHERE sku = $1 AND quantity >= $2
		RETURNING quantity
	)
	SELECT true, quantity FROM reserved
	UNION ALL
	SELECT false, quantity FROM stock
	WHERE sku = $1 AND NOT EXISTS (SELECT 1 FROM reserved)`

const addSQL = `
	INSERT INTO stock (sku, quantity) VALUES ($1, $2)
	ON CONFLICT (sku) DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = now()
	RETURNING quantity`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:  log,
		pool: pool,
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) Get(ctx context.Context, sku string) (domain.StockRecord, error) {
	var rec domain.StockRecord
	err := r.pool.QueryRow(ctx, `SELECT sku, quantity, updated_at FROM stock WHERE sku = $1`, sku).
		Scan(&rec.SKU, &rec.Quantity, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StockRecord{}, err
	}
	return rec, nil
}

func (r *Repository) Reserve(ctx context.Context, sku string, quantity int) (domain.ReservationResult, error) {
	var res domain.ReservationResult
	err := r.pool.QueryRow(ctx, reserveSQL, sku, quantity).Scan(&res.Committed, &res.ResultingQuantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ReservationResult{}, nil
	}
	if err != nil {
		return domain.ReservationResult{}, err
	}
	return res, nil
}

func (r *Repository) Release(ctx context.Context, sku string, quantity int) (int, error) {
	return r.add(ctx, sku, quantity)
}

func (r *Repository) Upsert(ctx context.Context, sku string, quantity int) (int, error) {
	return r.add(ctx, sku, quantity)
}

func (r *Repository) add(ctx context.Context, sku string, quantity int) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, addSQL, sku, quantity).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
