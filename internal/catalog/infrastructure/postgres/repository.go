package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/catalog/domain"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/pkg/outbox"
)

const schema = `CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	sku         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       NUMERIC(12, 2) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

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

func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Product, eventType string, payload []byte, traceparent string) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `INSERT INTO products (sku, name, description, price, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING id`,
		p.SKU, p.Name, p.Description, p.Price.String(), p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	err = outbox.Enqueue(ctx, tx, outbox.Event{
		AggregateType: "product",
		AggregateID:   p.SKU,
		Type:          eventType,
		Payload:       payload,
		Headers:       map[string]string{"source": "catalog-service"},
		Traceparent:   traceparent,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("enqueue %s: %w", eventType, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, sku, name, description, price::text, created_at FROM products WHERE sku = $1`, sku)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repository) List(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, description, price::text, created_at FROM products ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &price, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
