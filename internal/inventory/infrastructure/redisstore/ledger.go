// Package redisstore keeps the ledger in Redis. Reserve is a Lua script so the
// guard and the decrement run as one command; additions are plain INCRBY.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
)

var reserveScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return {0, 0}
end
current = tonumber(current)
local want = tonumber(ARGV[1])
if current < want then
	return {0, current}
end
return {1, redis.call('DECRBY', KEYS[1], want)}
`)

type Ledger struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewLedger(rdb redis.UniversalClient) *Ledger {
	return &Ledger{rdb: rdb, prefix: "stock:"}
}

func (l *Ledger) key(sku string) string { return l.prefix + sku }

func (l *Ledger) Get(ctx context.Context, sku string) (domain.StockRecord, error) {
	v, err := l.rdb.Get(ctx, l.key(sku)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.StockRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.StockRecord{}, err
	}
	q, err := strconv.Atoi(v)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("corrupt stock value for %s: %w", sku, err)
	}
	return domain.StockRecord{SKU: sku, Quantity: q}, nil
}

func (l *Ledger) Reserve(ctx context.Context, sku string, quantity int) (domain.ReservationResult, error) {
	out, err := reserveScript.Run(ctx, l.rdb, []string{l.key(sku)}, quantity).Int64Slice()
	if err != nil {
		return domain.ReservationResult{}, err
	}
	if len(out) != 2 {
		return domain.ReservationResult{}, fmt.Errorf("unexpected reserve reply %v", out)
	}
	return domain.ReservationResult{Committed: out[0] == 1, ResultingQuantity: int(out[1])}, nil
}

func (l *Ledger) Release(ctx context.Context, sku string, quantity int) (int, error) {
	n, err := l.rdb.IncrBy(ctx, l.key(sku), int64(quantity)).Result()
	return int(n), err
}

func (l *Ledger) Upsert(ctx context.Context, sku string, quantity int) (int, error) {
	n, err := l.rdb.IncrBy(ctx, l.key(sku), int64(quantity)).Result()
	return int(n), err
}
