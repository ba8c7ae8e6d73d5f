// Package ledgertest holds the behaviour every StockRepository backend must
// share. Backends call Run from their own tests.
package ledgertest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/domain"
)

// Run executes the suite. newRepo must return an empty ledger on each call.
func Run(t *testing.T, newRepo func(t *testing.T) application.StockRepository) {
	t.Run("UnknownSKUIsZeroStock", func(t *testing.T) { unknownSKU(t, newRepo(t)) })
	t.Run("ReserveCommits", func(t *testing.T) { reserveCommits(t, newRepo(t)) })
	t.Run("ReserveRejectsWithoutSideEffects", func(t *testing.T) { reserveRejects(t, newRepo(t)) })
	t.Run("ReleaseRestoresReservation", func(t *testing.T) { releaseRoundTrip(t, newRepo(t)) })
	t.Run("ConcurrentReservationsNeverOversell", func(t *testing.T) { concurrentReserve(t, newRepo(t)) })
}

func quantity(t *testing.T, repo application.StockRepository, sku string) int {
	t.Helper()
	rec, err := repo.Get(context.Background(), sku)
	if err != nil {
		t.Fatalf("get %s: %v", sku, err)
	}
	return rec.Quantity
}

func unknownSKU(t *testing.T, repo application.StockRepository) {
	res, err := repo.Reserve(context.Background(), "GHOST", 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.Committed || res.ResultingQuantity != 0 {
		t.Fatalf("unknown sku must reject with zero, got %+v", res)
	}
	if _, err := repo.Get(context.Background(), "GHOST"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("reserve must not create a record, got err=%v", err)
	}
}

func reserveCommits(t *testing.T, repo application.StockRepository) {
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, "WIDGET", 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := repo.Reserve(ctx, "WIDGET", 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !res.Committed || res.ResultingQuantity != 0 {
		t.Fatalf("expected committed with 0 left, got %+v", res)
	}
	if got := quantity(t, repo, "WIDGET"); got != 0 {
		t.Fatalf("expected 0 in ledger, got %d", got)
	}
}

func reserveRejects(t *testing.T, repo application.StockRepository) {
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, "WIDGET", 3); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := repo.Reserve(ctx, "WIDGET", 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.Committed || res.ResultingQuantity != 3 {
		t.Fatalf("expected rejection reporting 3, got %+v", res)
	}
	if got := quantity(t, repo, "WIDGET"); got != 3 {
		t.Fatalf("rejection changed the ledger: %d", got)
	}
}

func releaseRoundTrip(t *testing.T, repo application.StockRepository) {
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, "WIDGET", 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := repo.Reserve(ctx, "WIDGET", 4)
	if err != nil || !res.Committed || res.ResultingQuantity != 6 {
		t.Fatalf("reserve: %+v %v", res, err)
	}
	left, err := repo.Release(ctx, "WIDGET", 4)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if left != 10 || quantity(t, repo, "WIDGET") != 10 {
		t.Fatalf("release did not restore quantity, got %d", left)
	}

	if _, err := repo.Release(ctx, "WIDGET", 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if res, err := repo.Reserve(ctx, "WIDGET", 2); err != nil || !res.Committed {
		t.Fatalf("reserve after release: %+v %v", res, err)
	}
	if got := quantity(t, repo, "WIDGET"); got != 10 {
		t.Fatalf("release then reserve must round-trip, got %d", got)
	}
}

func concurrentReserve(t *testing.T, repo application.StockRepository) {
	const (
		start   = 100
		workers = 250
	)
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, "HOT", start); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var committed atomic.Int64
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		qty := i%3 + 1
		g.Go(func() error {
			res, err := repo.Reserve(ctx, "HOT", qty)
			if err != nil {
				return err
			}
			if res.Committed {
				committed.Add(int64(qty))
			}
			if res.ResultingQuantity < 0 {
				return errors.New("negative quantity observed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if committed.Load() > start {
		t.Fatalf("oversold: committed %d of %d", committed.Load(), start)
	}
	if got := quantity(t, repo, "HOT"); int64(got) != start-committed.Load() {
		t.Fatalf("final quantity %d, want %d", got, start-committed.Load())
	}
}
