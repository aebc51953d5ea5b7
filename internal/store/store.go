// Package store provides the pgx-backed persistence layer for the
// import engine: catalog reads, inventory reads and reservations, the
// atomic import commit, and wallet/seller lookups.
//
// Expected schema (managed externally):
//
//	products            (id, sku unique, name, shipping_tiers jsonb, extra_fees jsonb)
//	product_variants    (product_id, color, size, base_price, cost_of_goods,
//	                     unique (product_id, color, size))
//	inventory           (sku, color, size, on_hand, reserved,
//	                     unique (sku, color, size))
//	orders              (id, code unique, seller_id, external_id, status, total, created_at)
//	jobs                (id, order_id, sku, color, size, qty, price, shipping_cost,
//	                     extra_fees, line_cost, recipient_name, address1, address2,
//	                     city, state, zip, country, phone, designs jsonb, notes,
//	                     status, created_at)
//	job_tokens          (code unique, job_id, kind, max_uses, uses)
//	inventory_movements (id, sku, color, size, delta, ref_type, ref_id,
//	                     changed_by, created_at)
//	wallets             (seller_id unique, balance)
//	sellers             (id, ...)
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations, satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store bundles every persistence operation the engine needs. One Store
// serves all requests; it is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// runInTx executes fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (s *Store) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
