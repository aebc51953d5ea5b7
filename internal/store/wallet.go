package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Balance reads a seller's current wallet balance. A seller without a
// wallet row reads as zero. Read-only: balance mutation belongs to the
// wallet workflows, not the import engine.
func (s *Store) Balance(ctx context.Context, sellerID string) (float64, error) {
	var balance float64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE seller_id = $1`, sellerID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query wallet %s: %w", sellerID, err)
	}
	return balance, nil
}

// SellerExists reports whether a seller id is known. Used to validate
// the admin-only target-seller override on commit.
func (s *Store) SellerExists(ctx context.Context, sellerID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sellers WHERE id = $1)`, sellerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query seller %s: %w", sellerID, err)
	}
	return exists, nil
}
