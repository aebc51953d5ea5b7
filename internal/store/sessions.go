package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkforge/fulfillment/internal/web/middleware"
)

// Resolve looks up an active session by bearer token. Sessions are
// created and expired by the identity service; this is a read-only
// consumer. An unknown or expired token resolves to (nil, nil).
func (s *Store) Resolve(ctx context.Context, token string) (*middleware.Session, error) {
	var session middleware.Session
	err := s.pool.QueryRow(ctx, `
		SELECT seller_id, is_admin
		FROM sessions
		WHERE token = $1 AND expires_at > now()`, token,
	).Scan(&session.SellerID, &session.Admin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &session, nil
}
