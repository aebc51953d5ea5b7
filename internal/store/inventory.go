package store

import (
	"context"
	"fmt"

	"github.com/inkforge/fulfillment/internal/importer"
)

// RecordsBySKU returns every inventory record for a SKU, deliberately
// unfiltered by color/size: the engine matches attributes in-process so
// case or blank mismatches do not hide stock.
func (s *Store) RecordsBySKU(ctx context.Context, sku string) ([]importer.InventoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sku, color, size, on_hand, reserved
		FROM inventory
		WHERE sku = $1`, sku)
	if err != nil {
		return nil, fmt.Errorf("query inventory %s: %w", sku, err)
	}
	defer rows.Close()

	var records []importer.InventoryRecord
	for rows.Next() {
		var r importer.InventoryRecord
		if err := rows.Scan(&r.SKU, &r.Color, &r.Size, &r.OnHand, &r.Reserved); err != nil {
			return nil, fmt.Errorf("scan inventory %s: %w", sku, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory %s: %w", sku, err)
	}
	return records, nil
}

// reserveStock increments the reserved counter for (sku, color, size)
// inside the commit transaction, creating the record with zero on-hand
// stock when absent. A single conditional upsert, so two simultaneous
// commits against the same key cannot lose an update.
func reserveStock(ctx context.Context, db DBTX, sku, color, size string, qty int) error {
	_, err := db.Exec(ctx, `
		INSERT INTO inventory (sku, color, size, on_hand, reserved)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (sku, color, size)
		DO UPDATE SET reserved = inventory.reserved + EXCLUDED.reserved`,
		sku, color, size, qty)
	if err != nil {
		return fmt.Errorf("reserve stock %s %s/%s: %w", sku, color, size, err)
	}
	return nil
}

// logMovement writes the reservation change to the movement audit
// trail, same transaction as the reservation itself.
func logMovement(ctx context.Context, db DBTX, sku, color, size string, delta int, refType, refID, changedBy string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO inventory_movements (sku, color, size, delta, ref_type, ref_id, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		sku, color, size, delta, refType, refID, changedBy)
	if err != nil {
		return fmt.Errorf("log movement %s: %w", sku, err)
	}
	return nil
}
