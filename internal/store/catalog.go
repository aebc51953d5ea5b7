package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkforge/fulfillment/internal/importer"
)

// ProductBySKU fetches a product with its variants and pricing
// configuration by exact, case-sensitive SKU. Returns (nil, nil) when
// the SKU does not exist.
func (s *Store) ProductBySKU(ctx context.Context, sku string) (*importer.Product, error) {
	return productBySKU(ctx, s.pool, sku)
}

// productBySKU runs against any DBTX so the commit transaction can
// re-verify catalog entries inside its own tx.
func productBySKU(ctx context.Context, db DBTX, sku string) (*importer.Product, error) {
	var (
		id        uuid.UUID
		p         importer.Product
		tiersJSON []byte
		feesJSON  []byte
	)
	err := db.QueryRow(ctx, `
		SELECT id, sku, name, shipping_tiers, extra_fees
		FROM products
		WHERE sku = $1`, sku,
	).Scan(&id, &p.SKU, &p.Name, &tiersJSON, &feesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", sku, err)
	}

	p.ShippingTiers = decodeTiers(tiersJSON)
	p.ExtraFees = decodeFees(feesJSON)

	rows, err := db.Query(ctx, `
		SELECT color, size, base_price, COALESCE(cost_of_goods, 0)
		FROM product_variants
		WHERE product_id = $1
		ORDER BY color, size`, id)
	if err != nil {
		return nil, fmt.Errorf("query variants %s: %w", sku, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v importer.Variant
		if err := rows.Scan(&v.Color, &v.Size, &v.BasePrice, &v.CostOfGoods); err != nil {
			return nil, fmt.Errorf("scan variant %s: %w", sku, err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants %s: %w", sku, err)
	}
	return &p, nil
}

// decodeTiers parses the shipping_tiers blob. Malformed configuration
// degrades to no tiers (zero shipping) so one bad product cannot block
// unrelated orders; the blob is validated at catalog write time.
func decodeTiers(raw []byte) []importer.ShippingTier {
	if len(raw) == 0 {
		return nil
	}
	var tiers []importer.ShippingTier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return nil
	}
	return tiers
}

// decodeFees parses the extra_fees blob, same degrade-to-empty rule as
// decodeTiers.
func decodeFees(raw []byte) []importer.ExtraFee {
	if len(raw) == 0 {
		return nil
	}
	var fees []importer.ExtraFee
	if err := json.Unmarshal(raw, &fees); err != nil {
		return nil
	}
	return fees
}
