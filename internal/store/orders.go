package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkforge/fulfillment/internal/importer"
)

// movementRefImport tags reservation movements created by the import
// commit.
const movementRefImport = "ORDER_IMPORT"

// CommitImport persists an approved batch in one transaction: orders,
// one job per line, both QR tokens per job, an inventory reservation
// per job, and a movement audit row per reservation. Any failure rolls
// the whole batch back; no reader ever observes a partial order.
//
// Each job's SKU is re-verified against the catalog inside the
// transaction, so a product deleted between dry-run and commit aborts
// the batch instead of persisting a dangling job.
func (s *Store) CommitImport(ctx context.Context, sellerID string, orders []importer.OrderRecord) error {
	return s.runInTx(ctx, func(tx pgx.Tx) error {
		verified := make(map[string]bool)
		for i := range orders {
			if err := insertOrder(ctx, tx, sellerID, &orders[i], verified); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertOrder(ctx context.Context, tx pgx.Tx, sellerID string, order *importer.OrderRecord, verified map[string]bool) error {
	var orderID uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, code, seller_id, external_id, status, total, created_at)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), $4, $5, now())
		RETURNING id`,
		order.Code, sellerID, order.ExternalID, order.Status, order.Total,
	).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.Code, err)
	}

	for i := range order.Jobs {
		if err := insertJob(ctx, tx, sellerID, orderID, order.Code, &order.Jobs[i], verified); err != nil {
			return err
		}
	}
	return nil
}

func insertJob(ctx context.Context, tx pgx.Tx, sellerID string, orderID uuid.UUID, orderCode string, job *importer.JobRecord, verified map[string]bool) error {
	if err := verifyProduct(ctx, tx, job.SKU, verified); err != nil {
		return err
	}

	designs, err := json.Marshal(job.Designs)
	if err != nil {
		return fmt.Errorf("encode designs for job %s: %w", job.ID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO jobs (id, order_id, sku, color, size, qty,
			price, shipping_cost, extra_fees, line_cost,
			recipient_name, address1, address2, city, state, zip, country, phone,
			designs, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, now())`,
		job.ID, orderID, job.SKU, job.Color, job.Size, job.Qty,
		job.PriceToCharge, job.ShippingCost, job.ExtraFees, job.LineCost,
		job.RecipientName, job.Address1, job.Address2, job.City, job.State, job.Zip, job.Country, job.Phone,
		designs, job.Notes, job.Status)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}

	for _, token := range job.Tokens {
		_, err := tx.Exec(ctx, `
			INSERT INTO job_tokens (code, job_id, kind, max_uses, uses)
			VALUES ($1, $2, $3, $4, 0)`,
			token.Code, job.ID, string(token.Kind), token.MaxUses)
		if err != nil {
			return fmt.Errorf("insert %s token for job %s: %w", token.Kind, job.ID, err)
		}
	}

	if err := reserveStock(ctx, tx, job.SKU, job.Color, job.Size, job.Qty); err != nil {
		return err
	}
	return logMovement(ctx, tx, job.SKU, job.Color, job.Size, job.Qty,
		movementRefImport, orderCode, sellerID)
}

// verifyProduct confirms the SKU still exists, once per SKU per batch.
// It reads through productBySKU on the transaction, so the check sees
// the same catalog snapshot the rest of the commit does.
func verifyProduct(ctx context.Context, tx pgx.Tx, sku string, verified map[string]bool) error {
	if verified[sku] {
		return nil
	}
	product, err := productBySKU(ctx, tx, sku)
	if err != nil {
		return fmt.Errorf("verify product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("product %s no longer exists", sku)
	}
	verified[sku] = true
	return nil
}
