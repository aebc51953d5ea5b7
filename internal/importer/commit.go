package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkforge/fulfillment/internal/logging"
)

// ErrCommitAborted wraps any failure inside the commit transaction. The
// whole batch rolls back; callers resubmit, there is no partial-success
// report.
var ErrCommitAborted = errors.New("commit aborted")

// Order and job lifecycle states. The import engine only ever produces
// PENDING_APPROVAL; the later transitions belong to the approval and
// production workflows.
const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusReceived        = "RECEIVED"
	StatusInProcess       = "IN_PROCESS"
	StatusCompleted       = "COMPLETED"
	StatusRejected        = "REJECTED"
)

// TokenKind distinguishes a job's two QR access tokens.
type TokenKind string

const (
	// TokenFile grants repeated access to the job's design assets.
	TokenFile TokenKind = "FILE"
	// TokenStatus is consumed up to twice: start production, complete
	// production.
	TokenStatus TokenKind = "STATUS"
)

// statusTokenMaxUses is the scan budget of a STATUS token.
const statusTokenMaxUses = 2

// TokenRecord is one QR access token to persist with a job. MaxUses 0
// means unlimited.
type TokenRecord struct {
	Code    string
	Kind    TokenKind
	MaxUses int
}

// JobRecord is one line item ready to persist. It carries a
// denormalized snapshot of recipient, address, variant, pricing, and
// designs taken at commit time, so later catalog or address edits never
// retroactively change a placed job.
type JobRecord struct {
	ID            uuid.UUID
	SKU           string
	Color         string
	Size          string
	Qty           int
	PriceToCharge float64
	ShippingCost  float64
	ExtraFees     float64
	LineCost      float64
	RecipientName string
	Address1      string
	Address2      string
	City          string
	State         string
	Zip           string
	Country       string
	Phone         string
	Designs       []Design
	Notes         string
	Status        string
	Tokens        []TokenRecord
}

// OrderRecord is one approved order ready to persist, jobs included.
type OrderRecord struct {
	Code       string
	ExternalID string
	Status     string
	Total      float64
	Jobs       []JobRecord
}

// Commit persists a caller-approved list of previously dry-run orders
// as one atomic unit: orders, jobs, both tokens per job, and inventory
// reservations all land together or not at all. A bounded wall-clock
// budget applies to the whole transaction. Returns the number of orders
// created.
func (e *Engine) Commit(ctx context.Context, sellerID string, orders []ParsedOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	if e.commitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.commitTimeout)
		defer cancel()
	}

	records := make([]OrderRecord, 0, len(orders))
	for i := range orders {
		records = append(records, buildOrderRecord(&orders[i]))
	}

	log := logging.WithFields(ctx, "seller_id", sellerID, "orders", len(records))

	start := time.Now()
	if err := e.imports.CommitImport(ctx, sellerID, records); err != nil {
		log.Error("import commit failed", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrCommitAborted, err)
	}

	log.Info("import committed", "duration", time.Since(start))
	return len(records), nil
}

// buildOrderRecord snapshots one parsed order into its persistable
// form: generated order code, job per line item, two tokens per job.
func buildOrderRecord(o *ParsedOrder) OrderRecord {
	rec := OrderRecord{
		Code:       generateOrderCode(o.ExternalID),
		ExternalID: o.ExternalID,
		Status:     StatusPendingApproval,
		Jobs:       make([]JobRecord, 0, len(o.Items)),
	}

	for _, item := range o.Items {
		job := JobRecord{
			ID:            uuid.New(),
			SKU:           item.SKU,
			Color:         item.Color,
			Size:          item.Size,
			Qty:           item.Qty,
			PriceToCharge: item.PriceToCharge,
			ShippingCost:  item.ShippingCost,
			ExtraFees:     item.ExtraFeesTotal,
			LineCost:      item.LineCost,
			RecipientName: o.RecipientName,
			Address1:      o.Address1,
			Address2:      o.Address2,
			City:          o.City,
			State:         o.State,
			Zip:           o.Zip,
			Country:       o.Country,
			Phone:         o.Phone,
			Designs:       item.Designs,
			Notes:         item.Notes,
			Status:        StatusPendingApproval,
			Tokens: []TokenRecord{
				{Code: uuid.NewString(), Kind: TokenFile, MaxUses: 0},
				{Code: uuid.NewString(), Kind: TokenStatus, MaxUses: statusTokenMaxUses},
			},
		}
		rec.Total += item.LineCost
		rec.Jobs = append(rec.Jobs, job)
	}
	return rec
}

// generateOrderCode derives a unique order code from the external id
// when present, otherwise from the commit timestamp, with a random
// suffix so retries and same-second commits cannot collide.
func generateOrderCode(externalID string) string {
	base := sanitizeCode(externalID)
	if base == "" {
		base = fmt.Sprintf("ORD-%d", time.Now().Unix())
	}
	return base + "-" + uuid.NewString()[:4]
}

// sanitizeCode keeps only characters safe for an order code.
func sanitizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
