// Package importer implements the order import and fulfillment costing
// engine: it turns an arbitrary tabular upload into priced,
// inventory-checked order and job records through a two-phase
// dry-run/commit protocol.
//
// The dry-run pass is read-only and exhaustive: every validation problem
// is accumulated per order, nothing is persisted, and running it twice
// against the same catalog/inventory snapshot yields identical output.
// The commit pass persists a caller-approved subset of parsed orders as
// a single all-or-nothing transaction.
package importer

import (
	"context"
	"encoding/json"
)

// ErrorKind classifies a per-order validation error.
type ErrorKind string

const (
	KindMissingField      ErrorKind = "missing_required_field"
	KindQuantityInvalid   ErrorKind = "quantity_invalid"
	KindProductNotFound   ErrorKind = "product_not_found"
	KindVariantNotFound   ErrorKind = "variant_not_found"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindDesignMissing     ErrorKind = "design_missing"
	KindPositionMissing   ErrorKind = "position_missing"
)

// OrderError is a single validation problem attached to a parsed order.
// It is a value, not a Go error: the dry-run accumulates these and keeps
// going, it never fails fast on sibling lines or sibling orders.
type OrderError struct {
	Kind    ErrorKind
	Message string
}

// MarshalJSON renders the error as its message string, matching the
// report shape clients consume ("errors": ["...", ...]).
func (e OrderError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Message)
}

// UnmarshalJSON accepts the string form back, so a client can echo a
// dry-run order into the commit payload unchanged. The kind is not part
// of the wire shape and is left empty on decode.
func (e *OrderError) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &e.Message)
}

func (e OrderError) String() string { return e.Message }

// Design is one creative asset reference on a line item. URLs are
// opaque here; presence and position are all the engine validates.
type Design struct {
	URL       string `json:"url"`
	Position  string `json:"position"`
	MockupURL string `json:"mockupUrl,omitempty"`
	Type      string `json:"type,omitempty"`
}

// LineItem is one resolved and priced row of an order. Created during
// the dry-run; on commit it becomes a persisted job.
type LineItem struct {
	SKU            string   `json:"sku"`
	Color          string   `json:"color"`
	Size           string   `json:"size"`
	Qty            int      `json:"qty"`
	Designs        []Design `json:"designs"`
	Notes          string   `json:"notes,omitempty"`
	PriceToCharge  float64  `json:"priceToCharge"`
	ShippingCost   float64  `json:"shippingCost"`
	ExtraFeesTotal float64  `json:"extraFeesTotal"`
	LineCost       float64  `json:"lineCost"`
}

// ParsedOrder is the dry-run output for one logical order. It is owned
// exclusively by the dry-run call that produced it and is never
// persisted as-is; commit re-materializes approved orders from it.
type ParsedOrder struct {
	ExternalID    string       `json:"id,omitempty"`
	TempID        string       `json:"tempId"`
	RecipientName string       `json:"recipientName"`
	Address1      string       `json:"address1"`
	Address2      string       `json:"address2,omitempty"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	Zip           string       `json:"zip"`
	Country       string       `json:"country"`
	Phone         string       `json:"phone,omitempty"`
	Items         []LineItem   `json:"items"`
	TotalCost     float64      `json:"totalCost"`
	Valid         bool         `json:"valid"`
	Errors        []OrderError `json:"errors"`
}

// AddError appends a validation error and marks the order invalid.
func (o *ParsedOrder) AddError(kind ErrorKind, msg string) {
	o.Errors = append(o.Errors, OrderError{Kind: kind, Message: msg})
	o.Valid = false
}

// DryRunReport aggregates per-order validity and batch totals. The
// wallet figures are informational only; nothing blocks commit on them.
type DryRunReport struct {
	Success            bool          `json:"success"`
	DryRun             bool          `json:"dryRun"`
	ParsedOrders       []ParsedOrder `json:"parsedOrders"`
	TotalEstimatedCost float64       `json:"totalEstimatedCost"`
	BalanceSufficient  bool          `json:"balanceSufficient"`
	WalletBalance      float64       `json:"walletBalance"`
}

// ShippingTier is one quantity band of a product's shipping rate table.
// The tier whose MinQty is the largest value <= qty wins; the rate is
// charged per unit.
type ShippingTier struct {
	MinQty int     `json:"minQty"`
	Rate   float64 `json:"rate"`
}

// FeeType distinguishes how an extra fee scales with quantity.
type FeeType string

const (
	FeeFlat    FeeType = "flat"
	FeePerUnit FeeType = "per_unit"
)

// ExtraFee is a per-line surcharge configured on a product. Flat fees
// apply once per line regardless of quantity; per-unit fees scale.
type ExtraFee struct {
	Type      FeeType `json:"type"`
	Surcharge float64 `json:"surcharge"`
	Label     string  `json:"label,omitempty"`
}

// Variant is a (color, size) combination of a product carrying its own
// price. Uniqueness is (product, color, size).
type Variant struct {
	Color       string
	Size        string
	BasePrice   float64
	CostOfGoods float64
}

// Product is a read-only catalog entity keyed by SKU.
type Product struct {
	SKU           string
	Name          string
	Variants      []Variant
	ShippingTiers []ShippingTier
	ExtraFees     []ExtraFee
}

// InventoryRecord is live stock for one (sku, color, size). OnHand is
// physical stock, decremented only by the fulfillment workflow;
// Reserved is committed-but-unfulfilled demand.
type InventoryRecord struct {
	SKU      string
	Color    string
	Size     string
	OnHand   int
	Reserved int
}

// CatalogStore resolves products by exact, case-sensitive SKU.
// A missing SKU returns (nil, nil), not an error.
type CatalogStore interface {
	ProductBySKU(ctx context.Context, sku string) (*Product, error)
}

// InventoryStore fetches all records for a SKU. Filtering by color/size
// happens in the engine, case-insensitively, so stores stay tolerant of
// case and blank mismatches.
type InventoryStore interface {
	RecordsBySKU(ctx context.Context, sku string) ([]InventoryRecord, error)
}

// WalletReader reads a seller's current balance. Read-only here;
// balance mutation belongs to the wallet workflows.
type WalletReader interface {
	Balance(ctx context.Context, sellerID string) (float64, error)
}

// ImportStore persists an approved batch atomically. Implementations
// must guarantee that a failure anywhere leaves zero orders, jobs,
// tokens, or reservations from the call behind.
type ImportStore interface {
	CommitImport(ctx context.Context, sellerID string, orders []OrderRecord) error
}
