package importer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/inkforge/fulfillment/internal/logging"
)

// Engine runs the import pipeline. One Engine serves all requests; all
// per-call state (parsed orders, lookup caches) lives on the stack of
// the call that created it.
type Engine struct {
	catalog   CatalogStore
	inventory InventoryStore
	wallet    WalletReader
	imports   ImportStore

	commitTimeout time.Duration
}

// NewEngine wires the engine to its collaborators. commitTimeout bounds
// the wall clock of a whole commit transaction; zero disables the bound.
func NewEngine(catalog CatalogStore, inventory InventoryStore, wallet WalletReader, imports ImportStore, commitTimeout time.Duration) *Engine {
	return &Engine{
		catalog:       catalog,
		inventory:     inventory,
		wallet:        wallet,
		imports:       imports,
		commitTimeout: commitTimeout,
	}
}

// DryRun parses, groups, resolves, and prices an upload without
// persisting anything. It is a pure function of the input bytes and the
// current catalog/inventory snapshot: every validation problem is
// accumulated on its order and sibling rows keep processing.
//
// Only malformed input or a failing store round trip returns an error;
// invalid orders do not.
func (e *Engine) DryRun(ctx context.Context, sellerID string, data []byte) (*DryRunReport, error) {
	start := time.Now()

	rows, err := ParseTable(data)
	if err != nil {
		return nil, err
	}
	groups := GroupRows(rows)

	products := make(productCache)
	stock := make(inventoryCache)

	report := &DryRunReport{
		Success:      true,
		DryRun:       true,
		ParsedOrders: make([]ParsedOrder, 0, len(groups)),
	}

	for _, group := range groups {
		order, err := e.buildOrder(ctx, group, products, stock)
		if err != nil {
			return nil, err
		}
		if order.Valid {
			report.TotalEstimatedCost += order.TotalCost
		}
		report.ParsedOrders = append(report.ParsedOrders, *order)
	}

	balance, err := e.wallet.Balance(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("read wallet balance: %w", err)
	}
	report.WalletBalance = balance
	// Informational only: an insufficient balance never blocks commit.
	report.BalanceSufficient = balance >= report.TotalEstimatedCost

	logging.FromContext(ctx).Info("dry-run complete",
		"seller_id", sellerID,
		"rows", len(rows),
		"orders", len(report.ParsedOrders),
		"estimated_cost", report.TotalEstimatedCost,
		"duration", time.Since(start),
	)
	return report, nil
}

// buildOrder resolves one group into a ParsedOrder: address, then each
// row through catalog, stock, pricing, and design validation.
func (e *Engine) buildOrder(ctx context.Context, group OrderGroup, products productCache, stock inventoryCache) (*ParsedOrder, error) {
	order := &ParsedOrder{Valid: true, Items: []LineItem{}, Errors: []OrderError{}}
	if group.External {
		order.ExternalID = group.Key
	} else {
		order.TempID = group.Key
	}

	resolveAddress(order, group)

	for _, row := range group.Rows {
		item, err := e.buildLine(ctx, order, row, products, stock)
		if err != nil {
			return nil, err
		}
		order.TotalCost += item.LineCost
		order.Items = append(order.Items, *item)
	}
	return order, nil
}

// buildLine resolves and prices one row. Rows that fail catalog or
// quantity checks are still recorded (zero cost) so the report shows
// every row the uploader sent.
func (e *Engine) buildLine(ctx context.Context, order *ParsedOrder, row RawRow, products productCache, stock inventoryCache) (*LineItem, error) {
	item := &LineItem{
		SKU:     row.First("sku"),
		Color:   row.First("color"),
		Size:    row.First("size"),
		Notes:   row.First("notes"),
		Designs: []Design{},
	}

	item.Qty = parseQty(order, row)
	if designs := collectDesigns(order, row); designs != nil {
		item.Designs = designs
	}

	if item.SKU == "" {
		order.AddError(KindMissingField, fmt.Sprintf("Row %d: Missing SKU", row.Num))
		return item, nil
	}
	if item.Qty == 0 {
		return item, nil
	}

	product, err := lookupProduct(ctx, e.catalog, products, item.SKU)
	if err != nil {
		return nil, err
	}
	if product == nil {
		order.AddError(KindProductNotFound, fmt.Sprintf("SKU %s not found", item.SKU))
		return item, nil
	}

	variant := matchVariant(product, item.Color, item.Size)
	if variant == nil {
		order.AddError(KindVariantNotFound,
			fmt.Sprintf("Variant %s/%s not found for SKU %s", item.Color, item.Size, item.SKU))
		return item, nil
	}

	priceLine(item, product, variant.BasePrice)

	records, err := lookupInventory(ctx, e.inventory, stock, item.SKU)
	if err != nil {
		return nil, err
	}
	checkStock(order, records, item)

	return item, nil
}

// parseQty reads the row's quantity. An absent column means one unit; a
// non-numeric or non-positive value is an error and yields 0 so the
// line is excluded from pricing.
func parseQty(order *ParsedOrder, row RawRow) int {
	raw := row.First("qty")
	if raw == "" {
		return 1
	}
	qty, err := strconv.Atoi(raw)
	if err != nil || qty < 1 {
		order.AddError(KindQuantityInvalid, fmt.Sprintf("Row %d: Invalid quantity %q", row.Num, raw))
		return 0
	}
	return qty
}
