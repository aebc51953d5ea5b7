package importer

import (
	"context"
	"fmt"
)

// inventoryCache memoizes per-SKU inventory fetches for one import
// call, same discipline as productCache.
type inventoryCache map[string][]InventoryRecord

// lookupInventory returns all inventory records for a SKU, hitting the
// store at most once per SKU per call. Records are fetched unfiltered
// and matched in-process so case or blank mismatches in color/size do
// not hide stock.
func lookupInventory(ctx context.Context, store InventoryStore, cache inventoryCache, sku string) ([]InventoryRecord, error) {
	if recs, ok := cache[sku]; ok {
		return recs, nil
	}
	recs, err := store.RecordsBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("inventory lookup %s: %w", sku, err)
	}
	cache[sku] = recs
	return recs, nil
}

// findInventoryRecord selects the record matching color/size with the
// same case-insensitive, empty-equals-empty rule as variant matching.
func findInventoryRecord(records []InventoryRecord, color, size string) *InventoryRecord {
	for i := range records {
		r := &records[i]
		if variantAttrEqual(r.Color, color) && variantAttrEqual(r.Size, size) {
			return r
		}
	}
	return nil
}

// checkStock appends an out-of-stock error when on-hand inventory
// cannot cover the requested quantity. Advisory only at dry-run time:
// it marks the order invalid but reserves nothing, and the line's cost
// still counts toward the order's own subtotal for display.
func checkStock(o *ParsedOrder, records []InventoryRecord, item *LineItem) {
	available := 0
	if rec := findInventoryRecord(records, item.Color, item.Size); rec != nil {
		available = rec.OnHand
	}
	if available < item.Qty {
		o.AddError(KindInsufficientStock,
			fmt.Sprintf("Out of Stock (Requested: %d, Available: %d)", item.Qty, available))
	}
}
