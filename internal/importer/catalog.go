package importer

import (
	"context"
	"fmt"
	"strings"
)

// productCache memoizes catalog lookups for the duration of one import
// call. It is threaded through the pipeline as an explicit parameter,
// never held as package state, so concurrent requests cannot share or
// corrupt each other's view. A present nil entry is a negative hit.
type productCache map[string]*Product

// lookupProduct fetches a product by exact, case-sensitive SKU, going
// to the store at most once per SKU per import call.
func lookupProduct(ctx context.Context, store CatalogStore, cache productCache, sku string) (*Product, error) {
	if p, ok := cache[sku]; ok {
		return p, nil
	}
	p, err := store.ProductBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup %s: %w", sku, err)
	}
	cache[sku] = p
	return p, nil
}

// variantAttrEqual compares a variant attribute against a requested
// value case-insensitively, treating "both empty" as a match. Blank
// attributes are common for single-variant products.
func variantAttrEqual(have, want string) bool {
	return strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want))
}

// matchVariant finds the product variant whose color and size both
// match the request. Returns nil when no variant qualifies.
func matchVariant(p *Product, color, size string) *Variant {
	for i := range p.Variants {
		v := &p.Variants[i]
		if variantAttrEqual(v.Color, color) && variantAttrEqual(v.Size, size) {
			return v
		}
	}
	return nil
}
