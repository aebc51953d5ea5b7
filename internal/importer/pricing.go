package importer

// pricing.go computes per-line cost from the catalog's tiered shipping
// rates and flat/per-unit extra fees. A misconfigured product degrades
// to zero shipping and fees rather than failing the line, so one bad
// catalog entry cannot block unrelated orders.

import (
	"math"
	"sort"
)

// sanitizeAmount coerces non-finite values to 0 so a corrupt catalog
// number can never poison a batch total.
func sanitizeAmount(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// shippingCost selects the shipping tier for qty and returns rate*qty.
// Tiers are evaluated descending by MinQty; the first tier with
// qty >= MinQty wins (the boundary is inclusive). When no tier matches,
// the tier with the smallest MinQty applies; with no tiers at all the
// cost is zero.
func shippingCost(tiers []ShippingTier, qty int) float64 {
	if len(tiers) == 0 || qty <= 0 {
		return 0
	}

	sorted := make([]ShippingTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQty > sorted[j].MinQty
	})

	for _, tier := range sorted {
		if qty >= tier.MinQty {
			return sanitizeAmount(tier.Rate) * float64(qty)
		}
	}
	// Degenerate configuration: every MinQty is above qty. Fall back to
	// the smallest tier, last after the descending sort.
	return sanitizeAmount(sorted[len(sorted)-1].Rate) * float64(qty)
}

// extraFeesTotal sums the product's fee list for one line. Per-unit
// fees scale with quantity; every other fee type is charged flat, once.
// Fees stack additively.
func extraFeesTotal(fees []ExtraFee, qty int) float64 {
	var total float64
	for _, fee := range fees {
		surcharge := sanitizeAmount(fee.Surcharge)
		if fee.Type == FeePerUnit {
			total += surcharge * float64(qty)
		} else {
			total += surcharge
		}
	}
	return total
}

// priceLine fills the cost fields of a line item from the product's
// pricing configuration: lineCost = unitPrice*qty + shipping + fees.
func priceLine(item *LineItem, p *Product, unitPrice float64) {
	item.PriceToCharge = sanitizeAmount(unitPrice)
	item.ShippingCost = shippingCost(p.ShippingTiers, item.Qty)
	item.ExtraFeesTotal = extraFeesTotal(p.ExtraFees, item.Qty)
	item.LineCost = item.PriceToCharge*float64(item.Qty) + item.ShippingCost + item.ExtraFeesTotal
}
