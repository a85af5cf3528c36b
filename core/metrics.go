package core

import "github.com/shopspring/decimal"

// MarketMetricsView returns the cached aggregates over the active set: the
// minimum buy-now price (zero when the set is empty) and the listing count.
// Pure read, no side effects.
func (b *Bazaar) MarketMetricsView() MarketMetrics {
	return MarketMetrics{
		FloorPrice:    b.floor,
		TotalListings: len(b.listings),
	}
}

// noteInserted folds a new listing's buy-now price into the floor cache.
func (b *Bazaar) noteInserted(buyNowPrice decimal.Decimal) {
	if len(b.listings) == 1 || buyNowPrice.LessThan(b.floor) {
		b.floor = buyNowPrice
	}
}

// noteRemoved updates the floor cache after a listing left the table.
// Removing the floor-defining listing forces a rescan of the remaining
// active set; the active set is expected to stay small enough for that to
// be cheap.
func (b *Bazaar) noteRemoved(buyNowPrice decimal.Decimal) {
	if len(b.listings) == 0 {
		b.floor = decimal.Zero
		return
	}
	if !buyNowPrice.Equal(b.floor) {
		return
	}
	b.floor = b.rescanFloor()
}

func (b *Bazaar) rescanFloor() decimal.Decimal {
	var floor decimal.Decimal
	first := true
	for _, listing := range b.listings {
		if first || listing.BuyNowPrice.LessThan(floor) {
			floor = listing.BuyNowPrice
			first = false
		}
	}
	return floor
}
