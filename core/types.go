package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionWindow is the fixed bidding window granted to every listing.
// Finalization becomes possible once the window has elapsed.
const AuctionWindow = 43200 * time.Second

// Commission charged on every settlement, in basis points of the price.
const (
	commissionRateBps = 200
	bpsDenominator    = 10000
)

// Account identifies a player, the market treasury, or the administrator.
type Account string

// Listing is the record of an asset offered for sale: a fixed buy-now price
// plus a time-boxed ascending auction. Amounts are in the smallest unit of
// the token ledger. Seller, prices, and window are immutable after creation;
// only the standing bid changes.
type Listing struct {
	TokenID       uint64          `json:"token_id"`
	Seller        Account         `json:"seller"`
	BuyNowPrice   decimal.Decimal `json:"buy_now_price"`
	StartingBid   decimal.Decimal `json:"starting_bid"`
	HighestBid    decimal.Decimal `json:"highest_bid"`
	HighestBidder Account         `json:"highest_bidder,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	EndsAt        time.Time       `json:"ends_at"`
}

// HasBid reports whether bidder funds are currently held in escrow for the
// listing. HighestBidder is meaningful only when this is true.
func (l *Listing) HasBid() bool {
	return l.HighestBid.IsPositive()
}

// MarketMetrics is the aggregate view over the active listing set.
// FloorPrice is zero when no listings are active.
type MarketMetrics struct {
	FloorPrice    decimal.Decimal `json:"floor_price"`
	TotalListings int             `json:"total_listings"`
}

// Clock supplies the engine's notion of time.
// This interface enables dependency injection for deterministic testing.
// The engine reads it exactly once per operation.
type Clock interface {
	Now() time.Time
}

// wallClock reads the system clock at second granularity for production use
type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// defaultClock provides the system clock for production
var defaultClock Clock = wallClock{}
