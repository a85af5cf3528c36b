// Package bazaarapi defines the JSON wire types for the bazaar daemon's
// request/response protocol. Every request carries a "type" field the
// daemon dispatches on; every response echoes a response type plus a
// success flag and, on failure, the engine's reason string, which callers
// may match verbatim.
package bazaarapi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/monkeybrothers/bazaar/core"
)

// Request type names dispatched on by the daemon.
const (
	TypePing          = "ping"
	TypeList          = "list"
	TypeDelist        = "delist"
	TypePlaceBid      = "place_bid"
	TypeBuyNow        = "buy_now"
	TypeFinalize      = "finalize"
	TypeWithdrawFees  = "withdraw_fees"
	TypeGetListing    = "get_listing"
	TypeGetMetrics    = "get_metrics"
	TypeApproveFunds  = "approve_funds"
	TypeApproveMarket = "approve_market"
)

// Response is the envelope every reply carries. ErrorKind is set on
// failures to the engine's taxonomy ("authorization", "validation",
// "state", "collaborator").
type Response struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// ListRequest creates a listing on behalf of Caller.
type ListRequest struct {
	Type        string          `json:"type"`
	TokenID     uint64          `json:"token_id"`
	BuyNowPrice decimal.Decimal `json:"buy_now_price"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	Caller      string          `json:"caller"`
}

// DelistRequest withdraws Caller's listing.
type DelistRequest struct {
	Type    string `json:"type"`
	TokenID uint64 `json:"token_id"`
	Caller  string `json:"caller"`
}

// PlaceBidRequest places an ascending bid on behalf of Caller.
type PlaceBidRequest struct {
	Type    string          `json:"type"`
	TokenID uint64          `json:"token_id"`
	Amount  decimal.Decimal `json:"amount"`
	Caller  string          `json:"caller"`
}

// BuyNowRequest settles a listing instantly at its buy-now price.
type BuyNowRequest struct {
	Type    string `json:"type"`
	TokenID uint64 `json:"token_id"`
	Caller  string `json:"caller"`
}

// FinalizeRequest terminates an elapsed auction. Any caller may send it.
type FinalizeRequest struct {
	Type    string `json:"type"`
	TokenID uint64 `json:"token_id"`
	Caller  string `json:"caller"`
}

// WithdrawFeesRequest pays accumulated commission to the administrator.
type WithdrawFeesRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
}

// GetListingRequest reads one listing snapshot.
type GetListingRequest struct {
	Type    string `json:"type"`
	TokenID uint64 `json:"token_id"`
}

// GetMetricsRequest reads the market aggregates.
type GetMetricsRequest struct {
	Type string `json:"type"`
}

// ApproveFundsRequest grants the market an allowance over Caller's tokens,
// the staging step every bidder performs before bidding.
type ApproveFundsRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Caller string          `json:"caller"`
}

// ApproveMarketRequest grants or revokes the market blanket transfer rights
// over Caller's assets, the staging step every seller performs before
// listing.
type ApproveMarketRequest struct {
	Type     string `json:"type"`
	Approved bool   `json:"approved"`
	Caller   string `json:"caller"`
}

// ListingResponse returns a listing snapshot alongside the envelope.
type ListingResponse struct {
	Response
	Listing *core.Listing `json:"listing,omitempty"`
}

// MetricsResponse returns the market aggregates alongside the envelope.
type MetricsResponse struct {
	Response
	Metrics *core.MarketMetrics `json:"metrics,omitempty"`
}

// WithdrawFeesResponse reports the amount paid to the administrator.
type WithdrawFeesResponse struct {
	Response
	Amount decimal.Decimal `json:"amount"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// RequireCaller rejects requests that omit the acting account. The engine
// authorizes by identity, so an empty caller is always a protocol error.
func RequireCaller(caller string) error {
	if caller == "" {
		return fmt.Errorf("caller is required")
	}
	return nil
}
