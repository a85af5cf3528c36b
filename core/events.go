package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a structured notification emitted after a committed operation.
type Event interface {
	// Kind returns the event's wire name ("listed", "bid_placed", "sold").
	Kind() string
}

// EventSink receives engine notifications.
// This interface enables dependency injection: the daemon plugs in a log or
// NATS publisher, tests plug in a recorder.
type EventSink interface {
	Publish(event Event)
}

// nopSink discards events when no sink is provided
type nopSink struct{}

func (nopSink) Publish(Event) {}

var defaultSink EventSink = nopSink{}

// ListedEvent reports a new active listing.
type ListedEvent struct {
	ID          string          `json:"id"`
	TokenID     uint64          `json:"token_id"`
	Seller      Account         `json:"seller"`
	BuyNowPrice decimal.Decimal `json:"buy_now_price"`
	At          time.Time       `json:"at"`
}

func (ListedEvent) Kind() string { return "listed" }

// BidPlacedEvent reports an accepted bid. Any superseded bidder has already
// been refunded when this event is published.
type BidPlacedEvent struct {
	ID      string          `json:"id"`
	TokenID uint64          `json:"token_id"`
	Bidder  Account         `json:"bidder"`
	Amount  decimal.Decimal `json:"amount"`
	At      time.Time       `json:"at"`
}

func (BidPlacedEvent) Kind() string { return "bid_placed" }

// SoldEvent reports a settlement, by buy-now or by finalization with a
// standing bid. Price is the full settlement price before commission.
type SoldEvent struct {
	ID      string          `json:"id"`
	TokenID uint64          `json:"token_id"`
	Seller  Account         `json:"seller"`
	Buyer   Account         `json:"buyer"`
	Price   decimal.Decimal `json:"price"`
	At      time.Time       `json:"at"`
}

func (SoldEvent) Kind() string { return "sold" }
