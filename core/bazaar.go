package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bazaar is the marketplace settlement engine. It owns the table of active
// listings and the accumulated commission, and consults the token ledger and
// asset registry for every fund or ownership movement. It assumes a
// single-writer execution model: the caller guarantees operations are applied
// sequentially.
type Bazaar struct {
	ledger   TokenLedger
	registry AssetRegistry
	clock    Clock
	sink     EventSink

	// account is the treasury identity escrowed bids and fees are held
	// under; admin is the only caller allowed to withdraw fees.
	account Account
	admin   Account

	listings  map[uint64]*Listing
	totalFees decimal.Decimal
	floor     decimal.Decimal
}

// New constructs an engine over the given collaborators. account is the
// market's own ledger identity, admin the administrator fixed for the
// engine's lifetime. A nil clock defaults to the system clock, a nil sink
// discards events.
func New(ledger TokenLedger, registry AssetRegistry, account, admin Account, clock Clock, sink EventSink) *Bazaar {
	if clock == nil {
		clock = defaultClock
	}
	if sink == nil {
		sink = defaultSink
	}
	return &Bazaar{
		ledger:   ledger,
		registry: registry,
		clock:    clock,
		sink:     sink,
		account:  account,
		admin:    admin,
		listings: make(map[uint64]*Listing),
	}
}

// Account returns the market's treasury identity. Players grant this account
// their fund allowances and asset transfer authorizations.
func (b *Bazaar) Account() Account {
	return b.account
}

// List creates an active listing for tokenID at a fixed buy-now price with
// an ascending auction starting at startingBid. The caller must own the
// asset and have authorized the market for its transfer; the market takes no
// custody. A token with a live listing cannot be listed again.
func (b *Bazaar) List(tokenID uint64, buyNowPrice, startingBid decimal.Decimal, caller Account) (*Listing, error) {
	// A live listing blocks re-listing. Custody never leaves the seller, so
	// this surfaces with the same reason as the ownership check.
	if _, exists := b.listings[tokenID]; exists {
		return nil, authorizationErr("Not the owner")
	}
	owner, ok := b.registry.OwnerOf(tokenID)
	if !ok || owner != caller {
		return nil, authorizationErr("Not the owner")
	}
	if !b.registry.IsTransferAuthorized(tokenID, b.account) {
		return nil, authorizationErr("NFT not approved for transfer")
	}
	if !buyNowPrice.IsPositive() {
		return nil, validationErr("Buy now price must be greater than 0")
	}
	if startingBid.IsNegative() || startingBid.GreaterThanOrEqual(buyNowPrice) {
		return nil, validationErr("Starting bid must be lower than buy now price")
	}

	now := b.clock.Now()
	listing := &Listing{
		TokenID:     tokenID,
		Seller:      caller,
		BuyNowPrice: buyNowPrice,
		StartingBid: startingBid,
		CreatedAt:   now,
		EndsAt:      now.Add(AuctionWindow),
	}
	b.listings[tokenID] = listing
	b.noteInserted(buyNowPrice)

	b.sink.Publish(ListedEvent{
		ID:          uuid.NewString(),
		TokenID:     tokenID,
		Seller:      caller,
		BuyNowPrice: buyNowPrice,
		At:          now,
	})

	snapshot := *listing
	return &snapshot, nil
}

// Delist withdraws a listing. Only the seller may delist, and only while no
// bid is held in escrow.
func (b *Bazaar) Delist(tokenID uint64, caller Account) error {
	listing, exists := b.listings[tokenID]
	if !exists || listing.Seller != caller {
		return authorizationErr("Not the seller")
	}
	if listing.HasBid() {
		return stateErr("Cannot delist: has bids")
	}

	b.remove(tokenID)
	return nil
}

// ListingDetails returns a snapshot of the active listing for tokenID.
func (b *Bazaar) ListingDetails(tokenID uint64) (*Listing, error) {
	listing, exists := b.listings[tokenID]
	if !exists {
		return nil, stateErr("Not listed")
	}
	snapshot := *listing
	return &snapshot, nil
}

// remove drops a listing from the active table and updates the metrics
// cache. Terminal transitions keep no history.
func (b *Bazaar) remove(tokenID uint64) {
	listing := b.listings[tokenID]
	delete(b.listings, tokenID)
	b.noteRemoved(listing.BuyNowPrice)
}
