package core

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBid places an ascending bid on an active listing. The amount is
// pulled into market escrow; a superseded bidder is refunded their exact
// prior bid first, so at most one bidder's funds are ever held per listing.
func (b *Bazaar) PlaceBid(tokenID uint64, amount decimal.Decimal, bidder Account) error {
	now := b.clock.Now()

	listing, exists := b.listings[tokenID]
	if !exists || !now.Before(listing.EndsAt) {
		return stateErr("Not an active auction")
	}
	if bidder == listing.Seller {
		return authorizationErr("Cannot bid on own listing")
	}
	if !listing.HasBid() {
		// A zero amount would record a bidder with no escrow held, so a
		// zero starting bid still demands a positive opening amount.
		if !amount.IsPositive() || amount.LessThan(listing.StartingBid) {
			return validationErr("Bid below starting price")
		}
	} else if amount.LessThanOrEqual(listing.HighestBid) {
		return validationErr("Bid not higher than current bid")
	}
	if err := b.checkFunds(bidder, amount); err != nil {
		return err
	}

	// Refund the superseded bidder before pulling the new escrow so two
	// bidders' funds are never held for one listing at the same time. The
	// bookkeeping is cleared alongside the refund: if the pull below fails
	// the listing is left with no standing bid rather than claiming escrow
	// the market does not hold.
	if listing.HasBid() {
		prior, priorBid := listing.HighestBidder, listing.HighestBid
		listing.HighestBid = decimal.Zero
		listing.HighestBidder = ""
		if err := b.ledger.TransferFrom(b.account, b.account, prior, priorBid); err != nil {
			return collaboratorErr(err.Error(), err)
		}
	}
	if err := b.ledger.TransferFrom(b.account, bidder, b.account, amount); err != nil {
		return collaboratorErr(err.Error(), err)
	}
	listing.HighestBid = amount
	listing.HighestBidder = bidder

	b.sink.Publish(BidPlacedEvent{
		ID:      uuid.NewString(),
		TokenID: tokenID,
		Bidder:  bidder,
		Amount:  amount,
		At:      now,
	})
	return nil
}

// checkFunds verifies the account's balance and the allowance granted to the
// market cover amount, before any funds move.
func (b *Bazaar) checkFunds(account Account, amount decimal.Decimal) error {
	if b.ledger.BalanceOf(account).LessThan(amount) {
		return collaboratorErr("Insufficient balance", ErrInsufficientBalance)
	}
	if b.ledger.Allowance(account, b.account).LessThan(amount) {
		return collaboratorErr("Insufficient balance", ErrInsufficientAllowance)
	}
	return nil
}
