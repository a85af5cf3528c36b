package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// commissionFor computes the market's cut of a settlement price: 200 basis
// points with explicit floor rounding. The rounding loss is absorbed by the
// seller's payment, so commission + payment always equals the price.
func commissionFor(price decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromInt(commissionRateBps)
	denom := decimal.NewFromInt(bpsDenominator)
	return price.Mul(rate).Div(denom).Floor()
}

// BuyNow settles a listing instantly at its buy-now price. Any standing bid
// is refunded before the buyer's funds are pulled. The seller receives the
// price minus commission; ownership moves to the buyer and the listing is
// removed.
func (b *Bazaar) BuyNow(tokenID uint64, buyer Account) error {
	now := b.clock.Now()

	listing, exists := b.listings[tokenID]
	if !exists {
		return stateErr("Not listed")
	}
	// The asset must still be transferable before any funds move: the
	// seller keeps custody while listed and may have revoked the market's
	// approval since.
	owner, ok := b.registry.OwnerOf(tokenID)
	if !ok || owner != listing.Seller || !b.registry.IsTransferAuthorized(tokenID, b.account) {
		return authorizationErr("NFT not approved for transfer")
	}
	if err := b.checkFunds(buyer, listing.BuyNowPrice); err != nil {
		return err
	}

	if listing.HasBid() {
		prior, priorBid := listing.HighestBidder, listing.HighestBid
		listing.HighestBid = decimal.Zero
		listing.HighestBidder = ""
		if err := b.ledger.TransferFrom(b.account, b.account, prior, priorBid); err != nil {
			return collaboratorErr(err.Error(), err)
		}
	}
	if err := b.ledger.TransferFrom(b.account, buyer, b.account, listing.BuyNowPrice); err != nil {
		return collaboratorErr(err.Error(), err)
	}

	return b.settle(listing, buyer, listing.BuyNowPrice, now)
}

// Finalize terminates a listing whose auction window has elapsed. Anyone may
// trigger it. With a standing bid the listing settles to the highest bidder
// using the escrow already held; without bids the listing is simply removed
// and the asset stays with the seller, who never gave up custody.
func (b *Bazaar) Finalize(tokenID uint64, caller Account) error {
	now := b.clock.Now()

	listing, exists := b.listings[tokenID]
	if !exists {
		return stateErr("Not listed")
	}
	if now.Before(listing.EndsAt) {
		return stateErr("Auction still ongoing")
	}

	if !listing.HasBid() {
		b.remove(tokenID)
		return nil
	}
	return b.settle(listing, listing.HighestBidder, listing.HighestBid, now)
}

// settle performs the common tail of BuyNow and Finalize: the price is
// already held by the market, so only the ownership transfer, the
// commission split, and the table removal remain. The asset moves first: a
// registry refusal aborts the settlement before any funds leave the market,
// so the listing keeps claiming exactly the escrow still held and the
// operation can be retried.
func (b *Bazaar) settle(listing *Listing, buyer Account, price decimal.Decimal, now time.Time) error {
	if err := b.registry.Transfer(b.account, listing.TokenID, listing.Seller, buyer); err != nil {
		return collaboratorErr(err.Error(), err)
	}

	commission := commissionFor(price)
	payment := price.Sub(commission)
	if err := b.ledger.TransferFrom(b.account, b.account, listing.Seller, payment); err != nil {
		return collaboratorErr(err.Error(), err)
	}
	b.totalFees = b.totalFees.Add(commission)

	b.remove(listing.TokenID)

	b.sink.Publish(SoldEvent{
		ID:      uuid.NewString(),
		TokenID: listing.TokenID,
		Seller:  listing.Seller,
		Buyer:   buyer,
		Price:   price,
		At:      now,
	})
	return nil
}

// TotalFees returns the commission accumulated since the last withdrawal.
func (b *Bazaar) TotalFees() decimal.Decimal {
	return b.totalFees
}

// WithdrawFees pays the accumulated commission to the administrator and
// resets the accumulator. Only the administrator may call it.
func (b *Bazaar) WithdrawFees(caller Account) (decimal.Decimal, error) {
	if caller != b.admin {
		return decimal.Zero, authorizationErr("Function accessible only by the owner !!")
	}

	fees := b.totalFees
	if fees.IsPositive() {
		if err := b.ledger.TransferFrom(b.account, b.account, b.admin, fees); err != nil {
			return decimal.Zero, collaboratorErr(err.Error(), err)
		}
	}
	b.totalFees = decimal.Zero
	return fees, nil
}
