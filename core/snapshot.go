package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// State is a point-in-time capture of the engine's mutable state, used for
// daemon persistence and recovery. Listings are ordered by token ID so
// captures of the same state are identical.
type State struct {
	Listings  []Listing       `json:"listings" cbor:"listings"`
	TotalFees decimal.Decimal `json:"total_fees" cbor:"total_fees"`
}

// Snapshot captures the active listing table and accumulated fees.
func (b *Bazaar) Snapshot() *State {
	listings := make([]Listing, 0, len(b.listings))
	for _, listing := range b.listings {
		listings = append(listings, *listing)
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].TokenID < listings[j].TokenID
	})
	return &State{
		Listings:  listings,
		TotalFees: b.totalFees,
	}
}

// Restore replaces the engine's mutable state with a previously captured
// one and rebuilds the metrics cache. The engine must not have live
// listings callers still hold references to.
func (b *Bazaar) Restore(state *State) error {
	listings := make(map[uint64]*Listing, len(state.Listings))
	for i := range state.Listings {
		listing := state.Listings[i]
		if _, dup := listings[listing.TokenID]; dup {
			return fmt.Errorf("duplicate listing for token %d in state", listing.TokenID)
		}
		listings[listing.TokenID] = &listing
	}

	b.listings = listings
	b.totalFees = state.TotalFees
	if len(b.listings) == 0 {
		b.floor = decimal.Zero
	} else {
		b.floor = b.rescanFloor()
	}
	return nil
}
