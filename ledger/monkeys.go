package ledger

import (
	"errors"
	"fmt"

	"github.com/monkeybrothers/bazaar/core"
)

// Registry failures surfaced to callers.
var (
	ErrUnknownToken  = errors.New("unknown token")
	ErrNotAuthorized = errors.New("transfer not authorized")
)

// MonkeyRegistry is an in-memory unique-asset registry with per-asset
// approvals and blanket operator approvals, mirroring the authorization
// model the bazaar relies on: the market is granted transfer rights but
// never custody.
type MonkeyRegistry struct {
	owners    map[uint64]core.Account
	approved  map[uint64]core.Account
	operators map[core.Account]map[core.Account]bool
}

func NewMonkeyRegistry() *MonkeyRegistry {
	return &MonkeyRegistry{
		owners:    make(map[uint64]core.Account),
		approved:  make(map[uint64]core.Account),
		operators: make(map[core.Account]map[core.Account]bool),
	}
}

// Mint registers a new asset under owner. Attribute generation lives
// outside this package; Mint exists to stage ownership.
func (r *MonkeyRegistry) Mint(tokenID uint64, owner core.Account) error {
	if _, exists := r.owners[tokenID]; exists {
		return fmt.Errorf("token %d already minted", tokenID)
	}
	r.owners[tokenID] = owner
	return nil
}

func (r *MonkeyRegistry) OwnerOf(tokenID uint64) (core.Account, bool) {
	owner, ok := r.owners[tokenID]
	return owner, ok
}

// Approve grants spender transfer rights over a single asset. Only the
// current owner may grant it; the approval is cleared on transfer.
func (r *MonkeyRegistry) Approve(caller core.Account, tokenID uint64, spender core.Account) error {
	owner, ok := r.owners[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if owner != caller {
		return ErrNotAuthorized
	}
	r.approved[tokenID] = spender
	return nil
}

// SetApprovalForAll grants or revokes blanket transfer rights over all of
// the caller's assets, current and future.
func (r *MonkeyRegistry) SetApprovalForAll(caller, operator core.Account, approved bool) {
	if r.operators[caller] == nil {
		r.operators[caller] = make(map[core.Account]bool)
	}
	r.operators[caller][operator] = approved
}

// IsTransferAuthorized reports whether spender may move the asset: the
// owner always can, otherwise a per-asset or blanket approval is required.
func (r *MonkeyRegistry) IsTransferAuthorized(tokenID uint64, spender core.Account) bool {
	owner, ok := r.owners[tokenID]
	if !ok {
		return false
	}
	if owner == spender {
		return true
	}
	if r.approved[tokenID] == spender {
		return true
	}
	return r.operators[owner][spender]
}

// Transfer moves the asset from its current owner to the recipient on
// behalf of spender, clearing any per-asset approval.
func (r *MonkeyRegistry) Transfer(spender core.Account, tokenID uint64, from, to core.Account) error {
	owner, ok := r.owners[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if owner != from {
		return fmt.Errorf("token %d not owned by %s", tokenID, from)
	}
	if !r.IsTransferAuthorized(tokenID, spender) {
		return ErrNotAuthorized
	}
	r.owners[tokenID] = to
	delete(r.approved, tokenID)
	return nil
}

// MonkeyState is a point-in-time capture of the registry for persistence.
type MonkeyState struct {
	Owners    map[uint64]core.Account                `json:"owners" cbor:"owners"`
	Approved  map[uint64]core.Account                `json:"approved" cbor:"approved"`
	Operators map[core.Account]map[core.Account]bool `json:"operators" cbor:"operators"`
}

// Snapshot deep-copies the registry state.
func (r *MonkeyRegistry) Snapshot() *MonkeyState {
	state := &MonkeyState{
		Owners:    make(map[uint64]core.Account, len(r.owners)),
		Approved:  make(map[uint64]core.Account, len(r.approved)),
		Operators: make(map[core.Account]map[core.Account]bool, len(r.operators)),
	}
	for tokenID, owner := range r.owners {
		state.Owners[tokenID] = owner
	}
	for tokenID, spender := range r.approved {
		state.Approved[tokenID] = spender
	}
	for owner, grants := range r.operators {
		copied := make(map[core.Account]bool, len(grants))
		for operator, approved := range grants {
			copied[operator] = approved
		}
		state.Operators[owner] = copied
	}
	return state
}

// Restore replaces the registry state with a previously captured one.
func (r *MonkeyRegistry) Restore(state *MonkeyState) {
	r.owners = make(map[uint64]core.Account, len(state.Owners))
	for tokenID, owner := range state.Owners {
		r.owners[tokenID] = owner
	}
	r.approved = make(map[uint64]core.Account, len(state.Approved))
	for tokenID, spender := range state.Approved {
		r.approved[tokenID] = spender
	}
	r.operators = make(map[core.Account]map[core.Account]bool, len(state.Operators))
	for owner, grants := range state.Operators {
		copied := make(map[core.Account]bool, len(grants))
		for operator, approved := range grants {
			copied[operator] = approved
		}
		r.operators[owner] = copied
	}
}
