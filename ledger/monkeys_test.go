package ledger

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestMonkeyRegistry_MintAndOwner(t *testing.T) {
	r := NewMonkeyRegistry()

	assert.Nil(t, r.Mint(1, alice))
	check.NotNil(t, r.Mint(1, bob))

	owner, ok := r.OwnerOf(1)
	assert.True(t, ok)
	check.Equal(t, alice, owner)

	_, ok = r.OwnerOf(2)
	check.False(t, ok)
}

func TestMonkeyRegistry_OwnerAlwaysAuthorized(t *testing.T) {
	r := NewMonkeyRegistry()
	assert.Nil(t, r.Mint(1, alice))

	check.True(t, r.IsTransferAuthorized(1, alice))
	check.False(t, r.IsTransferAuthorized(1, market))
	check.False(t, r.IsTransferAuthorized(99, alice))
}

func TestMonkeyRegistry_PerAssetApproval(t *testing.T) {
	r := NewMonkeyRegistry()
	assert.Nil(t, r.Mint(1, alice))

	// Only the owner can grant approval.
	err := r.Approve(bob, 1, market)
	check.True(t, errors.Is(err, ErrNotAuthorized))

	assert.Nil(t, r.Approve(alice, 1, market))
	check.True(t, r.IsTransferAuthorized(1, market))

	// Approval is cleared by the transfer it enabled.
	assert.Nil(t, r.Transfer(market, 1, alice, bob))
	check.False(t, r.IsTransferAuthorized(1, market))
}

func TestMonkeyRegistry_BlanketApproval(t *testing.T) {
	r := NewMonkeyRegistry()
	assert.Nil(t, r.Mint(1, alice))
	assert.Nil(t, r.Mint(2, alice))

	r.SetApprovalForAll(alice, market, true)
	check.True(t, r.IsTransferAuthorized(1, market))
	check.True(t, r.IsTransferAuthorized(2, market))

	r.SetApprovalForAll(alice, market, false)
	check.False(t, r.IsTransferAuthorized(1, market))
}

func TestMonkeyRegistry_TransferChecks(t *testing.T) {
	r := NewMonkeyRegistry()
	assert.Nil(t, r.Mint(1, alice))

	err := r.Transfer(market, 99, alice, bob)
	check.True(t, errors.Is(err, ErrUnknownToken))

	err = r.Transfer(market, 1, bob, market)
	check.NotNil(t, err)

	err = r.Transfer(market, 1, alice, bob)
	check.True(t, errors.Is(err, ErrNotAuthorized))

	r.SetApprovalForAll(alice, market, true)
	assert.Nil(t, r.Transfer(market, 1, alice, bob))

	owner, ok := r.OwnerOf(1)
	assert.True(t, ok)
	check.Equal(t, bob, owner)

	// The blanket approval belonged to alice; bob's monkey is protected.
	check.False(t, r.IsTransferAuthorized(1, market))
}

func TestMonkeyRegistry_SnapshotRestore(t *testing.T) {
	r := NewMonkeyRegistry()
	assert.Nil(t, r.Mint(1, alice))
	r.SetApprovalForAll(alice, market, true)

	state := r.Snapshot()
	assert.Nil(t, r.Transfer(market, 1, alice, bob))

	restored := NewMonkeyRegistry()
	restored.Restore(state)

	owner, ok := restored.OwnerOf(1)
	assert.True(t, ok)
	check.Equal(t, alice, owner)
	check.True(t, restored.IsTransferAuthorized(1, market))
}
