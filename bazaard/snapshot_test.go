package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/monkeybrothers/bazaar/bazaarapi"
	"github.com/monkeybrothers/bazaar/core"
	"github.com/monkeybrothers/bazaar/ledger"
)

func TestSnapshotManagerLoadLatest_Empty(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir())

	state, err := sm.LoadLatest()
	assert.Nil(t, err)
	check.Nil(t, state)
}

func TestSnapshotManagerLoadLatest_MissingDir(t *testing.T) {
	sm := NewSnapshotManager(filepath.Join(t.TempDir(), "not-created-yet"))

	state, err := sm.LoadLatest()
	assert.Nil(t, err)
	check.Nil(t, state)
}

func TestSnapshotManager_HighestSequenceWins(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir())

	for _, seq := range []uint64{1, 3, 2} {
		monk := ledger.NewMonkLedger()
		assert.Nil(t, monk.Mint("player1", dec(int64(seq))))
		assert.Nil(t, sm.Save(&worldState{
			Seq:      seq,
			TakenAt:  time.Now(),
			Engine:   &core.State{},
			Ledger:   monk.Snapshot(),
			Registry: ledger.NewMonkeyRegistry().Snapshot(),
		}))
	}

	state, err := sm.LoadLatest()
	assert.Nil(t, err)
	assert.NotNil(t, state)
	check.Equal(t, uint64(3), state.Seq)

	monk := ledger.NewMonkLedger()
	monk.Restore(state.Ledger)
	check.True(t, monk.BalanceOf("player1").Equal(dec(3)))
}

func TestSnapshotManager_IgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	sm := NewSnapshotManager(dir)
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "world_bad.cbor"), []byte("hi"), 0o644))

	state, err := sm.LoadLatest()
	assert.Nil(t, err)
	check.Nil(t, state)
}

// A restarted daemon pointed at the same snapshot directory resumes with
// the full world intact: listings, escrow, fees, and collaborator state.
func TestServer_ResumesFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	var resp bazaarapi.Response
	roundTrip(t, s, bazaarapi.ApproveMarketRequest{
		Type: bazaarapi.TypeApproveMarket, Approved: true, Caller: "player1",
	}, &resp)
	assert.True(t, resp.Success)
	roundTrip(t, s, bazaarapi.ListRequest{
		Type: bazaarapi.TypeList, TokenID: 1,
		BuyNowPrice: dec(10_000), StartingBid: dec(1_000), Caller: "player1",
	}, &resp)
	assert.True(t, resp.Success)
	roundTrip(t, s, bazaarapi.ApproveFundsRequest{
		Type: bazaarapi.TypeApproveFunds, Amount: dec(50_000), Caller: "player2",
	}, &resp)
	assert.True(t, resp.Success)
	roundTrip(t, s, bazaarapi.PlaceBidRequest{
		Type: bazaarapi.TypePlaceBid, TokenID: 1, Amount: dec(2_000), Caller: "player2",
	}, &resp)
	assert.True(t, resp.Success)

	// Fresh daemon, empty collaborators, same snapshot directory.
	restarted := &Server{
		account:   core.Account("bazaar"),
		admin:     core.Account("admin"),
		ledger:    ledger.NewMonkLedger(),
		registry:  ledger.NewMonkeyRegistry(),
		snapshots: NewSnapshotManager(dir),
	}
	restarted.engine = core.New(restarted.ledger, restarted.registry, restarted.account, restarted.admin, nil, logSink{})
	assert.Nil(t, restarted.restoreOrSeed(""))

	var details bazaarapi.ListingResponse
	roundTrip(t, restarted, bazaarapi.GetListingRequest{
		Type: bazaarapi.TypeGetListing, TokenID: 1,
	}, &details)
	assert.True(t, details.Success)
	check.Equal(t, core.Account("player1"), details.Listing.Seller)
	check.True(t, details.Listing.HighestBid.Equal(dec(2_000)))
	check.Equal(t, core.Account("player2"), details.Listing.HighestBidder)

	// Escrow survived the restart: player2's bid is still held.
	check.True(t, restarted.ledger.BalanceOf("player2").Equal(dec(98_000)))
	check.True(t, restarted.ledger.BalanceOf("bazaar").Equal(dec(2_000)))

	// The lower bound also survived, so the ladder stays strict.
	roundTrip(t, restarted, bazaarapi.ApproveFundsRequest{
		Type: bazaarapi.TypeApproveFunds, Amount: dec(50_000), Caller: "player3",
	}, &resp)
	assert.True(t, resp.Success)
	roundTrip(t, restarted, bazaarapi.PlaceBidRequest{
		Type: bazaarapi.TypePlaceBid, TokenID: 1, Amount: dec(2_000), Caller: "player3",
	}, &resp)
	check.False(t, resp.Success)
	check.Equal(t, "Bid not higher than current bid", resp.Message)
}

func TestApplySeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	raw := map[string]any{
		"balances": map[string]string{"player1": "5000", "player2": "7500"},
		"assets":   map[string]string{"42": "player1"},
	}
	data, err := json.Marshal(raw)
	assert.Nil(t, err)
	assert.Nil(t, os.WriteFile(path, data, 0o644))

	s := &Server{
		account:  core.Account("bazaar"),
		admin:    core.Account("admin"),
		ledger:   ledger.NewMonkLedger(),
		registry: ledger.NewMonkeyRegistry(),
	}
	s.engine = core.New(s.ledger, s.registry, s.account, s.admin, nil, logSink{})

	assert.Nil(t, s.applySeedFile(path))
	check.True(t, s.ledger.BalanceOf("player1").Equal(dec(5_000)))
	check.True(t, s.ledger.BalanceOf("player2").Equal(dec(7_500)))

	owner, ok := s.registry.OwnerOf(42)
	assert.True(t, ok)
	check.Equal(t, core.Account("player1"), owner)
}

func TestApplySeedFile_BadTokenID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	assert.Nil(t, os.WriteFile(path, []byte(`{"assets":{"banana":"player1"}}`), 0o644))

	s := &Server{
		account:  core.Account("bazaar"),
		admin:    core.Account("admin"),
		ledger:   ledger.NewMonkLedger(),
		registry: ledger.NewMonkeyRegistry(),
	}
	s.engine = core.New(s.ledger, s.registry, s.account, s.admin, nil, logSink{})

	check.Error(t, s.applySeedFile(path))
}
