package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"

	"github.com/monkeybrothers/bazaar/core"
	"github.com/monkeybrothers/bazaar/ledger"
)

// worldState is a point-in-time capture of everything the daemon owns:
// the engine's listing table and fees plus the in-process collaborators.
// Written after every committed mutation so a restart resumes exactly
// where the market stopped.
type worldState struct {
	Seq      uint64              `cbor:"seq"`
	TakenAt  time.Time           `cbor:"taken_at"`
	Engine   *core.State         `cbor:"engine"`
	Ledger   *ledger.MonkState   `cbor:"ledger"`
	Registry *ledger.MonkeyState `cbor:"registry"`
}

// SnapshotManager persists world snapshots as CBOR files in a directory,
// latest-by-sequence wins on load.
type SnapshotManager struct {
	dir string
}

func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// Save writes a snapshot to disk.
func (sm *SnapshotManager) Save(state *worldState) error {
	if err := os.MkdirAll(sm.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	data, err := cbor.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(sm.dir, fmt.Sprintf("world_%d.cbor", state.Seq))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadLatest loads the highest-sequence snapshot from disk.
// Returns nil when no snapshot exists.
func (sm *SnapshotManager) LoadLatest() (*worldState, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var latestPath string
	var latestSeq uint64
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".cbor" || len(name) < len("world_.cbor") {
			continue
		}
		seq, err := strconv.ParseUint(name[len("world_"):len(name)-len(".cbor")], 10, 64)
		if err != nil {
			continue
		}
		if !found || seq > latestSeq {
			latestSeq = seq
			latestPath = filepath.Join(sm.dir, name)
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var state worldState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// persist captures the world after a committed mutation. Persistence
// failures are logged, never surfaced: the operation itself has already
// committed. Callers must hold s.mu.
func (s *Server) persist() {
	if s.snapshots == nil {
		return
	}
	s.seq++
	state := &worldState{
		Seq:      s.seq,
		TakenAt:  time.Now(),
		Engine:   s.engine.Snapshot(),
		Ledger:   s.ledger.Snapshot(),
		Registry: s.registry.Snapshot(),
	}
	if err := s.snapshots.Save(state); err != nil {
		log.Printf("ERROR: Failed to persist world snapshot seq=%d: %v", state.Seq, err)
	}
}

// restoreWorld loads a captured world into the daemon's collaborators and
// engine.
func (s *Server) restoreWorld(state *worldState) error {
	s.ledger.Restore(state.Ledger)
	s.registry.Restore(state.Registry)
	if err := s.engine.Restore(state.Engine); err != nil {
		return err
	}
	s.seq = state.Seq
	return nil
}

// seedFile stages a fresh world when no snapshot exists: player balances
// and asset ownership, standing in for the issuance and gacha systems
// that live outside this service.
type seedFile struct {
	Balances map[string]decimal.Decimal `json:"balances"`
	Assets   map[string]string          `json:"assets"` // token id -> owner
}

func (s *Server) applySeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for account, balance := range seed.Balances {
		if err := s.ledger.Mint(core.Account(account), balance); err != nil {
			return fmt.Errorf("failed to seed balance for %s: %w", account, err)
		}
	}
	for rawID, owner := range seed.Assets {
		tokenID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token id %q in seed file: %w", rawID, err)
		}
		if err := s.registry.Mint(tokenID, core.Account(owner)); err != nil {
			return fmt.Errorf("failed to seed token %d: %w", tokenID, err)
		}
	}
	return nil
}
