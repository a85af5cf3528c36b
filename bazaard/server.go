package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/monkeybrothers/bazaar/core"
	"github.com/monkeybrothers/bazaar/ledger"
)

// Server exposes the bazaar engine over a JSON-per-connection TCP protocol:
// one request per connection, dispatched on its "type" field, answered with
// one JSON response. Mutating operations are serialized behind a single
// mutex; the engine itself assumes single-writer execution.
type Server struct {
	port    int
	account core.Account
	admin   core.Account

	mu       sync.Mutex
	engine   *core.Bazaar
	ledger   *ledger.MonkLedger
	registry *ledger.MonkeyRegistry

	snapshots *SnapshotManager // nil disables persistence
	seq       uint64

	publisher *NatsPublisher // nil when no NATS URL is configured
}

// NewServerFromEnv builds a server from the environment: BAZAAR_PORT and
// BAZAAR_ADMIN are required; BAZAAR_ACCOUNT, BAZAAR_SNAPSHOT_DIR,
// BAZAAR_NATS_URL, and BAZAAR_SEED_FILE are optional.
func NewServerFromEnv() (*Server, error) {
	port, err := getRequiredEnvInt("BAZAAR_PORT")
	if err != nil {
		return nil, err
	}
	admin, err := getRequiredEnv("BAZAAR_ADMIN")
	if err != nil {
		return nil, err
	}
	account := getEnv("BAZAAR_ACCOUNT", "bazaar")

	s := &Server{
		port:     port,
		account:  core.Account(account),
		admin:    core.Account(admin),
		ledger:   ledger.NewMonkLedger(),
		registry: ledger.NewMonkeyRegistry(),
	}

	var sink core.EventSink = logSink{}
	if natsURL := getEnv("BAZAAR_NATS_URL", ""); natsURL != "" {
		publisher, err := NewNatsPublisher(natsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.publisher = publisher
		sink = publisher
		log.Printf("INFO: Publishing market events to NATS at %s", natsURL)
	}

	s.engine = core.New(s.ledger, s.registry, s.account, s.admin, nil, sink)

	if dir := getEnv("BAZAAR_SNAPSHOT_DIR", ""); dir != "" {
		s.snapshots = NewSnapshotManager(dir)
	}

	if err := s.restoreOrSeed(getEnv("BAZAAR_SEED_FILE", "")); err != nil {
		return nil, err
	}
	return s, nil
}

// restoreOrSeed loads the latest world snapshot when one exists; otherwise
// it stages the world from the optional seed file.
func (s *Server) restoreOrSeed(seedPath string) error {
	if s.snapshots != nil {
		state, err := s.snapshots.LoadLatest()
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if state != nil {
			if err := s.restoreWorld(state); err != nil {
				return fmt.Errorf("failed to restore snapshot: %w", err)
			}
			log.Printf("INFO: Restored world snapshot seq=%d taken at %s", state.Seq, state.TakenAt)
			return nil
		}
	}
	if seedPath != "" {
		if err := s.applySeedFile(seedPath); err != nil {
			return fmt.Errorf("failed to apply seed file: %w", err)
		}
		log.Printf("INFO: Seeded world from %s", seedPath)
	}
	return nil
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Bazaar server listening on port %d (account=%s admin=%s)", s.port, s.account, s.admin)

	maxWorkers, err := getRequiredEnvInt("BAZAAR_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil && err != io.EOF {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response := s.handleRequest(raw)

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// Close releases the daemon's external connections, draining any pending
// events.
func (s *Server) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func main() {
	server, err := NewServerFromEnv()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	err = server.Start()
	server.Close()
	log.Fatalf("ERROR: %v", err)
}
