package main

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/monkeybrothers/bazaar/core"
)

// logSink writes every market event to the process log. It is the default
// sink when no NATS URL is configured.
type logSink struct{}

func (logSink) Publish(event core.Event) {
	log.Printf("INFO: Event %s: %+v", event.Kind(), event)
}

// NatsPublisher forwards market events to NATS subjects so downstream
// services (notifications, market history, live UIs) can consume them.
// Subjects are "bazaar." plus the event kind: bazaar.listed,
// bazaar.bid_placed, bazaar.sold.
type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("bazaard"))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: conn}, nil
}

// Publish encodes the event as JSON and fires it at its subject. Publish
// failures are logged, never surfaced: the operation that produced the
// event has already committed.
func (p *NatsPublisher) Publish(event core.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: Failed to encode %s event: %v", event.Kind(), err)
		return
	}
	if err := p.conn.Publish("bazaar."+event.Kind(), data); err != nil {
		log.Printf("ERROR: Failed to publish %s event: %v", event.Kind(), err)
	}
}

// Close flushes pending events and drops the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Printf("ERROR: Failed to drain NATS connection: %v", err)
	}
}
