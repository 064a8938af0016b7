package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"lexcora-checkout-api/models"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// Publisher sends checkout lifecycle events to NATS. A publisher built
// without a URL is disabled and drops events.
type Publisher struct {
	conn    conn
	prefix  string
	enabled bool
}

func NewPublisher(natsURL, subjectPrefix string) (*Publisher, error) {
	if natsURL == "" {
		log.Println("NATS_URL not set, checkout event publishing disabled")
		return &Publisher{prefix: subjectPrefix}, nil
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("lexcora-checkout-api"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server at %s", nc.ConnectedUrl())
	return newPublisher(nc, subjectPrefix), nil
}

func newPublisher(c conn, subjectPrefix string) *Publisher {
	return &Publisher{conn: c, prefix: subjectPrefix, enabled: true}
}

// Subject is where events of type t are published.
func (p *Publisher) Subject(t models.EventType) string {
	prefix := strings.TrimSuffix(p.prefix, ".")
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

func (p *Publisher) Publish(event models.CheckoutEvent) error {
	if !p.enabled {
		return nil
	}
	if p.conn == nil {
		return fmt.Errorf("NATS connection is not initialized")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	subject := p.Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message to NATS: %w", err)
	}

	log.Printf("Published %s event for checkout %s", subject, event.CheckoutID)
	return nil
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled || p.conn == nil {
		return false
	}
	return p.conn.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.conn != nil {
		p.conn.Close()
		log.Println("NATS connection closed")
	}
}
