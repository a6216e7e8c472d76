// internal/adapter/events/nats.go

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"viralboard/internal/logging"
)

// Event types
const (
	TypeTrendsRefreshed      = "trends.refreshed"
	TypePredictionsRefreshed = "predictions.refreshed"
)

// Event is a dashboard data refresh notification
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Keywords  []string  `json:"keywords,omitempty"`
	Timeframe string    `json:"timeframe,omitempty"`
	Snapshot  string    `json:"snapshot,omitempty"`
	Rows      int       `json:"rows"`
	Time      time.Time `json:"time"`
}

// Publisher sends refresh events over NATS. A Publisher without a
// connection drops events silently.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewPublisher creates a new publisher; conn may be nil
func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		log:     logging.With("events"),
	}
}

// Enabled reports whether events reach a broker
func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

// Subject returns the subject events are published on
func (p *Publisher) Subject() string {
	return p.subject
}

// Publish stamps evt with an id and time and sends it
func (p *Publisher) Publish(evt Event) error {
	if !p.Enabled() {
		return nil
	}

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.log.Debug().Str("id", evt.ID).Str("type", evt.Type).Msg("published event")
	return nil
}

// Subscribe delivers raw event payloads to handler until the returned
// subscription is drained.
func (p *Publisher) Subscribe(handler func(data []byte)) (*nats.Subscription, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("event broker is not configured")
	}
	sub, err := p.conn.Subscribe(p.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", p.subject, err)
	}
	return sub, nil
}
