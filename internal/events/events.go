// Package events publishes conversation lifecycle events to NATS so
// downstream consumers (analytics, archival) can react without polling the
// API. Publishing is best-effort: a nil or disconnected publisher is a no-op
// and never fails a turn.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	subjectTurn      = "concertsurvey.conversation.turn"
	subjectCompleted = "concertsurvey.conversation.completed"
)

// ConversationEvent is the payload published for turn and completion events.
type ConversationEvent struct {
	ConversationID string    `json:"conversationId"`
	ConcertID      string    `json:"concertId"`
	IsComplete     bool      `json:"isComplete"`
	ReferenceCount int       `json:"referenceCount,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher wraps a NATS connection for conversation events.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to the NATS server at the given URL.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	slog.Info("events.NewPublisher: connected", "url", url)
	return &Publisher{conn: conn}, nil
}

// PublishTurn emits a turn event. Safe to call on a nil publisher.
func (p *Publisher) PublishTurn(event ConversationEvent) {
	p.publish(subjectTurn, event)
}

// PublishCompleted emits a completion event. Safe to call on a nil publisher.
func (p *Publisher) PublishCompleted(event ConversationEvent) {
	p.publish(subjectCompleted, event)
}

func (p *Publisher) publish(subject string, event ConversationEvent) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Publisher.publish: failed to marshal event", "error", err, "subject", subject)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		slog.Warn("Publisher.publish: publish failed", "error", err, "subject", subject,
			"conversationID", event.ConversationID)
		return
	}
	slog.Debug("Publisher.publish: event published", "subject", subject,
		"conversationID", event.ConversationID)
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		slog.Warn("Publisher.Close: drain failed", "error", err)
		p.conn.Close()
	}
}
