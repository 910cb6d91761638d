package events

import (
	"context"
	"encoding/json"

	"github.com/grocerly/authserver/types"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Publisher fans audit events out to a broker channel. The database row
// written by the store is the system of record; the broker stream exists
// for downstream consumers (analytics, alerting).
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the given backend and channel.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// PublishAudit sends an audit event as JSON, tagging the event kind as a
// message attribute so consumers can filter without decoding.
func (p *Publisher) PublishAudit(ctx context.Context, event types.AuditEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, p.channel, data, map[string]string{"kind": event.Kind})
}

// Subscribe consumes audit events from the channel.
func (p *Publisher) Subscribe(ctx context.Context, handler Handler) error {
	return p.backend.Subscribe(ctx, p.channel, handler)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
