package kafka

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// SchemaVersion is bumped when a payload changes incompatibly.
const SchemaVersion = 1

// Event is an audit record of something an admin did through the backoffice.
// Key picks the partition, so events about one review or sale stay ordered.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Key           string          `json:"key"`
	Entity        string          `json:"entity"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Source        string          `json:"source"`
	Actor         string          `json:"actor,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Option customises an Event built by NewEvent.
type Option func(*Event)

// WithSource names the publishing service.
func WithSource(source string) Option {
	return func(e *Event) { e.Source = source }
}

// WithActor records who caused the event.
func WithActor(actor string) Option {
	return func(e *Event) { e.Actor = actor }
}

// WithCorrelationID ties the event to the request that produced it.
func WithCorrelationID(id string) Option {
	return func(e *Event) { e.CorrelationID = id }
}

// OccurredAt overrides the event time, which defaults to now.
func OccurredAt(t time.Time) Option {
	return func(e *Event) { e.OccurredAt = t.UTC() }
}

// NewEvent encodes payload and stamps the event with a fresh id.
func NewEvent(eventType, key, entity string, payload any, opts ...Option) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Key:           key,
		Entity:        entity,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Payload:       raw,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decode unmarshals the payload into target.
func (e *Event) Decode(target any) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// headers lists the routing headers consumers can filter on without
// decoding the body.
func (e *Event) headers() []kafka.Header {
	h := []kafka.Header{
		{Key: "event_type", Value: []byte(e.Type)},
		{Key: "entity", Value: []byte(e.Entity)},
	}
	if e.Source != "" {
		h = append(h, kafka.Header{Key: "source", Value: []byte(e.Source)})
	}
	if e.CorrelationID != "" {
		h = append(h, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}
	return h
}
