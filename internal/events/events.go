package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const Topic = "medease.events"

const (
	InventoryItemCreated = "InventoryItemCreated"
	InventoryItemUpdated = "InventoryItemUpdated"
	InventoryItemDeleted = "InventoryItemDeleted"
	AppointmentScheduled = "AppointmentScheduled"
	OrderCreated         = "OrderCreated"
	CustomerAdded        = "CustomerAdded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload as version 1 of eventType. key is the id of the
// entity the event is about.
func NewEnvelope(producer, eventType, key string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: key,
		Payload:       raw,
	}, nil
}

// Publisher emits domain events. Publish must not block on the broker and
// never fails the caller's request.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}
