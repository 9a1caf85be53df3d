// Package events publishes domain events after state changes commit.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
)

// Event types, also used as AMQP routing keys.
const (
	ExpenseCreated     = "expense.created"
	SettlementRecorded = "settlement.recorded"
	GroupMemberAdded   = "group.member_added"
)

// Event is the JSON envelope sent to subscribers.
type Event struct {
	Type       string          `json:"type"`
	GroupID    string          `json:"groupId"`
	EntityID   string          `json:"entityId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New builds an event, encoding data as its payload.
func New(eventType, groupID, entityID string, data any) (Event, error) {
	e := Event{
		Type:       eventType,
		GroupID:    groupID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		e.Data = raw
	}
	return e, nil
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

// Emit builds and publishes an event. Failures are logged and counted, never
// returned: the state change the event describes has already committed.
func Emit(ctx context.Context, p Publisher, eventType, groupID, entityID string, data any) {
	e, err := New(eventType, groupID, entityID, data)
	if err == nil {
		err = p.Publish(ctx, e)
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		slog.WarnContext(ctx, "Event publish failed",
			"type", eventType,
			"group_id", groupID,
			"entity_id", entityID,
			"error", err,
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}
