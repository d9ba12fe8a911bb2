package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

// EventStore defines the persistence operations required by the event bus.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error)
}

// Notifier reacts to emitted events (receipt jobs, logs, metrics).
type Notifier interface {
	Notify(ctx context.Context, event dbgen.DomainEvent) error
}

// Bus persists domain events and fans them out to downstream handlers.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
}

// Record writes an event through store without dispatching it. Commits call it
// with their transaction so the event row shares the commit's fate; Dispatch
// runs once the transaction is durable.
func Record(ctx context.Context, store EventStore, topic, aggregateID string, payload any) (dbgen.DomainEvent, error) {
	if store == nil {
		return dbgen.DomainEvent{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return dbgen.DomainEvent{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(aggregateID) == "" {
		return dbgen.DomainEvent{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev, err := store.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
	})
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: persist event: %w", err)
	}
	return ev, nil
}

// Dispatch hands a persisted event to every notifier. Notifier failures are
// joined and returned; they never undo the event.
func (b *Bus) Dispatch(ctx context.Context, ev dbgen.DomainEvent) error {
	if b == nil {
		return nil
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return joined
}

// Emit records the event in the bus store and dispatches it.
func (b *Bus) Emit(ctx context.Context, topic, aggregateID string, payload any) (dbgen.DomainEvent, error) {
	if b == nil || b.Store == nil {
		return dbgen.DomainEvent{}, errors.New("events: store not configured")
	}
	ev, err := Record(ctx, b.Store, topic, aggregateID, payload)
	if err != nil {
		return dbgen.DomainEvent{}, err
	}
	return ev, b.Dispatch(ctx, ev)
}

// encodePayload stores raw JSON as given and marshals everything else.
// Empty payloads become an empty object so the column never holds null.
func encodePayload(payload any) ([]byte, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		return json.Marshal(v)
	}
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid json")
	}
	return append([]byte(nil), raw...), nil
}
