package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/events"
)

// LogNotifier writes every dispatched event to the structured log. Low change
// alerts are logged at warn level.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements events.Notifier.
func (n LogNotifier) Notify(_ context.Context, ev dbgen.DomainEvent) error {
	entry := n.Logger.Info()
	if ev.Topic == events.TopicTillLowChange {
		entry = n.Logger.Warn()
	}
	if json.Valid(ev.Payload) {
		entry = entry.RawJSON("payload", ev.Payload)
	}
	entry.Str("topic", ev.Topic).Str("aggregate_id", ev.AggregateID).Msg("domain event")
	return nil
}

// LogMailer is the worker's default Mailer: it records outgoing
// receipts in the log instead of handing them to a mail relay.
type LogMailer struct {
	Logger zerolog.Logger
	From   string
}

// Send implements Mailer.
func (m LogMailer) Send(to, subject, html string) error {
	m.Logger.Info().
		Str("from", m.From).
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(html)).
		Msg("receipt email")
	return nil
}
