// Package notify renders budget alerts and defines the outbound delivery
// port. Concrete senders live in subpackages.
package notify

import (
	"context"
	"log/slog"
)

// Sink is the outbound port for alert delivery.
type Sink interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// NoopSink logs what would have been sent and reports success, so sweeps
// keep accurate counts when no mail provider is configured.
type NoopSink struct{}

var _ Sink = NoopSink{}

func (NoopSink) Send(ctx context.Context, to, subject, _, _ string) error {
	slog.WarnContext(ctx, "No mail provider configured, alert not delivered",
		"to", to,
		"subject", subject)
	return nil
}
