// Package worker drains the audit inbox into the configured sinks. A write
// failure on one record never stops processing of the rest; the failure
// itself is logged as a best-effort diagnostic.
package worker

import (
	"context"
	"log/slog"

	audit "orgguard/pkg/platform/audit"
)

// Worker consumes audit records from a channel and fans them out to the
// append-only store and the pipeline sink. Either target may be nil when not
// configured (development runs with only the in-memory store, for example).
type Worker struct {
	store  audit.Store
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled. Records already in flight are written
// best-effort; there is no drain-on-shutdown guarantee, matching the
// at-most-once contract of this channel.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.write(ctx, event)
		}
	}
}

func (w *Worker) write(ctx context.Context, event audit.Event) {
	if w.store != nil {
		if err := w.store.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit store append failed",
				"error", err,
				"action", event.Action,
				"invocation_id", event.InvocationID,
				"policy_id", event.PolicyID,
			)
		}
	}
	if w.sink != nil {
		if err := w.sink.Publish(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink publish failed",
				"error", err,
				"action", event.Action,
				"invocation_id", event.InvocationID,
				"policy_id", event.PolicyID,
			)
		}
	}
}
