package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Publisher accepts audit records from domain logic and hands them to the
// background worker over a bounded inbox. Emit never blocks the enforcement
// path: when the inbox is full the record is dropped and counted, which is
// acceptable for this channel (no retry guarantee by design - the dispatcher
// redelivers the triggering event if stronger guarantees are needed).
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for drop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher with the given inbox capacity.
func NewPublisher(buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	p := &Publisher{inbox: make(chan Event, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues a record, assigning ID and timestamp defaults.
// Returns an error only when the inbox is full; callers log and move on.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		dropped := p.dropped.Add(1)
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, record dropped",
				"action", event.Action,
				"policy_id", event.PolicyID,
				"dropped_total", dropped,
			)
		}
		return fmt.Errorf("audit inbox full")
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Dropped reports how many records were discarded due to a full inbox.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}
