package audit

import "context"

// Store is the append-only persistence sink for audit records.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Sink publishes audit records to the external audit pipeline.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
