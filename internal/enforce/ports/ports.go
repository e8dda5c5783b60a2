// Package ports defines shared interfaces for the enforce module.
// Interfaces are placed here when consumed by multiple packages to avoid
// duplication.
package ports

import (
	"context"

	"orgguard/internal/enforce/models"
	audit "orgguard/pkg/platform/audit"
)

// CatalogClient queries the live set of defined service control policies.
type CatalogClient interface {
	// ListPolicies returns every currently defined SCP. Implementations must
	// drain pagination fully; a partial page is a correctness bug. Transport
	// or auth failure surfaces as an error wrapping sentinel.ErrUnavailable,
	// never as an empty list.
	ListPolicies(ctx context.Context) ([]models.CatalogEntry, error)
}

// PolicyAttacher attaches a policy to a target account. The backend is
// responsible for attachment-call atomicity; an attach of an already-attached
// policy surfaces as an error wrapping sentinel.ErrAlreadyAttached.
type PolicyAttacher interface {
	AttachPolicy(ctx context.Context, policyID, accountID string) error
}

// AuditPublisher accepts audit records for the external pipeline.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// DeliveryMarker records event IDs for duplicate-delivery observability.
// First sight returns true. Markers never gate enforcement; duplicate
// deliveries are made safe by attach idempotency, not by suppression.
type DeliveryMarker interface {
	MarkSeen(ctx context.Context, eventID string) (first bool, err error)
}
