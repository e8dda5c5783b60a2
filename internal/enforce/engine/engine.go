// Package engine implements the policy enforcement state machine: resolve the
// joining account once, then walk the configured enforcement list in order,
// consulting the live catalog and attaching each policy that exists. Per-policy
// failures are folded into outcomes so one bad policy never blocks the rest.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orgguard/internal/enforce/metrics"
	"orgguard/internal/enforce/models"
	"orgguard/internal/enforce/observability"
	"orgguard/internal/enforce/ports"
	"orgguard/internal/enforce/resolver"
	"orgguard/pkg/sentinel"
)

// Service runs one enforcement invocation per membership event. Invocations
// are independent and idempotent; nothing is cached across them, since the
// catalog may change between account joins.
type Service struct {
	policyIDs []string
	catalog   ports.CatalogClient
	attacher  ports.PolicyAttacher
	reporter  *observability.Reporter
	marker    ports.DeliveryMarker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	duplicateAttachAsSuccess bool
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDeliveryMarker enables duplicate-delivery observability. The marker
// never suppresses enforcement.
func WithDeliveryMarker(marker ports.DeliveryMarker) Option {
	return func(s *Service) {
		s.marker = marker
	}
}

// WithDuplicateAttachAsFailure keeps "already attached" classified as a
// failed outcome instead of the default success-equivalent classification.
func WithDuplicateAttachAsFailure() Option {
	return func(s *Service) {
		s.duplicateAttachAsSuccess = false
	}
}

// New builds the engine for a fixed, ordered enforcement list. The list is
// process-wide configuration; an empty list is valid and yields zero outcomes.
func New(policyIDs []string, catalog ports.CatalogClient, attacher ports.PolicyAttacher, reporter *observability.Reporter, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog client is required")
	}
	if attacher == nil {
		return nil, fmt.Errorf("policy attacher is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("audit reporter is required")
	}

	s := &Service{
		policyIDs:                append([]string(nil), policyIDs...),
		catalog:                  catalog,
		attacher:                 attacher,
		reporter:                 reporter,
		tracer:                   otel.Tracer("orgguard/enforce"),
		duplicateAttachAsSuccess: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enforce processes one membership event. It returns the ordered outcome set,
// or models.ErrMissingAccountID when the event carries no usable account
// identifier (in which case no policies were evaluated and a single
// invocation-level audit record was emitted).
func (s *Service) Enforce(ctx context.Context, event models.MembershipEvent) (models.Result, error) {
	invocationID := uuid.NewString()

	ctx, span := s.tracer.Start(ctx, "enforce.invocation", trace.WithAttributes(
		attribute.String("invocation.id", invocationID),
		attribute.String("event.id", event.ID),
	))
	defer span.End()

	s.markDelivery(ctx, event.ID)

	accountID, err := resolver.AccountID(event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementInvocationFailures()
		}
		s.reporter.InvocationFailure(ctx, invocationID, event.ID, err.Error())
		return models.Result{InvocationID: invocationID}, err
	}

	// Account identity is fixed for the rest of the invocation.
	result := models.Result{
		InvocationID: invocationID,
		AccountID:    accountID,
		Outcomes:     make([]models.AttachmentOutcome, 0, len(s.policyIDs)),
	}

	for _, policyID := range s.policyIDs {
		outcome := s.enforceOne(ctx, policyID, accountID)
		result.Outcomes = append(result.Outcomes, outcome)

		if s.metrics != nil {
			s.metrics.IncrementOutcome(string(outcome.Status))
		}
		s.reporter.Outcome(ctx, invocationID, event.ID, outcome)
	}

	return result, nil
}

// enforceOne runs the fetch → decide → attach steps for one identifier.
// Every error path converts to an outcome; nothing propagates.
func (s *Service) enforceOne(ctx context.Context, policyID, accountID string) models.AttachmentOutcome {
	ctx, span := s.tracer.Start(ctx, "enforce.policy", trace.WithAttributes(
		attribute.String("policy.id", policyID),
	))
	defer span.End()

	outcome := models.AttachmentOutcome{PolicyID: policyID, AccountID: accountID}

	// Fresh catalog snapshot per identifier; policies may have changed since
	// the previous step of this same invocation.
	entries, err := s.catalog.ListPolicies(ctx)
	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Detail = fmt.Sprintf("catalog unavailable: %v", err)
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "policy catalog lookup failed",
				"policy_id", policyID,
				"error", err,
			)
		}
		return outcome
	}

	if !containsPolicy(entries, policyID) {
		outcome.Status = models.StatusSkippedMissing
		outcome.Detail = "policy not present in catalog"
		if s.logger != nil {
			s.logger.WarnContext(ctx, "configured policy not in catalog, skipping",
				"policy_id", policyID,
			)
		}
		return outcome
	}

	err = s.attacher.AttachPolicy(ctx, policyID, accountID)
	switch {
	case err == nil:
		outcome.Status = models.StatusAttached
	case s.duplicateAttachAsSuccess && errors.Is(err, sentinel.ErrAlreadyAttached):
		outcome.Status = models.StatusAttached
		outcome.Detail = "already attached"
	default:
		outcome.Status = models.StatusFailed
		outcome.Detail = err.Error()
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "policy attachment failed",
				"policy_id", policyID,
				"account_id", accountID,
				"error", err,
			)
		}
	}
	return outcome
}

func (s *Service) markDelivery(ctx context.Context, eventID string) {
	if s.marker == nil || eventID == "" {
		return
	}
	first, err := s.marker.MarkSeen(ctx, eventID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "delivery marker unavailable", "error", err)
		}
		return
	}
	if !first {
		if s.metrics != nil {
			s.metrics.IncrementDuplicateDeliveries()
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "duplicate event delivery observed", "event_id", eventID)
		}
	}
}

func containsPolicy(entries []models.CatalogEntry, policyID string) bool {
	for _, e := range entries {
		if e.ID == policyID {
			return true
		}
	}
	return false
}
