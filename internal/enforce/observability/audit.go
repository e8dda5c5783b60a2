// Package observability provides audit emission helpers for the enforce
// module. Every decision produces both a structured log line and a pipeline
// record; a failed pipeline write is itself only logged (spec'd best-effort
// channel, no retry here - redelivery is the dispatcher's job).
package observability

import (
	"context"
	"log/slog"

	"orgguard/internal/enforce/models"
	"orgguard/internal/enforce/ports"
	"orgguard/pkg/platform/audit"
	"orgguard/pkg/requestcontext"
)

// Reporter joins the structured logger and the audit publisher.
type Reporter struct {
	logger    *slog.Logger
	publisher ports.AuditPublisher
}

func NewReporter(logger *slog.Logger, publisher ports.AuditPublisher) *Reporter {
	return &Reporter{logger: logger, publisher: publisher}
}

var statusActions = map[models.OutcomeStatus]string{
	models.StatusAttached:       audit.ActionPolicyAttached,
	models.StatusSkippedMissing: audit.ActionPolicySkippedMissing,
	models.StatusFailed:         audit.ActionPolicyAttachFailed,
}

// Outcome records one per-policy decision.
func (r *Reporter) Outcome(ctx context.Context, invocationID, sourceEventID string, outcome models.AttachmentOutcome) {
	action := statusActions[outcome.Status]
	requestID := requestcontext.RequestID(ctx)

	if r.logger != nil {
		r.logger.InfoContext(ctx, action,
			"log_type", "audit",
			"invocation_id", invocationID,
			"source_event_id", sourceEventID,
			"account_id", outcome.AccountID,
			"policy_id", outcome.PolicyID,
			"status", string(outcome.Status),
			"detail", outcome.Detail,
			"request_id", requestID,
		)
	}

	r.emit(ctx, audit.Event{
		InvocationID:  invocationID,
		SourceEventID: sourceEventID,
		AccountID:     outcome.AccountID,
		PolicyID:      outcome.PolicyID,
		Action:        action,
		Detail:        outcome.Detail,
		RequestID:     requestID,
	})
}

// InvocationFailure records the single invocation-level failure emitted when
// the account cannot be resolved. No per-policy records accompany it.
func (r *Reporter) InvocationFailure(ctx context.Context, invocationID, sourceEventID, detail string) {
	requestID := requestcontext.RequestID(ctx)

	if r.logger != nil {
		r.logger.WarnContext(ctx, audit.ActionInvocationFailed,
			"log_type", "audit",
			"invocation_id", invocationID,
			"source_event_id", sourceEventID,
			"detail", detail,
			"request_id", requestID,
		)
	}

	r.emit(ctx, audit.Event{
		InvocationID:  invocationID,
		SourceEventID: sourceEventID,
		Action:        audit.ActionInvocationFailed,
		Detail:        detail,
		RequestID:     requestID,
	})
}

func (r *Reporter) emit(ctx context.Context, event audit.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Emit(ctx, event); err != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "audit write failed",
			"error", err,
			"action", event.Action,
			"invocation_id", event.InvocationID,
		)
	}
}
