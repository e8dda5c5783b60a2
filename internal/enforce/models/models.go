package models

import "errors"

// Trigger constants for the bridged CloudTrail event. Routing is the
// dispatcher's job, but the ingest handler defends against misrouted events.
const (
	SourceOrganizations  = "aws.organizations"
	EventAcceptHandshake = "AcceptHandshake"
)

// MembershipEvent is the bridged lifecycle event marking an account's
// acceptance into the organization. Only the fields the enforcement flow
// reads are modeled; the rest of the payload is opaque and immutable.
type MembershipEvent struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	DetailType string      `json:"detail-type"`
	Detail     EventDetail `json:"detail"`
}

// EventDetail carries the CloudTrail management-event fields.
type EventDetail struct {
	EventName    string        `json:"eventName"`
	UserIdentity *UserIdentity `json:"userIdentity,omitempty"`
}

// UserIdentity identifies the actor account that accepted the handshake.
type UserIdentity struct {
	AccountID string `json:"accountId"`
}

// IsAcceptHandshake reports whether the event is the trigger this service
// enforces on.
func (e MembershipEvent) IsAcceptHandshake() bool {
	return e.Source == SourceOrganizations && e.Detail.EventName == EventAcceptHandshake
}

// ErrMissingAccountID is the invocation-level failure: the event carries no
// usable account identifier, so no policies are evaluated.
var ErrMissingAccountID = errors.New("membership event has no account id")

// OutcomeStatus classifies the decision for one (event, policy) pair.
type OutcomeStatus string

const (
	StatusAttached       OutcomeStatus = "attached"
	StatusSkippedMissing OutcomeStatus = "skipped_missing"
	StatusFailed         OutcomeStatus = "failed"
)

// AttachmentOutcome records the decision for one (event, policy) pair.
// Immutable once emitted; the PolicyID is always drawn from the configured
// enforcement list for the invocation.
type AttachmentOutcome struct {
	PolicyID  string        `json:"policy_id"`
	AccountID string        `json:"account_id"`
	Status    OutcomeStatus `json:"status"`
	Detail    string        `json:"detail,omitempty"`
}

// Result is the complete outcome set for one invocation, ordered by the
// configured enforcement list.
type Result struct {
	InvocationID string              `json:"invocation_id"`
	AccountID    string              `json:"account_id"`
	Outcomes     []AttachmentOutcome `json:"outcomes"`
}

// CatalogEntry is a point-in-time snapshot of one policy in the live catalog.
// Fetched fresh per lookup; never cached across invocations.
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
