// Package audit defines the outcome record emitted for every policy decision
// and the sinks it fans out to. Records are write-once; the long-term,
// retention-governed store lives downstream of the kafka topic.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action values for audit records. One record is written per (event, policy)
// pair, or a single invocation-level record when resolution fails.
const (
	ActionPolicyAttached       = "policy_attached"
	ActionPolicySkippedMissing = "policy_skipped_missing"
	ActionPolicyAttachFailed   = "policy_attach_failed"
	ActionInvocationFailed     = "invocation_failed"
)

// Event is one audit outcome record. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID            uuid.UUID
	Timestamp     time.Time
	InvocationID  string
	SourceEventID string
	AccountID     string
	PolicyID      string
	Action        string
	Detail        string
	RequestID     string
}
