// Package resolver extracts the target account identifier from an inbound
// membership event. It has no side effects; a missing identifier is terminal
// for the invocation.
package resolver

import (
	"strings"

	"orgguard/internal/enforce/models"
)

// AccountID returns the actor account identifier from the event.
// Returns models.ErrMissingAccountID when the nested field is absent or empty.
func AccountID(event models.MembershipEvent) (string, error) {
	if event.Detail.UserIdentity == nil {
		return "", models.ErrMissingAccountID
	}
	accountID := strings.TrimSpace(event.Detail.UserIdentity.AccountID)
	if accountID == "" {
		return "", models.ErrMissingAccountID
	}
	return accountID, nil
}
