package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Clients and stores return these
// (optionally wrapped) so the enforcement engine can classify outcomes without
// depending on transport details.
//
// These represent factual states about backend resources, not validation
// failures:
// - ErrNotFound: entity does not exist in the backend
// - ErrAlreadyAttached: policy is already attached to the target
// - ErrUnavailable: backend temporarily unreachable (transport/auth failure)
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyAttached = errors.New("already attached")
	ErrUnavailable     = errors.New("unavailable")
)
