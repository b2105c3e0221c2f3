package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, artifact backends and
// lockers return these (optionally wrapped) so services can translate them
// into domain errors:
// - ErrNotFound: record or artifact does not exist
// - ErrConflict: concurrent holder or state clash (e.g. lock already held)
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
