package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so callers can translate them into responses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: event does not exist in the sink
// - ErrConflict: event was already delivered
// - ErrInvalidState: component used outside its lifecycle (e.g. closed consumer)
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
