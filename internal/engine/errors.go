package engine

import "errors"

// Typed failures surfaced to callers for user-facing messaging. Transient
// provider errors never appear here; they degrade to skip outcomes inside
// the engines.
var (
	ErrAlreadyTracked    = errors.New("symbol already tracked")
	ErrNotTracked        = errors.New("symbol not tracked")
	ErrSymbolNotFound    = errors.New("symbol not found")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrInvalidAlertSpec  = errors.New("invalid alert specification")
	ErrInvalidTransition = errors.New("invalid alert state transition")
)
