package coordinator

import "errors"

// Sentinel errors returned by Run before any Worker is spawned: malformed
// configuration fails fast rather than surfacing mid-run.
var (
	// ErrNoWorkers is returned when Params.NumWorkers is not positive.
	ErrNoWorkers = errors.New("coordinator: num_workers must be >= 1")

	// ErrMissingContext is returned when Params.Ctx or Params.Arena is nil.
	ErrMissingContext = errors.New("coordinator: histogram context and arena are required")
)
