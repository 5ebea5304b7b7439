package optimize

import (
	"errors"
	"fmt"
)

// ErrRoutingTimeout signals that a routing search was interrupted by its
// deadline. Orchestrator.Route converts it into a nil schedule; it is exported
// so Router implementations can return it.
var ErrRoutingTimeout = errors.New("routing deadline exceeded")

// PlacementFailure reports that the placement search failed or returned an
// assignment that cannot be used. It is not retried.
type PlacementFailure struct {
	Cause error
}

func (e *PlacementFailure) Error() string {
	return fmt.Sprintf("placement failed: %v", e.Cause)
}

func (e *PlacementFailure) Unwrap() error {
	return e.Cause
}
