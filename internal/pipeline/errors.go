package pipeline

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned when a newer session replaced this one before it
// finished.
var ErrSuperseded = errors.New("fetch session superseded by a newer request")

// StageRefinementError describes a failed refinement stage. It never fails a
// session; it is reported through DegradedStage and Result.Err.
type StageRefinementError struct {
	Aggressive bool
	Err        error
}

func (e *StageRefinementError) Error() string {
	mode := "full"
	if e.Aggressive {
		mode = "aggressive"
	}
	return fmt.Sprintf("refinement stage (%s) failed: %v", mode, e.Err)
}

func (e *StageRefinementError) Unwrap() error { return e.Err }
