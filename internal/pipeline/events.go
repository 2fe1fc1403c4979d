package pipeline

import (
	"github.com/poorfish/maptoposter/internal/types"
)

// EventStage names a progress event. The values match the stage tags used by
// browser callers: 'major', 'complete' and 'error'.
type EventStage string

const (
	EventMajor    EventStage = "major"
	EventComplete EventStage = "complete"
	EventError    EventStage = "error"
)

// Event is a progress report from a fetch session. It is one of MajorStage,
// CompleteStage or DegradedStage. A successful session emits at most one
// MajorStage followed by exactly one terminal event (CompleteStage or
// DegradedStage); a failed session emits no terminal event.
type Event interface {
	Stage() EventStage
	Features() *types.FeatureCollection
	isEvent()
}

// MajorStage carries the coarse first-stage result.
type MajorStage struct {
	Data *types.FeatureCollection
}

// CompleteStage carries the merged final result.
type CompleteStage struct {
	Data   *types.FeatureCollection
	Cached bool
}

// DegradedStage reports that refinement failed; Data is the first-stage
// result unchanged.
type DegradedStage struct {
	Data *types.FeatureCollection
	Err  error
}

func (MajorStage) Stage() EventStage    { return EventMajor }
func (CompleteStage) Stage() EventStage { return EventComplete }
func (DegradedStage) Stage() EventStage { return EventError }

func (e MajorStage) Features() *types.FeatureCollection    { return e.Data }
func (e CompleteStage) Features() *types.FeatureCollection { return e.Data }
func (e DegradedStage) Features() *types.FeatureCollection { return e.Data }

func (MajorStage) isEvent()    {}
func (CompleteStage) isEvent() {}
func (DegradedStage) isEvent() {}

// Terminal reports whether e ends a session.
func Terminal(e Event) bool {
	return e.Stage() != EventMajor
}

// ProgressFunc receives progress events. It is called synchronously from the
// session goroutine, so a slow callback delays the refinement stage.
type ProgressFunc func(Event)
