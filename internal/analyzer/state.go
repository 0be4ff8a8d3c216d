package analyzer

import (
	"fmt"
)

// State is a step of the per-image analysis.
//
//	Start → DetermineFormat → (SingleRegion | TiledGrid) → Aggregate → Completed
//
// Any step may end in Failed instead.
type State int

const (
	StateStart State = iota
	StateDetermineFormat
	StateSingleRegion
	StateTiledGrid
	StateAggregate
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateStart:           "start",
	StateDetermineFormat: "determine_format",
	StateSingleRegion:    "single_region",
	StateTiledGrid:       "tiled_grid",
	StateAggregate:       "aggregate",
	StateCompleted:       "completed",
	StateFailed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Error reports the step at which an image's analysis failed.
type Error struct {
	Path  string
	State State // step that failed
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analyze %s: %s: %v", e.Path, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
