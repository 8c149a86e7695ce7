package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBoard is returned by queries issued before any board was loaded.
	ErrNoBoard = errors.New("no board loaded")
	// ErrPadNotFound means a terminal does not resolve to a pad on the board.
	ErrPadNotFound = errors.New("pad not found")
	// ErrDifferentNets means both terminals exist but sit on different nets.
	ErrDifferentNets = errors.New("pads are on different nets")
	// ErrNoPathFound means no graph strategy connects the two terminals.
	ErrNoPathFound = errors.New("no path found")
	// ErrNoTrackSegments means a path exists but contains no tracks to
	// compute impedance over.
	ErrNoTrackSegments = errors.New("path has no track segments")
)

// LoadError describes malformed board input. Section and Index locate the
// offending record ("components[3].pads[1]", etc.).
type LoadError struct {
	Section string
	Index   int
	Field   string
	Err     error
}

func (e *LoadError) Error() string {
	loc := e.Section
	if e.Index >= 0 {
		loc = fmt.Sprintf("%s[%d]", e.Section, e.Index)
	}
	if e.Field != "" {
		loc += "." + e.Field
	}
	if loc == "" {
		return fmt.Sprintf("load board: %v", e.Err)
	}
	return fmt.Sprintf("load board: %s: %v", loc, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// errMissingField marks a required field absent from the input.
var errMissingField = errors.New("missing required field")

func missing(section string, index int, field string) *LoadError {
	return &LoadError{Section: section, Index: index, Field: field, Err: errMissingField}
}
