package model

import (
	"errors"
	"fmt"
)

// Model invariant violations. Mutators return these so the command layer can
// reject an edit atomically.
var (
	// ErrOverlap means an insert or move would collide with a neighboring
	// segment.
	ErrOverlap = errors.New("segment overlaps an existing segment")

	// ErrOutOfRange means a position or range falls outside the valid window.
	ErrOutOfRange = errors.New("position out of range")
)

// NotFoundError reports an index that does not resolve to an element.
type NotFoundError struct {
	Kind  string
	Index int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.Index)
}
