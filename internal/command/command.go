// Package command wraps every user-visible mutation of the project in a
// reversible unit and keeps them on a bounded undo stack. Commands are the
// only mutation channel: workers and the UI hand edits here, and revert
// restores a state that serializes byte-identically to the pre-apply state.
package command

import (
	"errors"

	"github.com/fastmoviemaker/fmm/internal/model"
)

// DefaultDepth is the undo stack bound; pushing past it evicts the oldest
// entry.
const DefaultDepth = 100

var (
	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when no undone command remains.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is a reversible mutation. Apply either succeeds completely or
// leaves the project untouched; Revert restores the exact pre-apply state.
type Command interface {
	Apply(p *model.ProjectState) error
	Revert(p *model.ProjectState) error
	Description() string
}

// Stack is the bounded undo/redo history. Not safe for concurrent use: the
// project is single-writer and commands originate on the main thread.
type Stack struct {
	depth   int
	applied []Command
	undone  []Command

	// edits counts successful applies/undos/redos, for the autosave
	// dirty check.
	edits uint64
}

// NewStack returns a history bounded at depth (DefaultDepth when <= 0).
func NewStack(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Apply runs cmd against the project and records it. A failed apply changes
// neither the project nor the history; any redo tail is discarded on
// success.
func (s *Stack) Apply(p *model.ProjectState, cmd Command) error {
	if err := cmd.Apply(p); err != nil {
		return err
	}
	s.applied = append(s.applied, cmd)
	if len(s.applied) > s.depth {
		copy(s.applied, s.applied[1:])
		s.applied = s.applied[:s.depth]
	}
	s.undone = s.undone[:0]
	s.edits++
	return nil
}

// Undo reverts the most recent command.
func (s *Stack) Undo(p *model.ProjectState) (Command, error) {
	if len(s.applied) == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := s.applied[len(s.applied)-1]
	if err := cmd.Revert(p); err != nil {
		return nil, err
	}
	s.applied = s.applied[:len(s.applied)-1]
	s.undone = append(s.undone, cmd)
	s.edits++
	return cmd, nil
}

// Redo re-applies the most recently undone command.
func (s *Stack) Redo(p *model.ProjectState) (Command, error) {
	if len(s.undone) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := s.undone[len(s.undone)-1]
	if err := cmd.Apply(p); err != nil {
		return nil, err
	}
	s.undone = s.undone[:len(s.undone)-1]
	s.applied = append(s.applied, cmd)
	s.edits++
	return cmd, nil
}

// CanUndo reports whether history remains.
func (s *Stack) CanUndo() bool { return len(s.applied) > 0 }

// CanRedo reports whether an undone command remains.
func (s *Stack) CanRedo() bool { return len(s.undone) > 0 }

// Len returns the number of undoable commands.
func (s *Stack) Len() int { return len(s.applied) }

// EditCount is a monotonically increasing counter of successful mutations;
// autosave compares it against the value at its last snapshot.
func (s *Stack) EditCount() uint64 { return s.edits }

// Descriptions lists the undoable command descriptions, oldest first.
func (s *Stack) Descriptions() []string {
	out := make([]string, len(s.applied))
	for i, c := range s.applied {
		out[i] = c.Description()
	}
	return out
}
