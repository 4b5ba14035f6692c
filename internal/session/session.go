// Package session ties the project, the undo stack, and autosave into the
// single-writer surface the host drives. Commands are the only mutation
// channel, and save/load never interleaves with one: the session holds a
// busy flag for the duration of persistence operations.
package session

import (
	"errors"
	"time"

	"github.com/fastmoviemaker/fmm/internal/autosave"
	"github.com/fastmoviemaker/fmm/internal/command"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/projectio"
)

// ErrBusy means a save or load is in flight and the operation was refused
// rather than interleaved.
var ErrBusy = errors.New("project is busy")

// Session owns one open project. All methods must be called from the main
// thread; workers hand their results to that thread, which applies them
// here.
type Session struct {
	project  *model.ProjectState
	stack    *command.Stack
	autosave *autosave.Manager

	filePath string
	busy     bool
	now      func() time.Time
}

// New creates a session with an empty project. The autosave manager may be
// nil (tests, one-shot CLI runs).
func New(saver *autosave.Manager) *Session {
	s := &Session{
		project:  model.NewProject(),
		stack:    command.NewStack(0),
		autosave: saver,
		now:      time.Now,
	}
	if saver != nil {
		saver.SetProject(s.project)
	}
	return s
}

// Project returns the open project for read access. Mutate through Apply.
func (s *Session) Project() *model.ProjectState { return s.project }

// Stack exposes the undo history (for the history UI).
func (s *Session) Stack() *command.Stack { return s.stack }

// FilePath returns the project's save path, "" when unsaved.
func (s *Session) FilePath() string { return s.filePath }

// Apply runs a command through the undo stack and marks the project dirty.
func (s *Session) Apply(cmd command.Command) error {
	if s.busy {
		return ErrBusy
	}
	if err := s.stack.Apply(s.project, cmd); err != nil {
		return err
	}
	s.noteEdit()
	return nil
}

// Undo reverts the most recent command.
func (s *Session) Undo() (command.Command, error) {
	if s.busy {
		return nil, ErrBusy
	}
	cmd, err := s.stack.Undo(s.project)
	if err == nil {
		s.noteEdit()
	}
	return cmd, err
}

// Redo re-applies the most recently undone command.
func (s *Session) Redo() (command.Command, error) {
	if s.busy {
		return nil, ErrBusy
	}
	cmd, err := s.stack.Redo(s.project)
	if err == nil {
		s.noteEdit()
	}
	return cmd, err
}

func (s *Session) noteEdit() {
	if s.autosave != nil {
		s.autosave.NotifyEdit(s.now())
	}
}

// Save persists the project to path (or the current path when "").
func (s *Session) Save(path string) error {
	if s.busy {
		return ErrBusy
	}
	if path == "" {
		path = s.filePath
	}
	if path == "" {
		return errors.New("no save path")
	}
	s.busy = true
	defer func() { s.busy = false }()

	if err := projectio.Save(s.project, path); err != nil {
		return err
	}
	s.filePath = path
	if s.autosave != nil {
		s.autosave.SetActiveFile(path)
	}
	return nil
}

// Load replaces the open project with the one at path. The undo history is
// reset; missing-media warnings are returned for the host to surface.
func (s *Session) Load(path string) ([]projectio.MissingFileWarning, error) {
	if s.busy {
		return nil, ErrBusy
	}
	s.busy = true
	defer func() { s.busy = false }()

	p, warnings, err := projectio.Load(path)
	if err != nil {
		return nil, err
	}
	s.project = p
	s.stack = command.NewStack(0)
	s.filePath = path
	if s.autosave != nil {
		s.autosave.SetProject(p)
		s.autosave.SetActiveFile(path)
	}
	return warnings, nil
}

// NewProject discards the open project for a fresh one.
func (s *Session) NewProject() error {
	if s.busy {
		return ErrBusy
	}
	s.project = model.NewProject()
	s.stack = command.NewStack(0)
	s.filePath = ""
	if s.autosave != nil {
		s.autosave.SetProject(s.project)
	}
	return nil
}
