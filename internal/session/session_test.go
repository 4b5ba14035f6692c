package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fastmoviemaker/fmm/internal/autosave"
	"github.com/fastmoviemaker/fmm/internal/command"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/projectio"
)

func TestApplyUndoRedoThroughSession(t *testing.T) {
	s := New(nil)
	cmd := &command.AddSegment{
		TrackIndex: 0,
		Segment:    model.SubtitleSegment{StartMs: 0, EndMs: 1000, Text: "hi"},
	}
	if err := s.Apply(cmd); err != nil {
		t.Fatal(err)
	}
	if s.Project().ActiveTrack().Len() != 1 {
		t.Fatal("apply did not reach the project")
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Project().ActiveTrack().Len() != 0 {
		t.Fatal("undo did not revert")
	}
	if _, err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if s.Project().ActiveTrack().Len() != 1 {
		t.Fatal("redo did not reapply")
	}
}

func TestSaveLoadCycle(t *testing.T) {
	s := New(nil)
	if err := s.Apply(&command.AddSegment{
		TrackIndex: 0,
		Segment:    model.SubtitleSegment{StartMs: 0, EndMs: 1000, Text: "persisted"},
	}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "p"+projectio.Extension)
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	if s.FilePath() != path {
		t.Error("file path not recorded")
	}

	s2 := New(nil)
	warnings, err := s2.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if s2.Project().ActiveTrack().Segments[0].Text != "persisted" {
		t.Error("load lost data")
	}
	// Undo history does not survive a load.
	if s2.Stack().CanUndo() {
		t.Error("loaded session must start with empty history")
	}
}

func TestEditsFeedAutosave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	saver := autosave.NewManager(dir, 30*time.Second, 5*time.Second)
	s := New(saver)

	if err := s.Apply(&command.AddSegment{
		TrackIndex: 0,
		Segment:    model.SubtitleSegment{StartMs: 0, EndMs: 1000, Text: "x"},
	}); err != nil {
		t.Fatal(err)
	}

	// The edit was registered: a tick after the idle window snapshots.
	path, err := saver.Tick(time.Now().Add(10 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Error("autosave never saw the edit")
	}
}
