package timeline

import (
	"testing"

	"github.com/fastmoviemaker/fmm/internal/model"
)

func newTrack(t *testing.T, clips ...model.VideoClip) *model.VideoClipTrack {
	t.Helper()
	tr := &model.VideoClipTrack{}
	for i, c := range clips {
		if err := tr.AddClip(i, c); err != nil {
			t.Fatalf("AddClip: %v", err)
		}
	}
	return tr
}

func TestEngineWithoutClipTrack(t *testing.T) {
	e := NewEngine(nil, 60_000)
	if e.DurationMs() != 60_000 {
		t.Fatalf("duration = %d", e.DurationMs())
	}
	pos := e.Seek(5_000)
	if pos.SourceMs != 5_000 || pos.ClipIndex != -1 {
		t.Errorf("identity mapping broken: %+v", pos)
	}
	pos = e.Seek(99_999)
	if pos.TimelineMs != 60_000 {
		t.Errorf("seek past end must clamp, got %d", pos.TimelineMs)
	}
}

func TestEngineSeekAndAdvance(t *testing.T) {
	tr := newTrack(t,
		model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000, SourcePath: "A.mp4"},
		model.VideoClip{SourceInMs: 0, SourceOutMs: 5_000, SourcePath: "B.mp4"},
	)
	e := NewEngine(tr, 0)

	pos := e.Seek(9_000)
	if pos.ClipIndex != 0 || pos.SourceMs != 9_000 {
		t.Fatalf("seek: %+v", pos)
	}

	pos, crossed := e.Advance(1_500)
	if !crossed {
		t.Error("advance over the boundary must report a crossing")
	}
	if pos.ClipIndex != 1 || pos.SourcePath != "B.mp4" || pos.SourceMs != 500 {
		t.Errorf("post-crossing position: %+v", pos)
	}

	pos, crossed = e.Advance(1_000)
	if crossed {
		t.Error("advance within a clip must not report a crossing")
	}
	if pos.SourceMs != 1_500 {
		t.Errorf("advance: %+v", pos)
	}
}

// Two clips over the same source region: the cursor, not reverse mapping,
// decides which clip the player is in.
func TestEngineCursorDisambiguatesRepeatedSource(t *testing.T) {
	tr := newTrack(t,
		model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000, SourcePath: "A.mp4"},
		model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000, SourcePath: "A.mp4"},
	)
	e := NewEngine(tr, 0)

	e.Seek(15_000) // inside the second occurrence
	pos, crossed := e.SyncToSource(6_000)
	if crossed {
		t.Error("unexpected crossing")
	}
	if pos.ClipIndex != 1 || pos.TimelineMs != 16_000 {
		t.Errorf("cursor lost the second occurrence: %+v", pos)
	}
}

func TestEngineBoundaryEpsilon(t *testing.T) {
	tr := newTrack(t,
		model.VideoClip{SourceInMs: 0, SourceOutMs: 10_000, SourcePath: "A.mp4"},
		model.VideoClip{SourceInMs: 20_000, SourceOutMs: 25_000, SourcePath: "A.mp4"},
	)
	e := NewEngine(tr, 0)
	e.Seek(9_500)

	// The player drifted to within epsilon of the clip's out point: that is
	// a boundary crossing into clip 1.
	pos, crossed := e.SyncToSource(10_000 - BoundaryEpsilonMs + 5)
	if !crossed {
		t.Fatal("expected boundary crossing within epsilon")
	}
	if pos.ClipIndex != 1 || pos.SourceMs != 20_000 {
		t.Errorf("crossing landed wrong: %+v", pos)
	}
}

func TestEngineMonotoneDuringPlayback(t *testing.T) {
	tr := newTrack(t,
		model.VideoClip{SourceInMs: 0, SourceOutMs: 3_000},
		model.VideoClip{SourceInMs: 6_000, SourceOutMs: 9_000},
		model.VideoClip{SourceInMs: 1_000, SourceOutMs: 2_000},
	)
	e := NewEngine(tr, 0)
	e.Seek(0)

	prev := int64(-1)
	for i := 0; i < 80; i++ {
		pos, _ := e.Advance(100)
		if pos.TimelineMs < prev {
			t.Fatalf("timeline went backwards: %d -> %d", prev, pos.TimelineMs)
		}
		prev = pos.TimelineMs
	}
	if !e.AtEnd() {
		t.Error("expected playback to reach the end")
	}
}
