package model

import (
	"errors"
	"testing"
)

func seg(start, end int64, text string) SubtitleSegment {
	return SubtitleSegment{StartMs: start, EndMs: end, Text: text}
}

func mustAdd(t *testing.T, tr *SubtitleTrack, s SubtitleSegment) {
	t.Helper()
	if _, err := tr.AddSegment(s); err != nil {
		t.Fatalf("AddSegment(%v): %v", s, err)
	}
}

func checkDisjoint(t *testing.T, tr *SubtitleTrack) {
	t.Helper()
	for i := 0; i+1 < len(tr.Segments); i++ {
		if tr.Segments[i].EndMs > tr.Segments[i+1].StartMs {
			t.Fatalf("segments %d and %d overlap: %v %v",
				i, i+1, tr.Segments[i], tr.Segments[i+1])
		}
	}
}

func TestAddSegmentSortedInsert(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(2000, 3000, "b"))
	mustAdd(t, tr, seg(0, 1000, "a"))
	mustAdd(t, tr, seg(4000, 5000, "c"))

	want := []string{"a", "b", "c"}
	for i, w := range want {
		if tr.Segments[i].Text != w {
			t.Errorf("segment %d = %q, want %q", i, tr.Segments[i].Text, w)
		}
	}
	checkDisjoint(t, tr)
}

func TestAddSegmentRejectsOverlap(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 1000, "hi"))

	_, err := tr.AddSegment(seg(500, 1500, "x"))
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "hi" {
		t.Fatal("track changed after rejected add")
	}

	// Touching boundaries are fine: the interval is half-open.
	if _, err := tr.AddSegment(seg(1000, 2000, "ok")); err != nil {
		t.Fatalf("adjacent add rejected: %v", err)
	}
}

func TestSegmentAt(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 1000, "a"))
	mustAdd(t, tr, seg(2000, 3000, "b"))

	tests := []struct {
		ms   int64
		want int
	}{
		{0, 0}, {999, 0}, {1000, -1}, {1999, -1}, {2000, 1}, {2999, 1}, {3000, -1},
	}
	for _, tt := range tests {
		if got := tr.SegmentAt(tt.ms); got != tt.want {
			t.Errorf("SegmentAt(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestMoveSegmentClampAndReject(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 1000, "a"))
	mustAdd(t, tr, seg(2000, 3000, "b"))

	// Clamp at zero.
	if err := tr.MoveSegment(0, -500, 10_000); err != nil {
		t.Fatalf("move: %v", err)
	}
	if tr.Segments[0].StartMs != 0 {
		t.Errorf("start = %d, want 0", tr.Segments[0].StartMs)
	}

	// A move into the neighbor is rejected whole.
	err := tr.MoveSegment(0, 1500, 10_000)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if tr.Segments[0].StartMs != 0 || tr.Segments[0].EndMs != 1000 {
		t.Error("segment changed after rejected move")
	}
	checkDisjoint(t, tr)
}

func TestSplitSegment(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	s := seg(0, 4000, "hello world")
	s.AudioFile = "tts.mp3"
	mustAdd(t, tr, s)

	if err := tr.SplitSegment(0, 2000); err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(tr.Segments))
	}
	a, b := tr.Segments[0], tr.Segments[1]
	if a.StartMs != 0 || a.EndMs != 2000 || b.StartMs != 2000 || b.EndMs != 4000 {
		t.Errorf("bad intervals: %v %v", a, b)
	}
	if a.Text != "hello world" || b.Text != "hello world" {
		t.Error("split must copy text to both halves")
	}
	if a.AudioFile != "tts.mp3" || b.AudioFile != "tts.mp3" {
		t.Error("both halves keep the audio reference")
	}
	if b.AudioOffsetMs != 2000 {
		t.Errorf("second half audio offset = %d, want 2000", b.AudioOffsetMs)
	}

	// Split point must fall strictly inside.
	if err := tr.SplitSegment(0, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMergeSegments(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 1000, "a"))
	mustAdd(t, tr, seg(1300, 2000, "b"))
	mustAdd(t, tr, seg(5000, 6000, "c"))

	if err := tr.MergeSegments(0); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(tr.Segments))
	}
	m := tr.Segments[0]
	if m.StartMs != 0 || m.EndMs != 2000 || m.Text != "a\nb" {
		t.Errorf("merged = %+v", m)
	}

	// The remaining pair is 3000 ms apart, beyond MergeGapMs.
	if err := tr.MergeSegments(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for wide gap, got %v", err)
	}
}

func TestBatchShiftAtomic(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 1000, "a"))
	mustAdd(t, tr, seg(2000, 3000, "b"))
	mustAdd(t, tr, seg(4000, 5000, "c"))

	if err := tr.BatchShift([]int{0, 1, 2}, 500, 10_000); err != nil {
		t.Fatalf("shift: %v", err)
	}
	if tr.Segments[0].StartMs != 500 || tr.Segments[2].EndMs != 5500 {
		t.Errorf("shift applied wrong: %+v", tr.Segments)
	}

	// Shifting only the first into the second must leave everything alone.
	err := tr.BatchShift([]int{0}, 1200, 10_000)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if tr.Segments[0].StartMs != 500 {
		t.Error("track changed after rejected batch shift")
	}
	checkDisjoint(t, tr)
}

func TestDisjointAfterCommandSequences(t *testing.T) {
	tr := NewSubtitleTrack("Default")
	mustAdd(t, tr, seg(0, 900, "a"))
	mustAdd(t, tr, seg(1000, 1900, "b"))
	mustAdd(t, tr, seg(2000, 2900, "c"))
	mustAdd(t, tr, seg(3000, 3900, "d"))

	_ = tr.SplitSegment(1, 1400)
	_ = tr.MergeSegments(3)
	_ = tr.MoveSegment(0, 50, 10_000)
	_ = tr.BatchShift([]int{2, 3}, -50, 10_000)
	_, _ = tr.RemoveSegment(1)

	checkDisjoint(t, tr)
	if err := tr.Validate(); err != nil {
		t.Fatalf("invariant broken: %v", err)
	}
}
