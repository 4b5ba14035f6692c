package model

import (
	"errors"
	"testing"
)

func clip(in, out int64, src string) VideoClip {
	return VideoClip{SourceInMs: in, SourceOutMs: out, SourcePath: src}
}

func trackWith(t *testing.T, clips ...VideoClip) *VideoClipTrack {
	t.Helper()
	tr := &VideoClipTrack{}
	for i, c := range clips {
		if err := tr.AddClip(i, c); err != nil {
			t.Fatalf("AddClip(%d): %v", i, err)
		}
	}
	return tr
}

// Multi-source timeline mapping across repeated sources.
func TestMultiSourceTimelineMapping(t *testing.T) {
	tr := trackWith(t,
		clip(0, 10_000, "A.mp4"),
		clip(0, 5_000, "B.mp4"),
		clip(10_000, 20_000, "A.mp4"),
	)

	if got := tr.OutputDurationMs(); got != 25_000 {
		t.Fatalf("total = %d, want 25000", got)
	}

	tests := []struct {
		tl        int64
		wantIdx   int
		wantLocal int64
	}{
		{0, 0, 0},
		{10_000, 1, 0},
		{14_999, 1, 4_999},
		{15_000, 2, 0},
		{24_999, 2, 9_999},
	}
	for _, tt := range tests {
		idx, _, local, err := tr.ClipAtTimeline(tt.tl)
		if err != nil {
			t.Errorf("ClipAtTimeline(%d): %v", tt.tl, err)
			continue
		}
		if idx != tt.wantIdx || local != tt.wantLocal {
			t.Errorf("ClipAtTimeline(%d) = (%d, %d), want (%d, %d)",
				tt.tl, idx, local, tt.wantIdx, tt.wantLocal)
		}
	}

	if _, _, _, err := tr.ClipAtTimeline(25_000); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("position past the end must be out of range, got %v", err)
	}

	// Source 10500 of A.mp4 exists only in clip 2; with the hint the mapping
	// must land there, not in the first A window.
	got, err := tr.SourceToTimeline("A.mp4", 10_500, 2)
	if err != nil {
		t.Fatalf("SourceToTimeline: %v", err)
	}
	if got != 15_500 {
		t.Errorf("SourceToTimeline = %d, want 15500", got)
	}
}

func TestSourceToTimelineHints(t *testing.T) {
	// The same source window appears twice.
	tr := trackWith(t,
		clip(0, 10_000, "A.mp4"),
		clip(0, 10_000, "A.mp4"),
	)

	// Without a hint the first match wins.
	got, err := tr.SourceToTimeline("A.mp4", 5_000, HintNone)
	if err != nil || got != 5_000 {
		t.Fatalf("HintNone = (%d, %v), want (5000, nil)", got, err)
	}

	// An explicit hint disambiguates.
	got, err = tr.SourceToTimeline("A.mp4", 5_000, 1)
	if err != nil || got != 15_000 {
		t.Fatalf("hint 1 = (%d, %v), want (15000, nil)", got, err)
	}

	// A hint naming a clip that doesn't contain the position fails.
	tr2 := trackWith(t, clip(0, 1_000, "A.mp4"), clip(5_000, 6_000, "A.mp4"))
	if _, err := tr2.SourceToTimeline("A.mp4", 5_500, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("wrong-hint lookup: got %v", err)
	}
}

func TestSourceToTimelineHintPrimary(t *testing.T) {
	tr := trackWith(t,
		clip(0, 3_000, "B.mp4"),
		clip(0, 3_000, ""), // primary video
	)
	got, err := tr.SourceToTimeline("", 1_000, HintPrimary)
	if err != nil || got != 4_000 {
		t.Fatalf("HintPrimary = (%d, %v), want (4000, nil)", got, err)
	}
}

// Reverse-mapping consistency: mapping a source position with a hint and
// looking the result back up returns the hinted clip.
func TestReverseMappingConsistency(t *testing.T) {
	tr := trackWith(t,
		clip(0, 10_000, "A.mp4"),
		clip(2_000, 8_000, "A.mp4"),
		clip(0, 4_000, "B.mp4"),
	)
	for i, c := range tr.Clips {
		for _, ms := range []int64{c.SourceInMs, (c.SourceInMs + c.SourceOutMs) / 2, c.SourceOutMs - 1} {
			tl, err := tr.SourceToTimeline(c.SourcePath, ms, i)
			if err != nil {
				t.Fatalf("SourceToTimeline(clip %d, %d): %v", i, ms, err)
			}
			idx, _, _, err := tr.ClipAtTimeline(tl)
			if err != nil {
				t.Fatalf("ClipAtTimeline(%d): %v", tl, err)
			}
			if idx != i {
				t.Errorf("clip %d source %d -> timeline %d -> clip %d", i, ms, tl, idx)
			}
		}
	}
}

func TestOffsetsMonotoneAfterMutations(t *testing.T) {
	tr := trackWith(t,
		clip(0, 5_000, ""),
		clip(5_000, 9_000, ""),
		clip(9_000, 14_000, ""),
	)

	check := func() {
		t.Helper()
		offsets := tr.Offsets()
		var sum int64
		for i := 0; i+1 < len(offsets); i++ {
			if offsets[i] > offsets[i+1] {
				t.Fatalf("offsets not monotone: %v", offsets)
			}
			sum += tr.clipOutputDuration(i)
		}
		if offsets[len(offsets)-1] != sum {
			t.Fatalf("offsets tail %d != sum %d", offsets[len(offsets)-1], sum)
		}
	}

	check()
	if _, err := tr.SplitClipAtTimeline(2_500); err != nil {
		t.Fatalf("split: %v", err)
	}
	check()
	if err := tr.TrimClipEdge(1, TrimRight, -500); err != nil {
		t.Fatalf("trim: %v", err)
	}
	check()
	if _, err := tr.RemoveClip(2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	check()
	if err := tr.SetTransition(0, &Transition{Kind: "fade", DurationMs: 1000}); err != nil {
		t.Fatalf("transition: %v", err)
	}
	check()
}

func TestTransitionShortensOutput(t *testing.T) {
	tr := trackWith(t,
		clip(0, 5_000, ""),
		clip(5_000, 10_000, ""),
	)
	if got := tr.OutputDurationMs(); got != 10_000 {
		t.Fatalf("pre-transition total = %d", got)
	}
	if err := tr.SetTransition(0, &Transition{Kind: "fade", DurationMs: 1_000}); err != nil {
		t.Fatalf("SetTransition: %v", err)
	}
	// The 1 s overlap collapses the boundary.
	if got := tr.OutputDurationMs(); got != 9_000 {
		t.Errorf("post-transition total = %d, want 9000", got)
	}
}

func TestSplitClipSliverRejected(t *testing.T) {
	tr := trackWith(t, clip(0, 1_000, ""))
	if _, err := tr.SplitClipAtTimeline(50); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("split near edge must be rejected, got %v", err)
	}
	if _, err := tr.SplitClipAtTimeline(950); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("split near edge must be rejected, got %v", err)
	}
}

func TestRemoveLastClipRejected(t *testing.T) {
	tr := trackWith(t, clip(0, 1_000, ""))
	if _, err := tr.RemoveClip(0); err == nil {
		t.Error("removing the only clip must fail")
	}
}

func TestImageOverlayClamp(t *testing.T) {
	tr := ImageOverlayTrack{}
	if _, err := tr.Add(ImageOverlay{StartMs: 1_000, EndMs: 30_000, ImagePath: "a.png"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Add(ImageOverlay{StartMs: 40_000, EndMs: 50_000, ImagePath: "b.png"}); err != nil {
		t.Fatal(err)
	}

	adjusted := tr.ClampTo(20_000)
	if adjusted != 2 {
		t.Errorf("adjusted = %d, want 2", adjusted)
	}
	if len(tr.Overlays) != 2 {
		t.Fatal("clamping must never drop overlays")
	}
	for _, ov := range tr.Overlays {
		if ov.StartMs < 0 || ov.EndMs > 20_000 || ov.EndMs <= ov.StartMs {
			t.Errorf("overlay out of bounds after clamp: %+v", ov)
		}
	}
}
