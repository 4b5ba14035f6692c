package timeutil

import (
	"errors"
	"testing"
)

func TestMsToDisplay(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00.000"},
		{1500, "00:01.500"},
		{61_250, "01:01.250"},
		{600_000, "10:00.000"},
		{-50, "00:00.000"},
		{3_600_000, "60:00.000"},
	}
	for _, tt := range tests {
		if got := MsToDisplay(tt.ms); got != tt.want {
			t.Errorf("MsToDisplay(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestMsToSRTTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00,000"},
		{1500, "00:00:01,500"},
		{3_661_002, "01:01:01,002"},
		{-1, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := MsToSRTTime(tt.ms); got != tt.want {
			t.Errorf("MsToSRTTime(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestSRTTimeToMs(t *testing.T) {
	got, err := SRTTimeToMs("01:01:01,002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3_661_002 {
		t.Errorf("got %d, want 3661002", got)
	}

	if _, err := SRTTimeToMs("nope"); err == nil {
		t.Error("expected error for malformed time")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	rates := []float64{24, 25, 30, 60, 120}
	positions := []int64{0, 1, 999, 1000, 41_666, 3_825_500, 7_200_000}

	for _, fps := range rates {
		frameMs := int64(1000.0/fps) + 1
		for _, x := range positions {
			back := FrameToMs(MsToFrame(x, fps), fps)
			diff := back - x
			if diff < 0 {
				diff = -diff
			}
			if diff > frameMs {
				t.Errorf("round trip at fps=%v: %d -> %d (off by %d)", fps, x, back, diff)
			}
		}
	}
}

func TestSnapToFrame(t *testing.T) {
	// 1017 ms sits between frames 30 (1000 ms) and 31 (1033 ms); 31 is
	// closer.
	if got := SnapToFrame(1017, 30); got != 1033 {
		t.Errorf("SnapToFrame(1017, 30) = %d, want 1033", got)
	}
	if got := SnapToFrame(1010, 30); got != 1000 {
		t.Errorf("SnapToFrame(1010, 30) = %d, want 1000", got)
	}
	if got := SnapToFrame(1017, 0); got != 1017 {
		t.Errorf("fps=0 must be identity, got %d", got)
	}
}

func TestParseFlexibleTimecode(t *testing.T) {
	tests := []struct {
		input string
		fps   float64
		want  int64
	}{
		{"01:23.500", 30, 83_500},
		{"00:01:23.500", 30, 83_500},
		{"01:23:45:15", 30, 5_025_500},
		{"F:90", 30, 3000},
		{"frame:90", 30, 3000},
		{"00:10", 0, 10_000},
	}
	for _, tt := range tests {
		got, err := ParseFlexibleTimecode(tt.input, tt.fps)
		if err != nil {
			t.Errorf("ParseFlexibleTimecode(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFlexibleTimecode(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseFlexibleTimecodeErrors(t *testing.T) {
	for _, input := range []string{"", "bad", "1:2:3:4:5", "00:99", "F:abc"} {
		_, err := ParseFlexibleTimecode(input, 30)
		if err == nil {
			t.Errorf("ParseFlexibleTimecode(%q): expected error", input)
			continue
		}
		var tcErr *InvalidTimecodeError
		if !errors.As(err, &tcErr) {
			t.Errorf("ParseFlexibleTimecode(%q): error is not InvalidTimecodeError", input)
		}
	}

	// frame notation without a frame rate is not resolvable
	if _, err := ParseFlexibleTimecode("F:90", 0); err == nil {
		t.Error("expected error for frame input with fps=0")
	}
}
