package ffmpegproc

import (
	"testing"
)

func TestParseProgressTime(t *testing.T) {
	tests := []struct {
		key, value string
		wantMs     int64
		handled    bool
	}{
		// out_time_ms carries microseconds, same as out_time_us.
		{"out_time_ms", "5000000", 5000, true},
		{"out_time_us", "5000000", 5000, true},
		{"out_time", "00:00:05.000000", 5000, true},
		{"out_time", "01:02:03.500000", 3_723_500, true},
		{"out_time_us", "garbage", 0, true},
		{"frame", "120", 0, false},
	}
	for _, tt := range tests {
		got, handled := parseProgressTime(tt.key, tt.value)
		if handled != tt.handled {
			t.Errorf("parseProgressTime(%q, %q) handled = %v, want %v", tt.key, tt.value, handled, tt.handled)
			continue
		}
		if handled && got != tt.wantMs {
			t.Errorf("parseProgressTime(%q, %q) = %d, want %d", tt.key, tt.value, got, tt.wantMs)
		}
	}
}

func TestFFmpegArgsPrefix(t *testing.T) {
	args := FFmpegArgs("-i", "in.mp4", "out.mp4")
	want := []string{"-hide_banner", "-loglevel", "error", "-nostats", "-progress", "pipe:1", "-i", "in.mp4", "out.mp4"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"0/0", 0},
		{"junk", 0},
	}
	for _, tt := range tests {
		if got := parseFrameRate(tt.in); got != tt.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTailOf(t *testing.T) {
	if got := tailOf("abcdef", 3); got != "def" {
		t.Errorf("tailOf = %q", got)
	}
	if got := tailOf("ab", 3); got != "ab" {
		t.Errorf("tailOf = %q", got)
	}
}
