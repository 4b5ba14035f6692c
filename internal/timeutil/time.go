// Package timeutil holds the integer-millisecond time arithmetic shared by
// the model, timeline, and export layers. All positions are int64
// milliseconds; frames are converted through a float fps only at the edges.
package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// InvalidTimecodeError reports a timecode string that matched none of the
// accepted formats.
type InvalidTimecodeError struct {
	Input    string
	Expected string
}

func (e *InvalidTimecodeError) Error() string {
	return fmt.Sprintf("invalid timecode %q (expected %s)", e.Input, e.Expected)
}

const flexibleFormats = "MM:SS.mmm, HH:MM:SS.mmm, HH:MM:SS:FF, or F:<n>"

// MsToDisplay formats a position as "MM:SS.mmm". Negative input clamps to 0.
func MsToDisplay(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60_000
	rem := ms % 60_000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, rem/1000, rem%1000)
}

// MsToSRTTime formats a position as the SRT-exact "HH:MM:SS,mmm".
func MsToSRTTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	rem := ms % 3_600_000
	minutes := rem / 60_000
	rem = rem % 60_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, rem/1000, rem%1000)
}

var srtTimeRE = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})$`)

// SRTTimeToMs parses "HH:MM:SS,mmm" (a dot is tolerated for VTT-flavored
// input) into milliseconds.
func SRTTimeToMs(s string) (int64, error) {
	m := srtTimeRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &InvalidTimecodeError{Input: s, Expected: "HH:MM:SS,mmm"}
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	mi, _ := strconv.ParseInt(m[2], 10, 64)
	sec, _ := strconv.ParseInt(m[3], 10, 64)
	millis, _ := strconv.ParseInt(m[4], 10, 64)
	if mi >= 60 || sec >= 60 {
		return 0, &InvalidTimecodeError{Input: s, Expected: "HH:MM:SS,mmm"}
	}
	return h*3_600_000 + mi*60_000 + sec*1000 + millis, nil
}

// MsToFrame converts a position to the nearest frame number at fps.
func MsToFrame(ms int64, fps float64) int64 {
	if fps <= 0 {
		return 0
	}
	return int64(math.Round(float64(ms) * fps / 1000.0))
}

// FrameToMs converts a frame number back to milliseconds at fps.
func FrameToMs(frame int64, fps float64) int64 {
	if fps <= 0 {
		return 0
	}
	return int64(math.Round(float64(frame) * 1000.0 / fps))
}

// SnapToFrame rounds a position to the nearest frame boundary. Identity when
// fps is zero (no frame grid known).
func SnapToFrame(ms int64, fps float64) int64 {
	if fps <= 0 {
		return ms
	}
	return FrameToMs(MsToFrame(ms, fps), fps)
}

var (
	clockRE  = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{1,2})(?:\.(\d{1,3}))?$`)
	framesRE = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2}):(\d{1,3})$`)
	frameNRE = regexp.MustCompile(`^(?i:f|frame):(\d+)$`)
)

// ParseFlexibleTimecode accepts the timecode notations the jump-to-position
// inputs allow:
//
//	MM:SS.mmm
//	HH:MM:SS.mmm
//	HH:MM:SS:FF   (FF = frame within second, needs fps)
//	F:<n>         (direct frame number, needs fps)
func ParseFlexibleTimecode(text string, fps float64) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, &InvalidTimecodeError{Input: text, Expected: flexibleFormats}
	}

	if m := frameNRE.FindStringSubmatch(s); m != nil {
		if fps <= 0 {
			return 0, &InvalidTimecodeError{Input: text, Expected: "frame input requires a frame rate"}
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, &InvalidTimecodeError{Input: text, Expected: flexibleFormats}
		}
		return FrameToMs(n, fps), nil
	}

	// HH:MM:SS:FF must be checked before the clock form: both have colons,
	// but the frame form always carries three separators and no dot.
	if m := framesRE.FindStringSubmatch(s); m != nil {
		if fps <= 0 {
			return 0, &InvalidTimecodeError{Input: text, Expected: "frame input requires a frame rate"}
		}
		h, _ := strconv.ParseInt(m[1], 10, 64)
		mi, _ := strconv.ParseInt(m[2], 10, 64)
		sec, _ := strconv.ParseInt(m[3], 10, 64)
		ff, _ := strconv.ParseInt(m[4], 10, 64)
		if mi >= 60 || sec >= 60 {
			return 0, &InvalidTimecodeError{Input: text, Expected: flexibleFormats}
		}
		base := h*3_600_000 + mi*60_000 + sec*1000
		return base + FrameToMs(ff, fps), nil
	}

	if m := clockRE.FindStringSubmatch(s); m != nil {
		var h int64
		if m[1] != "" {
			h, _ = strconv.ParseInt(m[1], 10, 64)
		}
		mi, _ := strconv.ParseInt(m[2], 10, 64)
		sec, _ := strconv.ParseInt(m[3], 10, 64)
		var millis int64
		if m[4] != "" {
			frac := m[4]
			for len(frac) < 3 {
				frac += "0"
			}
			millis, _ = strconv.ParseInt(frac, 10, 64)
		}
		if mi >= 60 || sec >= 60 {
			return 0, &InvalidTimecodeError{Input: text, Expected: flexibleFormats}
		}
		return h*3_600_000 + mi*60_000 + sec*1000 + millis, nil
	}

	return 0, &InvalidTimecodeError{Input: text, Expected: flexibleFormats}
}

// SecondsToMs converts a float second count (ffprobe durations) to integer
// milliseconds.
func SecondsToMs(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// MsToSeconds renders a position as the fractional-second string ffmpeg
// filter arguments want.
func MsToSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
