package ffmpegproc

import (
	"strconv"
	"strings"
)

// parseProgressTime handles the position keys of ffmpeg's -progress
// key=value stream. Despite the name, out_time_ms carries microseconds —
// the same value as out_time_us — so both divide by 1000.
func parseProgressTime(key, value string) (int64, bool) {
	switch key {
	case "out_time_us", "out_time_ms":
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			return 0, true
		}
		return us / 1000, true
	case "out_time":
		ms, err := parseClockToMs(strings.TrimSpace(value))
		if err != nil {
			return 0, true
		}
		return ms, true
	}
	return 0, false
}

// parseClockToMs parses "HH:MM:SS.micro" as emitted by out_time.
func parseClockToMs(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, strconv.ErrSyntax
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, err
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return h*3_600_000 + m*60_000 + int64(sec*1000), nil
}
