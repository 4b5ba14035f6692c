// Package subtitle handles interchange formats: SRT read/write, basic SMI
// import, and ASS override tags for styled export.
package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// WriteSRT serializes a track as standard SRT blocks.
func WriteSRT(track *model.SubtitleTrack, path string) error {
	return os.WriteFile(path, []byte(FormatSRT(track)), 0o644)
}

// FormatSRT renders the track's SRT text.
func FormatSRT(track *model.SubtitleTrack) string {
	var sb strings.Builder
	for i, seg := range track.Segments {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			timeutil.MsToSRTTime(seg.StartMs),
			timeutil.MsToSRTTime(seg.EndMs)))
		sb.WriteString(seg.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

var srtTimelineRE = regexp.MustCompile(
	`(\d{1,2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{1,2}:\d{2}:\d{2}[,.]\d{3})`,
)

// ParseSRT reads an SRT file into a track. Out-of-order cues are sorted in;
// cues that would overlap an earlier cue are dropped with a warning entry in
// the returned list rather than failing the whole import.
func ParseSRT(path string) (*model.SubtitleTrack, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open SRT file: %w", err)
	}
	defer file.Close()

	track := model.NewSubtitleTrack(trackNameFromPath(path))
	var warnings []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		inCue     bool
		startMs   int64
		endMs     int64
		textLines []string
		lineNum   int
	)

	flush := func() {
		if !inCue || len(textLines) == 0 {
			inCue = false
			textLines = nil
			return
		}
		seg := model.SubtitleSegment{
			StartMs: startMs,
			EndMs:   endMs,
			Text:    strings.Join(textLines, "\n"),
		}
		if _, err := track.AddSegment(seg); err != nil {
			warnings = append(warnings,
				fmt.Sprintf("dropped cue at %s: %v", timeutil.MsToSRTTime(startMs), err))
		}
		inCue = false
		textLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if m := srtTimelineRE.FindStringSubmatch(line); m != nil {
			flush()
			s, err1 := timeutil.SRTTimeToMs(m[1])
			e, err2 := timeutil.SRTTimeToMs(m[2])
			if err1 != nil || err2 != nil || e <= s {
				warnings = append(warnings, fmt.Sprintf("bad timestamp at line %d", lineNum))
				continue
			}
			inCue = true
			startMs, endMs = s, e
			continue
		}

		if !inCue {
			// Cue counters are ignored; everything else outside a cue is noise.
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				continue
			}
			continue
		}
		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read SRT file: %w", err)
	}
	return track, warnings, nil
}

func trackNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return "Imported"
	}
	return base
}
