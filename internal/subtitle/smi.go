package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/model"
)

var (
	smiSyncRE = regexp.MustCompile(`(?i)<SYNC\s+Start\s*=\s*"?(\d+)"?[^>]*>`)
	smiTagRE  = regexp.MustCompile(`(?is)<[^>]+>`)
	smiBrRE   = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// ParseSMI imports a SAMI file by reading its sync blocks. Each block's
// start is the previous block's end; blocks whose text reduces to "&nbsp;"
// close the preceding cue without opening a new one.
func ParseSMI(path string) (*model.SubtitleTrack, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open SMI file: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	track := model.NewSubtitleTrack(trackNameFromPath(path))
	var warnings []string

	locs := smiSyncRE.FindAllStringSubmatchIndex(text, -1)
	type block struct {
		startMs int64
		body    string
	}
	var blocks []block
	for i, loc := range locs {
		startMs, err := strconv.ParseInt(text[loc[2]:loc[3]], 10, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("bad sync start %q", text[loc[2]:loc[3]]))
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, block{startMs: startMs, body: text[loc[1]:end]})
	}

	for i, b := range blocks {
		content := smiBrRE.ReplaceAllString(b.body, "\n")
		content = smiTagRE.ReplaceAllString(content, "")
		content = strings.ReplaceAll(content, "&nbsp;", "")
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		endMs := b.startMs + 3000
		if i+1 < len(blocks) {
			endMs = blocks[i+1].startMs
		}
		if endMs <= b.startMs {
			warnings = append(warnings, fmt.Sprintf("zero-length sync block at %d", b.startMs))
			continue
		}
		seg := model.SubtitleSegment{StartMs: b.startMs, EndMs: endMs, Text: content}
		if _, err := track.AddSegment(seg); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped sync block at %d: %v", b.startMs, err))
		}
	}
	return track, warnings, nil
}
