package ffmpegproc

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// MediaInfo is the probed metadata of a media file.
type MediaInfo struct {
	Path       string
	DurationMs int64
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
	SampleRate int
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe and parses its JSON output.
func (r *Runner) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, r.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Code:       exitErr.ExitCode(),
				StderrTail: tailOf(strings.TrimSpace(string(exitErr.Stderr)), stderrTailBytes),
			}
		}
		return nil, errors.Join(ErrSpawnFailed, err)
	}

	var probe probeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, err
	}

	info := &MediaInfo{Path: path}
	if sec, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.DurationMs = timeutil.SecondsToMs(sec)
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.FPS = parseFrameRate(stream.RFrameRate)
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = sr
			}
		}
	}
	return info, nil
}

// parseFrameRate converts ffprobe's "30000/1001" rational notation.
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
