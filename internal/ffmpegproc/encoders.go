package ffmpegproc

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// EncoderChoice is a selected encoder plus the flags that tune it.
type EncoderChoice struct {
	Name  string
	Flags []string
}

var (
	encodersOnce sync.Once
	encoderSet   map[string]bool
)

// availableEncoders enumerates the encoders the local ffmpeg build offers.
// Cached for the process lifetime: the binary does not change mid-session.
func (r *Runner) availableEncoders(ctx context.Context) map[string]bool {
	encodersOnce.Do(func() {
		encoderSet = map[string]bool{}
		cmd := exec.CommandContext(ctx, r.ffmpeg, "-hide_banner", "-encoders")
		out, err := cmd.Output()
		if err != nil {
			return
		}
		for _, line := range strings.Split(string(out), "\n") {
			fields := strings.Fields(line)
			// Encoder rows look like " V....D libx264   ...".
			if len(fields) >= 2 && len(fields[0]) == 6 {
				encoderSet[fields[1]] = true
			}
		}
	})
	return encoderSet
}

// HasEncoder reports whether the local build provides name.
func (r *Runner) HasEncoder(ctx context.Context, name string) bool {
	return r.availableEncoders(ctx)[name]
}

// PickEncoder selects the best encoder for a codec family ("h264" or
// "hevc"), preferring the platform's hardware encoder and falling back to
// libx264/libx265. Returns EncoderUnavailableError when nothing usable
// exists.
func (r *Runner) PickEncoder(ctx context.Context, codec string) (EncoderChoice, error) {
	available := r.availableEncoders(ctx)

	type candidate struct {
		name  string
		flags []string
	}
	var candidates []candidate

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates, candidate{codec + "_videotoolbox", []string{"-q:v", "65", "-realtime", "0"}})
	case "windows":
		candidates = append(candidates,
			candidate{codec + "_nvenc", []string{"-preset", "p4", "-cq", "23"}},
			candidate{codec + "_qsv", []string{"-global_quality", "23"}},
			candidate{codec + "_amf", []string{"-quality", "balanced"}},
		)
	default:
		candidates = append(candidates,
			candidate{codec + "_nvenc", []string{"-preset", "medium", "-cq", "23"}},
			candidate{codec + "_vaapi", []string{"-qp", "23"}},
		)
	}

	switch codec {
	case "hevc":
		candidates = append(candidates, candidate{"libx265", []string{"-preset", "medium", "-crf", "23"}})
	default:
		candidates = append(candidates, candidate{"libx264", []string{"-preset", "medium", "-crf", "23"}})
	}

	for _, c := range candidates {
		if available[c.name] {
			return EncoderChoice{Name: c.name, Flags: c.flags}, nil
		}
	}
	return EncoderChoice{}, &EncoderUnavailableError{Encoder: codec}
}
