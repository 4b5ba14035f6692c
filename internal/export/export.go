package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/subtitle"
)

// ErrDiskFull reports an export that failed for lack of space.
var ErrDiskFull = errors.New("disk full")

// AudioPolicy selects how the output's audio is assembled.
type AudioPolicy string

const (
	// AudioMixed mixes original audio, track speech, and BGM at the job
	// gains.
	AudioMixed AudioPolicy = "mixed"
	// AudioOriginal keeps only the source audio.
	AudioOriginal AudioPolicy = "original"
	// AudioNone produces a silent video stream only.
	AudioNone AudioPolicy = "none"
)

// Job is one export request.
type Job struct {
	OutputPath string
	Container  string // "mp4", "mov", "webm"; derived from OutputPath when ""
	Codec      string // "h264" (default) or "hevc"
	Width      int
	Height     int

	Audio AudioPolicy

	// VideoGain scales the original audio and TTSGain the synthesized track
	// audio. Zero selects the default 1.0 for either; values above 1 and 2
	// respectively are capped there. A negative VideoGain mutes the original
	// audio; a negative TTSGain selects 1.0.
	VideoGain float64
	TTSGain   float64

	BurnSubtitles bool
}

func (j Job) wantsAudio() bool { return j.Audio != AudioNone }

func (j Job) videoGain() float64 {
	if j.VideoGain < 0 {
		return 0
	}
	if j.VideoGain == 0 {
		return 1
	}
	if j.VideoGain > 1 {
		return 1
	}
	return j.VideoGain
}

func (j Job) ttsGain() float64 {
	if j.TTSGain <= 0 {
		return 1
	}
	if j.TTSGain > 2 {
		return 2
	}
	return j.TTSGain
}

func (j Job) codec() string {
	if j.Codec == "" {
		return "h264"
	}
	return j.Codec
}

// Exporter drives FFmpeg renders of full projects.
type Exporter struct {
	runner *ffmpegproc.Runner
	logger *zap.SugaredLogger
}

// New builds an exporter over a process runner.
func New(runner *ffmpegproc.Runner, logger *zap.SugaredLogger) *Exporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exporter{runner: runner, logger: logger}
}

// Run renders the project to job.OutputPath. Output goes to a temporary
// sibling first and is renamed only on success; a cancelled or failed run
// deletes the partial file. onProgress receives (renderedMs, totalMs).
func (e *Exporter) Run(
	ctx context.Context,
	p *model.ProjectState,
	job Job,
	onProgress func(currentMs, totalMs int64),
) error {
	srtPath := ""
	if job.BurnSubtitles {
		track := p.ActiveTrack()
		if track != nil && track.Len() > 0 {
			tmpSRT, err := os.CreateTemp("", "fmm_export_*.srt")
			if err != nil {
				return err
			}
			srtPath = tmpSRT.Name()
			content := subtitle.FormatSRTStyled(track, p.DefaultStyle)
			if _, err := tmpSRT.WriteString(content); err != nil {
				tmpSRT.Close()
				os.Remove(srtPath)
				return err
			}
			tmpSRT.Close()
			defer os.Remove(srtPath)
		}
	}

	graph, err := BuildGraph(p, job, srtPath)
	if err != nil {
		return err
	}

	encoder, err := e.runner.PickEncoder(ctx, job.codec())
	if err != nil {
		return err
	}

	tmpOut := tempOutputPath(job.OutputPath)
	args := buildArgs(graph, job, encoder, tmpOut)

	e.logger.Infow("export started",
		"output", job.OutputPath,
		"encoder", encoder.Name,
		"duration_ms", graph.DurationMs,
	)

	var stderrTail strings.Builder
	runErr := e.runner.RunFFmpeg(ctx, ffmpegproc.FFmpegArgs(args...), ffmpegproc.RunOptions{
		TotalMs:    graph.DurationMs,
		OnProgress: onProgress,
		OnStderrLine: func(line string) {
			stderrTail.WriteString(line)
			stderrTail.WriteString("\n")
		},
	})
	if runErr != nil {
		_ = os.Remove(tmpOut)
		if errors.Is(runErr, ffmpegproc.ErrCancelled) {
			e.logger.Infow("export cancelled", "output", job.OutputPath)
			return runErr
		}
		if strings.Contains(stderrTail.String(), "No space left on device") {
			return fmt.Errorf("%w: %s", ErrDiskFull, job.OutputPath)
		}
		return runErr
	}

	if err := os.Rename(tmpOut, job.OutputPath); err != nil {
		_ = os.Remove(tmpOut)
		return fmt.Errorf("finalize output: %w", err)
	}
	e.logger.Infow("export finished", "output", job.OutputPath)
	return nil
}

// tempOutputPath keeps the container extension so ffmpeg still infers the
// muxer.
func tempOutputPath(outputPath string) string {
	dir, base := filepath.Split(outputPath)
	return filepath.Join(dir, "."+base+".part"+filepath.Ext(base))
}

// buildArgs assembles the full argv after the standard prefix.
func buildArgs(graph *Graph, job Job, encoder ffmpegproc.EncoderChoice, outPath string) []string {
	var args []string
	for _, in := range graph.Inputs {
		if in.IsImage {
			args = append(args, "-loop", "1")
		}
		args = append(args, "-i", in.Path)
	}
	args = append(args, "-filter_complex", graph.FilterComplex)
	args = append(args, "-map", "["+graph.VideoLabel+"]")
	if graph.AudioLabel != "" {
		args = append(args, "-map", "["+graph.AudioLabel+"]")
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-c:v", encoder.Name)
	args = append(args, encoder.Flags...)
	if graph.AudioLabel != "" {
		if strings.EqualFold(job.Container, "webm") || strings.HasSuffix(strings.ToLower(job.OutputPath), ".webm") {
			args = append(args, "-c:a", "libvorbis", "-b:a", "128k")
		} else {
			args = append(args, "-c:a", "aac", "-b:a", "192k")
		}
	}

	// The graph bounds the render; -shortest stops looped image inputs.
	args = append(args, "-shortest", "-y", outPath)
	return args
}
