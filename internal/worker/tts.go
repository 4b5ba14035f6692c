package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/tts"
)

// DefaultSegmentSilenceMs separates consecutive TTS clips in the merged
// track audio.
const DefaultSegmentSilenceMs = 200

// TTSScriptSegment is one line of the script to synthesize.
type TTSScriptSegment struct {
	Text string
	// Voice overrides the job voice for this segment when set.
	Voice string
}

// TTSOptions configures a synthesis job.
type TTSOptions struct {
	Engine    tts.Kind
	APIKey    string
	BaseURL   string
	Voice     string
	Speed     float64
	SilenceMs int64

	// OutputDir receives the per-segment clips and the merged track audio;
	// "" uses a temp directory.
	OutputDir string

	// MixWith, when set, mixes the merged speech over this video's audio at
	// the given gains into MixedPath.
	MixWith   string
	VideoGain float64 // (0, 1]; any other value selects 1.0
	TTSGain   float64 // (0, 2]; any other value selects 1.0
}

// TTSResult is the finished payload: a subtitle track whose segment timing
// comes from the measured clip durations, plus the merged audio file.
type TTSResult struct {
	Track      *model.SubtitleTrack
	AudioPath  string
	MixedPath  string // "" unless MixWith was set
	DurationMs int64
}

// SegmentSynthesisError names the script segment an engine failed on.
type SegmentSynthesisError struct {
	Index int
	Text  string
	Err   error
}

func (e *SegmentSynthesisError) Error() string {
	text := e.Text
	if len(text) > 30 {
		text = text[:30] + "..."
	}
	return fmt.Sprintf("segment %d (%q): %v", e.Index, text, e.Err)
}

func (e *SegmentSynthesisError) Unwrap() error { return e.Err }

// StartTTS synthesizes a script: per segment, call the engine, write the
// bytes to a temp clip, and probe its real duration; then concatenate the
// clips with inter-segment silence and optionally mix with the video audio.
// Cancellation is observed between segments and between process runs.
func StartTTS(script []TTSScriptSegment, opts TTSOptions, logger *zap.SugaredLogger) *Handle {
	return start("tts", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		if len(script) == 0 {
			return nil, fmt.Errorf("empty script")
		}
		engine, err := tts.New(opts.Engine, opts.APIKey, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		speed := opts.Speed
		if speed <= 0 {
			speed = 1.0
		}
		silenceMs := opts.SilenceMs
		if silenceMs < 0 {
			silenceMs = 0
		} else if silenceMs == 0 {
			silenceMs = DefaultSegmentSilenceMs
		}

		outDir := opts.OutputDir
		if outDir == "" {
			dir, err := os.MkdirTemp("", "fmm_tts_")
			if err != nil {
				return nil, err
			}
			outDir = dir
		} else if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, err
		}

		// Per-segment synthesis. Steps: N segments + concat + optional mix.
		total := int64(len(script)) + 1
		if opts.MixWith != "" {
			total++
		}

		track := model.NewSubtitleTrack("TTS")
		var clipPaths []string
		cursor := int64(0)
		for i, seg := range script {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			voice := seg.Voice
			if voice == "" {
				voice = opts.Voice
			}
			audio, err := engine.Synthesize(ctx, seg.Text, voice, speed)
			if err != nil {
				return nil, &SegmentSynthesisError{Index: i, Text: seg.Text, Err: err}
			}

			clipPath := filepath.Join(outDir, fmt.Sprintf("fmm_tts_%s.mp3", uuid.NewString()))
			if err := os.WriteFile(clipPath, audio, 0o644); err != nil {
				return nil, err
			}
			durationMs, err := probeDurationMs(ctx, clipPath, logger)
			if err != nil || durationMs <= 0 {
				return nil, &SegmentSynthesisError{
					Index: i, Text: seg.Text,
					Err: fmt.Errorf("probe synthesized clip: %w", err),
				}
			}

			segment := model.SubtitleSegment{
				StartMs:   cursor,
				EndMs:     cursor + durationMs,
				Text:      seg.Text,
				AudioFile: clipPath,
				Voice:     voice,
			}
			if _, err := track.AddSegment(segment); err != nil {
				return nil, err
			}
			clipPaths = append(clipPaths, clipPath)
			cursor += durationMs + silenceMs

			emit(int64(i+1), total, seg.Text)
		}

		emit(int64(len(script))+1, total, "merging audio")
		mergedPath := filepath.Join(outDir, fmt.Sprintf("fmm_tts_%s.mp3", uuid.NewString()))
		if err := concatWithSilence(ctx, clipPaths, silenceMs, mergedPath); err != nil {
			return nil, err
		}
		track.AudioPath = mergedPath
		track.AudioStartMs = 0
		track.AudioDurationMs = cursor - silenceMs

		result := TTSResult{Track: track, AudioPath: mergedPath, DurationMs: track.AudioDurationMs}

		if opts.MixWith != "" {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			emit(total, total, "mixing with video audio")
			mixedPath := filepath.Join(outDir, fmt.Sprintf("fmm_mix_%s.m4a", uuid.NewString()))
			if err := mixWithVideo(ctx, opts.MixWith, mergedPath, mixedPath, opts.VideoGain, opts.TTSGain, logger); err != nil {
				return nil, err
			}
			result.MixedPath = mixedPath
		}
		return result, nil
	})
}

// concatWithSilence joins the clips with generated silence between them,
// re-encoding so engines with differing stream parameters still merge.
func concatWithSilence(ctx context.Context, clips []string, silenceMs int64, outPath string) error {
	ffmpegPath, err := ffmpegproc.FFmpegPath()
	if err != nil {
		return err
	}

	if len(clips) == 1 && silenceMs == 0 {
		return copyFile(clips[0], outPath)
	}

	var streams []*ffmpeg.Stream
	for i, clip := range clips {
		streams = append(streams, ffmpeg.Input(clip))
		if silenceMs > 0 && i < len(clips)-1 {
			streams = append(streams, ffmpeg.Input(
				fmt.Sprintf("anullsrc=r=24000:cl=mono:d=%.3f", float64(silenceMs)/1000.0),
				ffmpeg.KwArgs{"f": "lavfi"},
			))
		}
	}

	err = ffmpeg.Concat(streams, ffmpeg.KwArgs{"v": 0, "a": 1}).
		Output(outPath, ffmpeg.KwArgs{"acodec": "libmp3lame", "b:a": "128k"}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("concat TTS clips: %w", err)
	}
	return nil
}

// mixWithVideo lays the speech over the video's own audio at the requested
// gains.
func mixWithVideo(ctx context.Context, videoPath, ttsPath, outPath string, videoGain, ttsGain float64, logger *zap.SugaredLogger) error {
	if videoGain <= 0 || videoGain > 1 {
		videoGain = 1
	}
	if ttsGain <= 0 || ttsGain > 2 {
		ttsGain = 1
	}
	runner, err := ffmpegproc.NewRunner(logger)
	if err != nil {
		return err
	}
	filter := fmt.Sprintf(
		"[0:a]volume=%.3f[va];[1:a]volume=%.3f[ta];[va][ta]amix=inputs=2:duration=longest:normalize=0[out]",
		videoGain, ttsGain,
	)
	args := ffmpegproc.FFmpegArgs(
		"-i", videoPath,
		"-i", ttsPath,
		"-filter_complex", filter,
		"-map", "[out]",
		"-c:a", "aac", "-b:a", "192k",
		"-y", outPath,
	)
	return runner.RunFFmpeg(ctx, args, ffmpegproc.RunOptions{})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
