package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
)

// ExtractAudioOptions configures audio extraction. The defaults produce the
// mono 16 kHz WAV the transcriber wants.
type ExtractAudioOptions struct {
	SampleRate int
	Channels   int
	OutputPath string // "" = temp file
}

// ExtractAudioResult is the finished payload.
type ExtractAudioResult struct {
	WavPath    string
	DurationMs int64
}

// StartAudioExtraction extracts the audio track of a video into a WAV file.
func StartAudioExtraction(videoPath string, opts ExtractAudioOptions, logger *zap.SugaredLogger) *Handle {
	return start("audio-extract", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		if _, err := os.Stat(videoPath); err != nil {
			return nil, fmt.Errorf("video file: %w", err)
		}

		sampleRate := opts.SampleRate
		if sampleRate <= 0 {
			sampleRate = 16000
		}
		channels := opts.Channels
		if channels <= 0 {
			channels = 1
		}

		outPath := opts.OutputPath
		if outPath == "" {
			tmp, err := os.CreateTemp("", "fmm_audio_*.wav")
			if err != nil {
				return nil, err
			}
			outPath = tmp.Name()
			tmp.Close()
		} else if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return nil, err
		}

		ffmpegPath, err := ffmpegproc.FFmpegPath()
		if err != nil {
			return nil, err
		}

		emit(0, 0, "extracting audio")
		err = ffmpeg.Input(videoPath).
			Output(outPath, ffmpeg.KwArgs{
				"vn":     "",
				"acodec": "pcm_s16le",
				"ar":     sampleRate,
				"ac":     channels,
				"f":      "wav",
			}).
			OverWriteOutput().
			SetFfmpegPath(ffmpegPath).
			Run()
		if err != nil {
			os.Remove(outPath)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("audio extraction failed: %w", err)
		}
		if err := ctx.Err(); err != nil {
			os.Remove(outPath)
			return nil, err
		}

		durationMs, err := probeDurationMs(ctx, outPath, logger)
		if err != nil {
			durationMs = 0
		}
		return ExtractAudioResult{WavPath: outPath, DurationMs: durationMs}, nil
	})
}

func probeDurationMs(ctx context.Context, path string, logger *zap.SugaredLogger) (int64, error) {
	runner, err := ffmpegproc.NewRunner(logger)
	if err != nil {
		return 0, err
	}
	info, err := runner.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.DurationMs, nil
}
