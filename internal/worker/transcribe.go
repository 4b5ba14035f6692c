package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/transcribe"
)

// DefaultChunkMs is the transcription chunk length. Cancellation takes
// effect at chunk boundaries.
const DefaultChunkMs = 5_000

// TranscriptionOptions configures a transcription job.
type TranscriptionOptions struct {
	Provider transcribe.Provider
	APIKey   string
	Engine   transcribe.Options
	ChunkMs  int64
	// TrackName names the resulting subtitle track; defaults to the
	// provider id.
	TrackName string
}

// StartTranscription runs the full pipeline: model load, chunking, per-chunk
// transcription with offsets, and assembly into a SubtitleTrack. Everything
// — including model initialization — happens on the worker goroutine.
func StartTranscription(wavPath string, opts TranscriptionOptions, logger *zap.SugaredLogger) *Handle {
	return start("transcribe", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		if _, err := os.Stat(wavPath); err != nil {
			return nil, fmt.Errorf("audio file: %w", err)
		}

		engine, err := transcribe.Factory(ctx, opts.Provider, opts.APIKey, opts.Engine)
		if err != nil {
			return nil, err
		}

		emit(0, 0, "loading model")
		if err := engine.Load(ctx); err != nil {
			return nil, err
		}

		chunkMs := opts.ChunkMs
		if chunkMs <= 0 {
			chunkMs = DefaultChunkMs
		}
		chunks, cleanup, err := chunkWav(ctx, wavPath, chunkMs, logger)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		name := opts.TrackName
		if name == "" {
			name = string(opts.Provider)
		}
		track := model.NewSubtitleTrack(name)
		track.Language = opts.Engine.Language

		total := int64(len(chunks))
		for i, chunk := range chunks {
			// Chunk boundary: the one safe point to observe cancellation.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, err := engine.Transcribe(ctx, chunk.path)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
			if result.Language != "" && track.Language == "" {
				track.Language = result.Language
			}
			for _, seg := range transcribe.OffsetSegments(result.Segments, chunk.offsetMs) {
				candidate := model.SubtitleSegment{StartMs: seg.StartMs, EndMs: seg.EndMs, Text: seg.Text}
				// Engines occasionally emit a head segment that overlaps the
				// previous chunk's tail; nudge it to keep the track valid.
				if n := track.Len(); n > 0 && candidate.StartMs < track.Segments[n-1].EndMs {
					candidate.StartMs = track.Segments[n-1].EndMs
					if candidate.EndMs <= candidate.StartMs {
						continue
					}
				}
				if _, err := track.AddSegment(candidate); err != nil {
					continue
				}
			}
			emit(int64(i+1), total, "")
		}

		return track, nil
	})
}

type wavChunk struct {
	path     string
	offsetMs int64
}

// chunkWav slices the WAV on the chunk grid with stream copies. The caller
// runs cleanup once done.
func chunkWav(ctx context.Context, wavPath string, chunkMs int64, logger *zap.SugaredLogger) ([]wavChunk, func(), error) {
	totalMs, err := probeDurationMs(ctx, wavPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("probe audio duration: %w", err)
	}
	if totalMs <= chunkMs {
		return []wavChunk{{path: wavPath, offsetMs: 0}}, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "fmm_chunks_")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	ffmpegPath, err := ffmpegproc.FFmpegPath()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var chunks []wavChunk
	for offset := int64(0); offset < totalMs; offset += chunkMs {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, nil, err
		}
		length := chunkMs
		if offset+length > totalMs {
			length = totalMs - offset
		}
		chunkPath := filepath.Join(dir, fmt.Sprintf("chunk_%05d.wav", len(chunks)))
		err := ffmpeg.Input(wavPath, ffmpeg.KwArgs{"ss": float64(offset) / 1000.0}).
			Output(chunkPath, ffmpeg.KwArgs{
				"t": float64(length) / 1000.0,
				"c": "copy",
			}).
			OverWriteOutput().
			SetFfmpegPath(ffmpegPath).
			Run()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("chunk at %dms: %w", offset, err)
		}
		chunks = append(chunks, wavChunk{path: chunkPath, offsetMs: offset})
	}
	return chunks, cleanup, nil
}
