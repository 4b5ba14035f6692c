package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/framecache"
)

// FrameCacheResult is the finished payload of a frame extraction job.
type FrameCacheResult struct {
	SourcePath string
	Frames     int
}

// StartFrameCache populates the thumbnail cache for a source video at the
// given interval (0 = the default one-second grid).
func StartFrameCache(cache *framecache.Cache, sourcePath string, intervalMs int64, logger *zap.SugaredLogger) *Handle {
	return start("frame-cache", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		n, err := cache.ExtractFrames(ctx, sourcePath, intervalMs, func(done, total int) {
			emit(int64(done), int64(total), "")
		})
		if err != nil {
			return nil, err
		}
		return FrameCacheResult{SourcePath: sourcePath, Frames: n}, nil
	})
}
