package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/waveform"
)

// StartWaveform computes per-millisecond peaks for a WAV file, consulting
// the cache first. The finished result is a *waveform.Data.
func StartWaveform(wavPath string, cache *waveform.Cache, logger *zap.SugaredLogger) *Handle {
	return start("waveform", logger, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		key := ""
		if cache != nil {
			k, err := waveform.Key(wavPath)
			if err == nil {
				key = k
				if data, ok := cache.Get(key); ok {
					return data, nil
				}
			}
		}

		data, err := waveform.ComputePeaks(ctx, wavPath, func(done, total int64) {
			emit(done, total, "")
		})
		if err != nil {
			return nil, err
		}

		if cache != nil && key != "" {
			if err := cache.Put(key, data); err != nil {
				// Over-budget waveforms just skip the cache.
				logger.Debugw("waveform cache skip", "error", err)
			}
		}
		return data, nil
	})
}
