// Package waveform computes per-millisecond peak pairs from WAV audio for
// timeline rendering, processing roughly one second of samples at a time so
// memory stays flat for hour-long inputs.
package waveform

import (
	"context"
	"io"
	"os"
)

// Data holds normalized peaks at 1-pair-per-millisecond resolution.
// PeaksPos[i] is the max amplitude in [0,1] for millisecond i, PeaksNeg[i]
// the min in [-1,0].
type Data struct {
	PeaksPos   []float32
	PeaksNeg   []float32
	DurationMs int64
	SampleRate int
}

// SizeBytes approximates the memory the peak arrays occupy, for the cache
// budget.
func (d *Data) SizeBytes() int64 {
	return int64(len(d.PeaksPos)+len(d.PeaksNeg)) * 4
}

// ComputePeaks scans a WAV file chunk by chunk. Only the first channel is
// read; additional channels are skipped in place. onProgress, when non-nil,
// receives (processedMs, totalMs) once per chunk. Cancellation is observed
// between chunks.
func ComputePeaks(
	ctx context.Context,
	wavPath string,
	onProgress func(processedMs, totalMs int64),
) (*Data, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	format, err := readWavHeader(file)
	if err != nil {
		return nil, err
	}

	frames := format.frames()
	totalMs := frames * 1000 / int64(format.sampleRate)
	if totalMs <= 0 {
		return &Data{SampleRate: format.sampleRate}, nil
	}

	data := &Data{
		PeaksPos:   make([]float32, totalMs),
		PeaksNeg:   make([]float32, totalMs),
		DurationMs: totalMs,
		SampleRate: format.sampleRate,
	}

	blockAlign := format.blockAlign()
	chunkFrames := int64(format.sampleRate) // ~1 second per read
	buf := make([]byte, chunkFrames*int64(blockAlign))

	var frameIdx int64
	for frameIdx < frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		want := chunkFrames
		if frames-frameIdx < want {
			want = frames - frameIdx
		}
		n, err := io.ReadFull(file, buf[:want*int64(blockAlign)])
		if n == 0 {
			break
		}
		got := int64(n) / int64(blockAlign)
		for i := int64(0); i < got; i++ {
			sample := sampleToFloat(buf[i*int64(blockAlign):], format.bitsPerSample)
			msIdx := (frameIdx + i) * 1000 / int64(format.sampleRate)
			if msIdx >= totalMs {
				break
			}
			if sample > data.PeaksPos[msIdx] {
				data.PeaksPos[msIdx] = sample
			}
			if sample < data.PeaksNeg[msIdx] {
				data.PeaksNeg[msIdx] = sample
			}
		}
		frameIdx += got
		if onProgress != nil {
			onProgress(frameIdx*1000/int64(format.sampleRate), totalMs)
		}
		if err != nil {
			break // tolerate a truncated final chunk
		}
	}
	return data, nil
}
