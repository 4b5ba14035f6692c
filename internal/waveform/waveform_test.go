package waveform

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWav produces a mono 16-bit PCM file with a sine burst.
func writeTestWav(t *testing.T, path string, sampleRate int, durationMs int) {
	t.Helper()
	frames := sampleRate * durationMs / 1000
	dataBytes := frames * 2

	buf := make([]byte, 0, 44+dataBytes)
	appendU32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }
	appendU16 := func(v uint16) { buf = binary.LittleEndian.AppendUint16(buf, v) }

	buf = append(buf, "RIFF"...)
	appendU32(uint32(36 + dataBytes))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	appendU32(16)
	appendU16(1) // PCM
	appendU16(1) // mono
	appendU32(uint32(sampleRate))
	appendU32(uint32(sampleRate * 2))
	appendU16(2)
	appendU16(16)
	buf = append(buf, "data"...)
	appendU32(uint32(dataBytes))

	for i := 0; i < frames; i++ {
		sample := int16(30000 * math.Sin(2*math.Pi*2000*float64(i)/float64(sampleRate)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestComputePeaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWav(t, path, 16000, 2500)

	var calls int
	data, err := ComputePeaks(context.Background(), path, func(done, total int64) {
		calls++
		if done > total {
			t.Errorf("progress overshoot: %d > %d", done, total)
		}
	})
	if err != nil {
		t.Fatalf("ComputePeaks: %v", err)
	}
	if data.DurationMs != 2500 {
		t.Errorf("duration = %d, want 2500", data.DurationMs)
	}
	if calls < 2 {
		t.Errorf("expected chunked progress, got %d calls", calls)
	}

	// A 2 kHz tone completes multiple cycles per millisecond bucket, so
	// every bucket peaks close to full scale.
	for ms := int64(10); ms < data.DurationMs; ms += 500 {
		if data.PeaksPos[ms] < 0.5 || data.PeaksPos[ms] > 1.0 {
			t.Errorf("peaks_pos[%d] = %v", ms, data.PeaksPos[ms])
		}
		if data.PeaksNeg[ms] > -0.5 || data.PeaksNeg[ms] < -1.0 {
			t.Errorf("peaks_neg[%d] = %v", ms, data.PeaksNeg[ms])
		}
	}
}

func TestComputePeaksRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ComputePeaks(context.Background(), path, nil)
	if !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestComputePeaksCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWav(t, path, 16000, 3000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ComputePeaks(ctx, path, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCacheBudget(t *testing.T) {
	// Each entry holds 1000 ms of peaks = 8000 bytes.
	mk := func() *Data {
		return &Data{
			PeaksPos:   make([]float32, 1000),
			PeaksNeg:   make([]float32, 1000),
			DurationMs: 1000,
		}
	}

	cache, err := NewCache(20_000)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := cache.Put(string(rune('a'+i)), mk()); err != nil {
			t.Fatal(err)
		}
		if cache.SizeBytes() > 20_000 {
			t.Fatalf("budget exceeded after insert %d: %d bytes", i, cache.SizeBytes())
		}
	}
	// 20000 / 8000 = at most 2 entries survive.
	if cache.Len() > 2 {
		t.Errorf("len = %d, want <= 2", cache.Len())
	}
	// The newest entry is retained.
	if _, ok := cache.Get("e"); !ok {
		t.Error("most recent entry evicted")
	}
	// The oldest is gone.
	if _, ok := cache.Get("a"); ok {
		t.Error("oldest entry survived past the budget")
	}
}

func TestCacheOversizedEntry(t *testing.T) {
	cache, err := NewCache(100)
	if err != nil {
		t.Fatal(err)
	}
	big := &Data{PeaksPos: make([]float32, 1000), PeaksNeg: make([]float32, 1000)}
	if err := cache.Put("big", big); err == nil {
		t.Error("expected rejection of oversized entry")
	}
}

func TestKeyStableAcrossPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	writeTestWav(t, a, 8000, 100)
	writeTestWav(t, b, 8000, 100)

	ka, err := Key(a)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := Key(b)
	if err != nil {
		t.Fatal(err)
	}
	if ka != kb {
		t.Error("identical content must hash to the same key")
	}
}
