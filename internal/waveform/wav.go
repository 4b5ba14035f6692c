package waveform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrDecodeFailed marks WAV files the reader cannot handle. Non-fatal for
// callers: they fall back to the un-cached, waveform-less path.
var ErrDecodeFailed = errors.New("waveform decode failed")

// wavFormat is the parsed fmt chunk of a PCM WAV file.
type wavFormat struct {
	channels      int
	sampleRate    int
	bitsPerSample int
	dataBytes     int64
}

func (f wavFormat) blockAlign() int { return f.channels * f.bitsPerSample / 8 }

func (f wavFormat) frames() int64 {
	ba := int64(f.blockAlign())
	if ba == 0 {
		return 0
	}
	return f.dataBytes / ba
}

// readWavHeader walks the RIFF chunks up to the start of sample data and
// leaves r positioned at the first frame.
func readWavHeader(r io.Reader) (wavFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return wavFormat{}, fmt.Errorf("%w: short header: %v", ErrDecodeFailed, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavFormat{}, fmt.Errorf("%w: not a RIFF/WAVE file", ErrDecodeFailed)
	}

	var format wavFormat
	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return wavFormat{}, fmt.Errorf("%w: missing data chunk", ErrDecodeFailed)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return wavFormat{}, fmt.Errorf("%w: short fmt chunk", ErrDecodeFailed)
			}
			if len(body) < 16 {
				return wavFormat{}, fmt.Errorf("%w: fmt chunk too small", ErrDecodeFailed)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != 1 { // PCM only
				return wavFormat{}, fmt.Errorf("%w: unsupported audio format %d", ErrDecodeFailed, audioFormat)
			}
			format.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			format.bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if format.bitsPerSample != 16 && format.bitsPerSample != 32 {
				return wavFormat{}, fmt.Errorf("%w: unsupported sample width %d", ErrDecodeFailed, format.bitsPerSample)
			}
			if format.channels <= 0 || format.sampleRate <= 0 {
				return wavFormat{}, fmt.Errorf("%w: bad fmt chunk", ErrDecodeFailed)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return wavFormat{}, fmt.Errorf("%w: data before fmt", ErrDecodeFailed)
			}
			format.dataBytes = size
			return format, nil
		default:
			// Skip unknown chunks (LIST, fact, ...). Chunks are word-aligned.
			skip := size
			if skip%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return wavFormat{}, fmt.Errorf("%w: truncated chunk %q", ErrDecodeFailed, id)
			}
		}
	}
}

// sampleToFloat converts one little-endian PCM sample to [-1, 1].
func sampleToFloat(buf []byte, bits int) float32 {
	switch bits {
	case 16:
		v := int16(binary.LittleEndian.Uint16(buf))
		return float32(v) / 32768.0
	case 32:
		v := int32(binary.LittleEndian.Uint32(buf))
		return float32(float64(v) / 2147483648.0)
	default:
		return 0
	}
}
