// Package transcribe turns audio into timed subtitle segments. The local
// whisper.cpp adapter runs the engine as a subprocess; the cloud adapters
// upload the audio file they are given, as is, to the OpenAI or Gemini audio
// APIs.
package transcribe

import (
	"context"
	"fmt"
)

// Segment is one transcribed utterance on the source audio's timeline.
type Segment struct {
	StartMs int64
	EndMs   int64
	Text    string
}

// Result is a complete transcription of one audio file.
type Result struct {
	Segments   []Segment
	Language   string
	DurationMs int64
}

// Transcriber converts a WAV file to timed segments. Load performs any
// expensive initialization (model load, auth); callers dispatch it on the
// worker thread so the main thread never pays for model startup.
type Transcriber interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, wavPath string) (*Result, error)
}

// Provider identifies a transcription engine.
type Provider string

const (
	ProviderWhisper Provider = "whisper"
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
)

// Options configures a transcription run.
type Options struct {
	Language string // source language code ("ko", "en", ...)
	Model    string // model id or model file path, provider-dependent
	Prompt   string // optional biasing prompt

	// WhisperBin is the whisper.cpp binary path, for the local provider.
	WhisperBin string
}

// Factory builds a transcriber for the provider.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Transcriber, error) {
	switch provider {
	case ProviderWhisper:
		return NewWhisperTranscriber(opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", provider)
	}
}

// OffsetSegments shifts chunk-relative segments onto the full audio's
// timeline.
func OffsetSegments(segments []Segment, offsetMs int64) []Segment {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = Segment{StartMs: s.StartMs + offsetMs, EndMs: s.EndMs + offsetMs, Text: s.Text}
	}
	return out
}
