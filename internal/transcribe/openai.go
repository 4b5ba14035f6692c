package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// OpenAITranscriber sends audio to the OpenAI transcription API.
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// verbose_json response shape.
type whisperVerboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// NewOpenAITranscriber builds the cloud adapter.
func NewOpenAITranscriber(apiKey string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

// Load is a no-op for the cloud adapter; auth failures surface on the first
// request.
func (t *OpenAITranscriber) Load(ctx context.Context) error { return ctx.Err() }

// Transcribe uploads one audio file and parses the verbose JSON reply.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	var verbose whisperVerboseResponse
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil || len(verbose.Segments) == 0 {
		// Timestamps unavailable: fall back to one segment spanning the file.
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return &Result{Language: t.options.Language}, nil
		}
		durationMs := timeutil.SecondsToMs(verbose.Duration)
		if durationMs <= 0 {
			durationMs = 1000
		}
		return &Result{
			Segments:   []Segment{{StartMs: 0, EndMs: durationMs, Text: text}},
			Language:   t.options.Language,
			DurationMs: durationMs,
		}, nil
	}

	result := &Result{
		Language:   verbose.Language,
		DurationMs: timeutil.SecondsToMs(verbose.Duration),
	}
	if result.Language == "" {
		result.Language = t.options.Language
	}
	for _, seg := range verbose.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.End <= seg.Start {
			continue
		}
		result.Segments = append(result.Segments, Segment{
			StartMs: timeutil.SecondsToMs(seg.Start),
			EndMs:   timeutil.SecondsToMs(seg.End),
			Text:    text,
		})
	}
	return result, nil
}
