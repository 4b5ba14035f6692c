package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WhisperTranscriber drives a local whisper.cpp binary. The model file is
// validated at Load so a bad path fails before any audio work begins.
type WhisperTranscriber struct {
	bin     string
	model   string
	options Options
}

// NewWhisperTranscriber builds the local adapter.
func NewWhisperTranscriber(opts Options) (*WhisperTranscriber, error) {
	bin := opts.WhisperBin
	if bin == "" {
		bin = "whisper-cli"
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("whisper model path is required")
	}
	return &WhisperTranscriber{bin: bin, model: opts.Model, options: opts}, nil
}

// Load checks the binary and model file exist. Runs on the worker thread.
func (t *WhisperTranscriber) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath(t.bin); err != nil {
		return fmt.Errorf("whisper binary %q: %w", t.bin, err)
	}
	if _, err := os.Stat(t.model); err != nil {
		return fmt.Errorf("whisper model %q: %w", t.model, err)
	}
	return nil
}

// whisper.cpp -oj output shape.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs the engine over one WAV file and parses its JSON output.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	outDir, err := os.MkdirTemp("", "fmm_whisper_")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)
	outPrefix := filepath.Join(outDir, "out")

	args := []string{
		"-m", t.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if t.options.Language != "" {
		args = append(args, "-l", t.options.Language)
	}
	if t.options.Prompt != "" {
		args = append(args, "--prompt", t.options.Prompt)
	}

	cmd := exec.CommandContext(ctx, t.bin, args...)
	combined, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper failed: %w\n%s", err, tail(string(combined)))
	}

	raw, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper output missing: %w", err)
	}
	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	result := &Result{Language: out.Result.Language}
	if result.Language == "" {
		result.Language = t.options.Language
	}
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.Offsets.To <= seg.Offsets.From {
			continue
		}
		result.Segments = append(result.Segments, Segment{
			StartMs: seg.Offsets.From,
			EndMs:   seg.Offsets.To,
			Text:    text,
		})
		if seg.Offsets.To > result.DurationMs {
			result.DurationMs = seg.Offsets.To
		}
	}
	return result, nil
}

func tail(s string) string {
	const n = 500
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
