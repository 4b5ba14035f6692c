package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

// GeminiTranscriber uploads audio to Gemini and asks for timed JSON.
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// NewGeminiTranscriber builds the Gemini adapter.
func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiTranscriber{client: client, model: model, options: opts}, nil
}

// Load is a no-op for the cloud adapter.
func (t *GeminiTranscriber) Load(ctx context.Context) error { return ctx.Err() }

func (t *GeminiTranscriber) buildPrompt() string {
	var sb strings.Builder
	sb.WriteString("Transcribe this audio file.\n")
	if t.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio language is %q.\n", t.options.Language))
	}
	sb.WriteString("Return ONLY a JSON array of objects with fields ")
	sb.WriteString(`"start" and "end" (seconds, numeric) and "text".` + "\n")
	sb.WriteString("No markdown fences, no commentary.\n")
	if t.options.Prompt != "" {
		sb.WriteString("Additional instructions: " + t.options.Prompt + "\n")
	}
	return sb.String()
}

// Transcribe uploads the file, prompts for timed segments, and parses the
// JSON reply.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	uploaded, err := t.client.Files.UploadFromPath(ctx, wavPath, nil)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	defer func() { _, _ = t.client.Files.Delete(ctx, uploaded.Name, nil) }()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildPrompt()),
		genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	responseText := geminiResponseText(resp)
	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}
	segments, err := parseGeminiSegments(responseText)
	if err != nil {
		return nil, fmt.Errorf("parse transcription: %w", err)
	}
	result := &Result{Segments: segments, Language: t.options.Language}
	for _, s := range segments {
		if s.EndMs > result.DurationMs {
			result.DurationMs = s.EndMs
		}
	}
	return result, nil
}

// geminiResponseText concatenates the text parts of every candidate.
func geminiResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

var jsonFenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func parseGeminiSegments(text string) ([]Segment, error) {
	text = strings.TrimSpace(text)
	if m := jsonFenceRE.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	// Tolerate stray prose around the array.
	if i := strings.Index(text, "["); i >= 0 {
		if j := strings.LastIndex(text, "]"); j > i {
			text = text[i : j+1]
		}
	}

	var raw []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	var out []Segment
	for _, seg := range raw {
		txt := strings.TrimSpace(seg.Text)
		if txt == "" || seg.End <= seg.Start {
			continue
		}
		out = append(out, Segment{
			StartMs: timeutil.SecondsToMs(seg.Start),
			EndMs:   timeutil.SecondsToMs(seg.End),
			Text:    txt,
		})
	}
	return out, nil
}
