// Package translate converts subtitle tracks between languages with an LLM
// provider. Segments are batched into numbered JSON items so timing never
// leaves the process; only the text travels.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fastmoviemaker/fmm/internal/model"
)

// TranslationItem is one text to translate, keyed by its segment index.
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// TranslationResult is one translated text.
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Translator translates a batch of items.
type Translator interface {
	Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)
}

// Provider identifies a translation engine.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultBatchSize is how many segments travel per API request.
const DefaultBatchSize = 50

// Options configures a translation run.
type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// Factory builds a translator for the provider.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// TranslateTrack translates every segment of track into a new track named
// "<TargetLanguage> (Translated)". Timing, styles, and volumes carry over
// unchanged. onProgress receives (done, total) after each batch; the run
// stops between batches when ctx is cancelled.
func TranslateTrack(
	ctx context.Context,
	tr Translator,
	track *model.SubtitleTrack,
	opts Options,
	onProgress func(done, total int),
) (*model.SubtitleTrack, error) {
	out := track.Copy()
	out.Name = fmt.Sprintf("%s (Translated)", opts.TargetLanguage)
	out.Language = opts.TargetLanguage
	// The merged TTS audio belongs to the source language.
	out.AudioPath = ""
	out.AudioStartMs = 0
	out.AudioDurationMs = 0

	items := make([]TranslationItem, len(track.Segments))
	for i, seg := range track.Segments {
		items[i] = TranslationItem{Index: i, Text: seg.Text}
	}

	batchSize := opts.batchSize()
	total := len(items)
	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batchSize
		if end > total {
			end = total
		}
		results, err := tr.Translate(ctx, items[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", start/batchSize, err)
		}
		for _, r := range results {
			if r.Index < 0 || r.Index >= len(out.Segments) {
				return nil, fmt.Errorf("translation result index %d out of range", r.Index)
			}
			out.Segments[r.Index].Text = r.Text
		}
		if onProgress != nil {
			onProgress(end, total)
		}
	}
	return out, nil
}

// BuildPrompt renders the instruction block shared by all providers.
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder
	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb, "Translate the following %s subtitle texts to %s.\n\n",
			opts.InputLanguage, opts.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate the following subtitle texts to %s.\n\n", opts.TargetLanguage)
	}
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Keep any formatting tags (like {\\pos}, {\\an}, etc.) unchanged.\n")
	sb.WriteString("3. Preserve line breaks in the same positions.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("6. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")
	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}
	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")
	return sb.String()
}

var jsonFenceRE = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// fixInvalidEscapes doubles backslashes that start invalid JSON escapes,
// preserving literal sequences like \N that subtitle text carries.
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for i := 0; i < len(s); {
		if i+1 < len(s) && s[i] == '\\' {
			switch s[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(s[i+1])
			default:
				result.WriteString(`\\`)
				result.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}
	return result.String()
}

// extractTranslationResults pulls the result array out of a model response,
// tolerating wrapper objects and leading prose.
func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(cleanJSONResponse(text))
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok {
			sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]TranslationResult, bool) {
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err == nil && validateResults(results) {
		return results, true
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range []string{"results", "translations", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			var fieldResults []TranslationResult
			if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil && validateResults(fieldResults) {
				return fieldResults, true
			}
		}
	}
	return nil, false
}

func validateResults(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// checkCount verifies a batch reply covered every item.
func checkCount(results []TranslationResult, expected int, responseText string) ([]TranslationResult, error) {
	if len(results) != expected {
		return nil, fmt.Errorf("expected %d results, got %d (response: %s)",
			expected, len(results), truncateString(responseText, 200))
	}
	return results, nil
}
