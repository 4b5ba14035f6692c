package translate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiTranslator translates through Gemini.
type GeminiTranslator struct {
	client  *genai.Client
	model   string
	options Options
}

// NewGeminiTranslator builds the Gemini engine.
func NewGeminiTranslator(ctx context.Context, apiKey string, opts Options) (*GeminiTranslator, error) {
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
	return &GeminiTranslator{client: client, model: model, options: opts}, nil
}

// Translate sends one batch and parses the JSON reply.
func (t *GeminiTranslator) Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	prompt := BuildPrompt(t.options, items)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			responseText += part.Text
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}
	results, err := extractTranslationResults(responseText)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return checkCount(results, len(items), responseText)
}
