package translate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranslator translates through the Chat Completions API.
type OpenAITranslator struct {
	client  openai.Client
	model   string
	options Options
}

// NewOpenAITranslator builds the GPT engine.
func NewOpenAITranslator(apiKey string, opts Options) (*OpenAITranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}
	return &OpenAITranslator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

// Translate sends one batch and parses the JSON reply.
func (t *OpenAITranslator) Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	prompt := BuildPrompt(t.options, items)

	completion, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: t.model,
	})
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := completion.Choices[0].Message.Content
	results, err := extractTranslationResults(responseText)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return checkCount(results, len(items), responseText)
}
