package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/config"
	"github.com/fastmoviemaker/fmm/internal/subtitle"
	"github.com/fastmoviemaker/fmm/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitles.srt]",
	Short: "Translate a subtitle file to another language",
	Long: `Translate every segment of a subtitle file, preserving timing.

Providers: anthropic, openai, gemini. API keys come from the environment
(ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY) or the OS keychain.

Examples:
  fmm translate talk.srt --target Spanish
  fmm translate talk.srt --target Japanese --provider anthropic -o talk.ja.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().String("provider", "anthropic", "Translation provider (anthropic, openai, gemini)")
	translateCmd.Flags().String("target", "", "Target language (required)")
	translateCmd.Flags().String("source", "", "Source language (optional)")
	translateCmd.Flags().String("model", "", "Model override")
	translateCmd.Flags().Int("batch-size", translate.DefaultBatchSize, "Segments per API request")
	_ = translateCmd.MarkFlagRequired("target")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	srtPath := args[0]
	providerStr, _ := cmd.Flags().GetString("provider")
	target, _ := cmd.Flags().GetString("target")
	source, _ := cmd.Flags().GetString("source")
	modelID, _ := cmd.Flags().GetString("model")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")

	track, warnings, err := subtitle.ParseSRT(srtPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warnw("subtitle import", "warning", w)
	}
	if track.Len() == 0 {
		return fmt.Errorf("%s has no segments", srtPath)
	}

	provider := translate.Provider(providerStr)
	var apiKey string
	switch provider {
	case translate.ProviderAnthropic:
		apiKey = config.APIKey(config.EnvAnthropicKey)
	case translate.ProviderOpenAI:
		apiKey = config.APIKey(config.EnvOpenAIKey)
	case translate.ProviderGemini:
		apiKey = config.APIKey(config.EnvGeminiKey)
	}

	opts := translate.Options{
		InputLanguage:  source,
		TargetLanguage: target,
		Model:          modelID,
		BatchSize:      batchSize,
	}
	ctx := context.Background()
	engine, err := translate.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return err
	}

	logger.Infow("translating", "provider", provider, "target", target, "segments", track.Len())
	translated, err := translate.TranslateTrack(ctx, engine, track, opts, func(done, total int) {
		fmt.Printf("\r%d/%d", done, total)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	if outputPath == "" {
		ext := filepath.Ext(srtPath)
		outputPath = strings.TrimSuffix(srtPath, ext) + "." + strings.ToLower(target) + ext
	}
	if err := subtitle.WriteSRT(translated, outputPath); err != nil {
		return err
	}
	fmt.Printf("Translated %d segments to %s\n", translated.Len(), outputPath)
	return nil
}
