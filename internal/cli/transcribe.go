package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/config"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/subtitle"
	"github.com/fastmoviemaker/fmm/internal/transcribe"
	"github.com/fastmoviemaker/fmm/internal/worker"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Transcribe a video or audio file into an SRT subtitle track",
	Long: `Transcribe speech into timed subtitles.

Video input is demuxed to mono 16 kHz WAV first. The audio is processed in
chunks so long files stream through the engine and cancellation stays
responsive.

Providers: whisper (local whisper.cpp binary), openai, gemini.

Examples:
  fmm transcribe talk.mp4
  fmm transcribe talk.mp4 --provider whisper --model models/ggml-base.bin
  fmm transcribe talk.wav --provider gemini -l ko -o talk.ko.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		String("provider", "whisper", "Transcription provider (whisper, openai, gemini)")
	transcribeCmd.Flags().
		String("model", "", "Model id or model file path")
	transcribeCmd.Flags().
		StringP("language", "l", "", "Source language code (e.g. en, ko)")
	transcribeCmd.Flags().
		Int64("chunk-ms", worker.DefaultChunkMs, "Chunk length in milliseconds")
	transcribeCmd.Flags().
		String("prompt", "", "Optional biasing prompt")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	providerStr, _ := cmd.Flags().GetString("provider")
	modelID, _ := cmd.Flags().GetString("model")
	language, _ := cmd.Flags().GetString("language")
	chunkMs, _ := cmd.Flags().GetInt64("chunk-ms")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(mediaPath); err != nil {
		return err
	}

	provider := transcribe.Provider(providerStr)
	apiKey := ""
	switch provider {
	case transcribe.ProviderOpenAI:
		apiKey = config.APIKey(config.EnvOpenAIKey)
	case transcribe.ProviderGemini:
		apiKey = config.APIKey(config.EnvGeminiKey)
	case transcribe.ProviderWhisper:
		if modelID == "" {
			modelID = cfg.WhisperModel
		}
	}

	// Video goes through audio extraction first.
	wavPath := mediaPath
	if !strings.EqualFold(filepath.Ext(mediaPath), ".wav") {
		logger.Infow("extracting audio for transcription", "video", mediaPath)
		h := worker.StartAudioExtraction(mediaPath, worker.ExtractAudioOptions{}, logger)
		ev := h.Await(nil)
		if ev.Kind != worker.Finished {
			return fmt.Errorf("audio extraction failed: %w", ev.Err)
		}
		result := ev.Result.(worker.ExtractAudioResult)
		wavPath = result.WavPath
		defer os.Remove(wavPath)
	}

	logger.Infow("transcribing", "provider", provider, "model", modelID, "language", language)
	h := worker.StartTranscription(wavPath, worker.TranscriptionOptions{
		Provider: provider,
		APIKey:   apiKey,
		ChunkMs:  chunkMs,
		Engine: transcribe.Options{
			Language:   language,
			Model:      modelID,
			Prompt:     prompt,
			WhisperBin: cfg.WhisperBin,
		},
	}, logger)

	ev := h.Await(func(p worker.Event) {
		if p.Total > 0 {
			fmt.Printf("\rchunk %d/%d", p.Current, p.Total)
		}
	})
	fmt.Println()

	switch ev.Kind {
	case worker.Finished:
	case worker.Cancelled:
		return fmt.Errorf("transcription cancelled")
	default:
		return ev.Err
	}

	track := ev.Result.(*model.SubtitleTrack)
	if track.Len() == 0 {
		return fmt.Errorf("no speech found in %s", mediaPath)
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
	}
	if err := subtitle.WriteSRT(track, outputPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %d segments to %s\n", track.Len(), outputPath)
	return nil
}
