package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/config"
	"github.com/fastmoviemaker/fmm/internal/subtitle"
	"github.com/fastmoviemaker/fmm/internal/tts"
	"github.com/fastmoviemaker/fmm/internal/worker"
)

var ttsCmd = &cobra.Command{
	Use:   "tts [script.srt]",
	Short: "Synthesize speech for a subtitle script",
	Long: `Synthesize one audio clip per subtitle segment, then merge them with a
short silence between segments. The merged track and an SRT whose timing
matches the measured clip durations are written to the --output directory,
or to the TTS cache directory when --output is not set.

Engines: edge (free, via a local gateway), elevenlabs (needs
ELEVENLABS_API_KEY in the environment or OS keychain).

Examples:
  fmm tts script.srt --voice en-US-AriaNeural
  fmm tts script.srt --engine elevenlabs --voice Rachel --speed 1.1
  fmm tts script.srt --mix-with video.mp4 --video-gain 0.3 --tts-gain 1.0`,
	Args: cobra.ExactArgs(1),
	RunE: runTTS,
}

func init() {
	rootCmd.AddCommand(ttsCmd)

	ttsCmd.Flags().String("engine", "edge", "TTS engine (edge, elevenlabs)")
	ttsCmd.Flags().String("voice", "en-US-AriaNeural", "Voice id")
	ttsCmd.Flags().Float64("speed", 1.0, "Speech speed multiplier")
	ttsCmd.Flags().Int64("silence-ms", worker.DefaultSegmentSilenceMs, "Silence between segments")
	ttsCmd.Flags().String("mix-with", "", "Video file whose audio the speech is mixed over")
	ttsCmd.Flags().Float64("video-gain", 0.3, "Original audio gain in the mix, in (0, 1]; other values use 1.0")
	ttsCmd.Flags().Float64("tts-gain", 1.0, "Speech gain in the mix, in (0, 2]; other values use 1.0")
}

func runTTS(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	engineStr, _ := cmd.Flags().GetString("engine")
	voice, _ := cmd.Flags().GetString("voice")
	speed, _ := cmd.Flags().GetFloat64("speed")
	silenceMs, _ := cmd.Flags().GetInt64("silence-ms")
	mixWith, _ := cmd.Flags().GetString("mix-with")
	videoGain, _ := cmd.Flags().GetFloat64("video-gain")
	ttsGain, _ := cmd.Flags().GetFloat64("tts-gain")
	outputPath, _ := cmd.Flags().GetString("output")

	track, warnings, err := subtitle.ParseSRT(scriptPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warnw("script import", "warning", w)
	}
	if track.Len() == 0 {
		return fmt.Errorf("script %s has no segments", scriptPath)
	}

	script := make([]worker.TTSScriptSegment, track.Len())
	for i, seg := range track.Segments {
		script[i] = worker.TTSScriptSegment{Text: seg.Text}
	}

	engine := tts.Kind(engineStr)
	apiKey := ""
	if engine == tts.KindElevenLabs {
		apiKey = config.APIKey(config.EnvElevenLabsKey)
	}

	outDir := outputPath
	if outDir == "" {
		outDir = cfg.TTSCacheDir()
	}

	logger.Infow("synthesizing speech",
		"engine", engine, "voice", voice, "segments", len(script))

	h := worker.StartTTS(script, worker.TTSOptions{
		Engine:    engine,
		APIKey:    apiKey,
		BaseURL:   cfg.EdgeTTSBaseURL,
		Voice:     voice,
		Speed:     speed,
		SilenceMs: silenceMs,
		OutputDir: outDir,
		MixWith:   mixWith,
		VideoGain: videoGain,
		TTSGain:   ttsGain,
	}, logger)

	ev := h.Await(func(p worker.Event) {
		if p.Total > 0 {
			fmt.Printf("\r%d/%d", p.Current, p.Total)
		}
	})
	fmt.Println()

	switch ev.Kind {
	case worker.Finished:
	case worker.Cancelled:
		return fmt.Errorf("synthesis cancelled")
	default:
		return ev.Err
	}

	result := ev.Result.(worker.TTSResult)
	timedSRT := filepath.Join(outDir, "timed.srt")
	if err := subtitle.WriteSRT(result.Track, timedSRT); err != nil {
		return err
	}
	fmt.Printf("Merged audio: %s (%d ms)\n", result.AudioPath, result.DurationMs)
	if result.MixedPath != "" {
		fmt.Printf("Mixed audio:  %s\n", result.MixedPath)
	}
	fmt.Printf("Timed SRT:    %s\n", timedSRT)
	return nil
}
