package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/worker"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a video's audio track as WAV",
	Long: `Extract the audio track from a video file as PCM WAV.

The defaults (mono, 16 kHz) match what the transcription engines expect.

Examples:
  fmm extract video.mp4
  fmm extract video.mp4 -o audio.wav --sample-rate 44100 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		IntP("sample-rate", "r", 16000, "Sample rate in Hz")
	extractCmd.Flags().
		IntP("channels", "c", 1, "Channel count (1=mono, 2=stereo)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"
	}

	logger.Infow("extracting audio",
		"video", videoPath,
		"output", outputPath,
		"sample_rate", sampleRate,
		"channels", channels,
	)

	h := worker.StartAudioExtraction(videoPath, worker.ExtractAudioOptions{
		SampleRate: sampleRate,
		Channels:   channels,
		OutputPath: outputPath,
	}, logger)

	ev := h.Await(nil)
	switch ev.Kind {
	case worker.Finished:
		result := ev.Result.(worker.ExtractAudioResult)
		fmt.Printf("Audio extracted: %s (%d ms)\n", result.WavPath, result.DurationMs)
		return nil
	case worker.Cancelled:
		return fmt.Errorf("extraction cancelled")
	default:
		return ev.Err
	}
}
