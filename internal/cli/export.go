package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/export"
	"github.com/fastmoviemaker/fmm/internal/projectio"
	"github.com/fastmoviemaker/fmm/internal/worker"
)

var exportCmd = &cobra.Command{
	Use:   "export [project.fmm.json]",
	Short: "Render a project to a video file",
	Long: `Render the full project — clip timeline, transitions, burned-in
subtitles, image and text overlays, mixed audio — through FFmpeg.

The encoder is hardware-accelerated where the platform offers one
(VideoToolbox, NVENC, QSV, AMF, VAAPI) with libx264/libx265 as fallback.

Examples:
  fmm export movie.fmm.json -o out.mp4
  fmm export movie.fmm.json -o out.webm --width 1280 --height 720 --no-subtitles`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int("width", 1920, "Output width")
	exportCmd.Flags().Int("height", 1080, "Output height")
	exportCmd.Flags().String("codec", "h264", "Video codec (h264, hevc)")
	exportCmd.Flags().Bool("no-subtitles", false, "Skip subtitle burn-in")
	exportCmd.Flags().Bool("no-audio", false, "Produce a silent output")
	exportCmd.Flags().Float64("video-gain", 1.0, "Original audio gain, capped at 1 (0 selects 1.0, negative mutes)")
	exportCmd.Flags().Float64("tts-gain", 1.0, "Track speech gain, capped at 2 (0 or less selects 1.0)")
}

func runExport(cmd *cobra.Command, args []string) error {
	projectPath := args[0]
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	codec, _ := cmd.Flags().GetString("codec")
	noSubs, _ := cmd.Flags().GetBool("no-subtitles")
	noAudio, _ := cmd.Flags().GetBool("no-audio")
	videoGain, _ := cmd.Flags().GetFloat64("video-gain")
	ttsGain, _ := cmd.Flags().GetFloat64("tts-gain")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		return fmt.Errorf("output path is required (-o)")
	}

	p, warnings, err := projectio.Load(projectPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warnw("project load", "warning", w.String())
	}

	runner, err := newRunner()
	if err != nil {
		return err
	}
	exporter := export.New(runner, logger)

	audio := export.AudioMixed
	if noAudio {
		audio = export.AudioNone
	}
	job := export.Job{
		OutputPath:    outputPath,
		Codec:         codec,
		Width:         width,
		Height:        height,
		Audio:         audio,
		VideoGain:     videoGain,
		TTSGain:       ttsGain,
		BurnSubtitles: !noSubs,
	}

	h := worker.StartExport(exporter, p, job, logger)
	ev := h.Await(func(e worker.Event) {
		if e.Total > 0 {
			fmt.Printf("\r%3d%%", e.Current*100/e.Total)
		}
	})
	fmt.Println()

	switch ev.Kind {
	case worker.Finished:
		fmt.Printf("Exported: %s\n", outputPath)
		return nil
	case worker.Cancelled:
		return fmt.Errorf("export cancelled")
	default:
		return ev.Err
	}
}
