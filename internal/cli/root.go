// Package cli is the host-facing shell: every core capability — probing,
// transcription, TTS, translation, export, the library, recovery — is
// reachable as a subcommand, which keeps the non-UI pipeline exercisable
// end to end without the desktop app.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/config"
	"github.com/fastmoviemaker/fmm/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fmm",
	Short: "Subtitle editor core: transcribe, edit, synthesize, export",
	Long: `fmm is the processing core of the FastMovieMaker subtitle editor.

It opens and migrates .fmm.json projects, transcribes video audio into
subtitle tracks, synthesizes speech for scripts, translates tracks, and
renders finished videos with burned-in subtitles and overlays via FFmpeg.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
		cfg = config.Load()
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
