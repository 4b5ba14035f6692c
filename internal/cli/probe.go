package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

var probeCmd = &cobra.Command{
	Use:   "probe [media_file]",
	Short: "Show duration, resolution, and codec info for a media file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func newRunner() (*ffmpegproc.Runner, error) {
	return ffmpegproc.NewRunner(logger)
}

func runProbe(cmd *cobra.Command, args []string) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}
	info, err := runner.Probe(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("path:      %s\n", info.Path)
	fmt.Printf("duration:  %s (%d ms)\n", timeutil.MsToDisplay(info.DurationMs), info.DurationMs)
	if info.Width > 0 {
		fmt.Printf("video:     %dx%d @ %.3f fps (%s)\n", info.Width, info.Height, info.FPS, info.VideoCodec)
	}
	if info.HasAudio {
		fmt.Printf("audio:     %s", info.AudioCodec)
		if info.SampleRate > 0 {
			fmt.Printf(" @ %d Hz", info.SampleRate)
		}
		fmt.Println()
	} else {
		fmt.Println("audio:     none")
	}
	return nil
}
