package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/autosave"
	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/projectio"
	"github.com/fastmoviemaker/fmm/internal/subtitle"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect and convert project files",
}

var projectInfoCmd = &cobra.Command{
	Use:   "info [project.fmm.json]",
	Short: "Summarize a project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, warnings, err := projectio.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("video:     %s\n", orNone(p.VideoPath))
		fmt.Printf("duration:  %s\n", timeutil.MsToDisplay(p.OutputDurationMs()))
		fmt.Printf("tracks:    %d (active: %d)\n", len(p.SubtitleTracks), p.ActiveTrackIndex)
		for i, tr := range p.SubtitleTracks {
			fmt.Printf("  [%d] %s (%s): %d segments\n", i, tr.Name, orNone(tr.Language), tr.Len())
		}
		if p.VideoClipTrack != nil {
			fmt.Printf("clips:     %d\n", p.VideoClipTrack.Len())
		}
		fmt.Printf("overlays:  %d image, %d text\n",
			len(p.ImageOverlayTrack.Overlays), len(p.TextOverlayTrack.Overlays))
		for _, w := range warnings {
			fmt.Printf("warning:   %s\n", w.String())
		}
		return nil
	},
}

var projectImportCmd = &cobra.Command{
	Use:   "import [subtitles.srt|.smi]",
	Short: "Create a project from a subtitle file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subPath := args[0]
		outputPath, _ := cmd.Flags().GetString("output")
		videoPath, _ := cmd.Flags().GetString("video")

		var track *model.SubtitleTrack
		var warnings []string
		var err error
		if strings.EqualFold(filepath.Ext(subPath), ".smi") {
			track, warnings, err = subtitle.ParseSMI(subPath)
		} else {
			track, warnings, err = subtitle.ParseSRT(subPath)
		}
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warnw("subtitle import", "warning", w)
		}

		p := model.NewProject()
		p.SubtitleTracks = []*model.SubtitleTrack{track}
		p.ActiveTrackIndex = 0
		p.VideoPath = videoPath
		if track.Len() > 0 {
			p.DurationMs = track.Segments[track.Len()-1].EndMs
		}

		if outputPath == "" {
			outputPath = strings.TrimSuffix(subPath, filepath.Ext(subPath)) + projectio.Extension
		}
		if err := projectio.Save(p, outputPath); err != nil {
			return err
		}
		fmt.Printf("Created %s with %d segments\n", outputPath, track.Len())
		return nil
	},
}

var projectExportSRTCmd = &cobra.Command{
	Use:   "export-srt [project.fmm.json]",
	Short: "Write the active subtitle track as SRT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		p, _, err := projectio.Load(args[0])
		if err != nil {
			return err
		}
		track := p.ActiveTrack()
		if track == nil || track.Len() == 0 {
			return fmt.Errorf("project has no subtitles")
		}
		if outputPath == "" {
			outputPath = strings.TrimSuffix(args[0], projectio.Extension) + ".srt"
		}
		if err := subtitle.WriteSRT(track, outputPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %d segments to %s\n", track.Len(), outputPath)
		return nil
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "List or discard crash-recovery snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		discard, _ := cmd.Flags().GetBool("discard")
		dir := cfg.AutosaveDir()

		if discard {
			if err := autosave.DiscardRecovery(dir); err != nil {
				return err
			}
			fmt.Println("Recovery snapshots discarded.")
			return nil
		}

		candidates, err := autosave.ScanRecovery(dir)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("No recovery snapshots found.")
			return nil
		}
		for _, c := range candidates {
			fmt.Printf("%s  %s\n", c.ModifiedAt.Format("2006-01-02 15:04:05"), c.Path)
		}
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectInfoCmd)
	projectCmd.AddCommand(projectImportCmd)
	projectCmd.AddCommand(projectExportSRTCmd)
	rootCmd.AddCommand(recoverCmd)

	projectImportCmd.Flags().String("video", "", "Primary video path to attach")
	recoverCmd.Flags().Bool("discard", false, "Delete all recovery snapshots")
}
