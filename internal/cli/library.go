package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastmoviemaker/fmm/internal/library"
	"github.com/fastmoviemaker/fmm/internal/timeutil"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the media library",
}

func openLibrary() (*library.Library, error) {
	runner, err := newRunner()
	if err != nil {
		// The library still works without ffmpeg; entries just lack
		// metadata and thumbnails.
		logger.Warnw("library without probing", "error", err)
		runner = nil
	}
	return library.Open(cfg.LibraryDir(), runner)
}

var libraryAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Import media files into the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		for _, path := range args {
			item, err := lib.Add(context.Background(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s  %-5s  %s\n", item.ID, item.Kind, item.FileName)
		}
		return nil
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		items := lib.List()
		if len(items) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}
		for _, item := range items {
			marker := " "
			if item.Favorite {
				marker = "*"
			}
			extra := ""
			if item.DurationMs > 0 {
				extra = "  " + timeutil.MsToDisplay(item.DurationMs)
			}
			fmt.Printf("%s %s  %-5s  %s%s\n", marker, item.ID, item.Kind, item.FileName, extra)
		}
		return nil
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a library entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		return lib.Remove(args[0])
	},
}

var libraryFavoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Mark or unmark a library entry as favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unset, _ := cmd.Flags().GetBool("unset")
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		return lib.MarkFavorite(args[0], !unset)
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryFavoriteCmd)

	libraryFavoriteCmd.Flags().Bool("unset", false, "Remove the favorite mark")
}
