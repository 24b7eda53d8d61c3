package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"musicbox/services"
	"musicbox/types"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func scanCmd(opts *rootOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Print the albums found in a music directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cfg.MusicDir
			if len(args) == 1 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("workers") {
				workers = opts.cfg.ScanWorkers
			}

			root, err := services.ValidateLibraryRoot(dir)
			if err != nil {
				return err
			}

			albums, err := scanAlbums(cmd.Context(), services.NewFileService(workers), root, os.Stderr)
			if err != nil {
				return err
			}
			printAlbums(cmd.OutOrStdout(), albums)
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Files read in parallel")

	return cmd
}

// scanAlbums reads the library showing a spinner on progress
func scanAlbums(ctx context.Context, files services.FileService, root string, progress io.Writer) ([]types.Album, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Scanning "+root),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	var songs []types.Song
	for song := range files.ScanSongs(ctx, root) {
		songs = append(songs, song)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(songs, func(i, j int) bool {
		return songs[i].Path < songs[j].Path
	})
	return services.GroupAlbums(songs), nil
}

func printAlbums(w io.Writer, albums []types.Album) {
	total := 0
	for _, album := range albums {
		fmt.Fprintf(w, "%s - %s\n", album.Artist, album.Title)
		for _, song := range album.Songs {
			fmt.Fprintf(w, "  %2d. %s (%d:%02d)\n", song.TrackNumber, song.Title, song.Duration/60, song.Duration%60)
		}
		total += len(album.Songs)
	}
	fmt.Fprintf(w, "%d albums, %d songs\n", len(albums), total)
}
