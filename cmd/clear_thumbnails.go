package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/models"
)

// newClearThumbnailsCmd creates a new command for deleting thumbnails
func newClearThumbnailsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear-thumbnails [key...]",
		Short: "Delete thumbnails from the bucket",
		Long: `Delete the given thumbnails from the bucket. A video key deletes the thumbnail of that video.
With --all every thumbnail in the gallery is deleted.`,
		Run: func(cmd *cobra.Command, args []string) {
			if !all && len(args) == 0 {
				log.Fatalf("Pass at least one key or --all")
			}

			cfg, err := LoadStorageConfig()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}

			ctx, stop := commandContext()
			defer stop()

			a, closeApp, err := openApp(ctx, cfg)
			if err != nil {
				log.Fatalf("Failed to initialize: %v", err)
			}
			defer closeApp()

			keys := args
			if all {
				keys = thumbnailKeys(a.Gallery.Videos(ctx))
			}
			clearThumbnails(ctx, os.Stdout, a.Thumbnails, keys)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Delete every thumbnail in the gallery")

	return cmd
}

type thumbnailClearer interface {
	BulkClear(ctx context.Context, keys []string) int
}

// thumbnailKeys returns the keys of every existing thumbnail
func thumbnailKeys(videos []models.Video) []string {
	var keys []string
	for _, video := range videos {
		if video.ThumbnailKey != "" {
			keys = append(keys, video.ThumbnailKey)
		}
	}
	return keys
}

func clearThumbnails(ctx context.Context, w io.Writer, thumbnails thumbnailClearer, keys []string) {
	if len(keys) == 0 {
		fmt.Fprintln(w, "No thumbnails to clear")
		return
	}

	cleared := thumbnails.BulkClear(ctx, keys)
	fmt.Fprintf(w, "Cleared %d of %d thumbnails\n", cleared, len(keys))
}
