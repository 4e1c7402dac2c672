package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/ffmpeg"
	"media-gallery/pkg/models"
	"media-gallery/pkg/services"
	"media-gallery/pkg/storage"
)

// thumbnailOptions holds the generate-thumbnails flags
type thumbnailOptions struct {
	force     bool
	timeMs    int // Time in milliseconds where to extract the frame
	maxSizeMB int // Maximum video size in MB to process
	parallel  int
}

// newGenerateThumbnailsCmd creates a new command for generating thumbnails for videos
func newGenerateThumbnailsCmd() *cobra.Command {
	var opts thumbnailOptions

	cmd := &cobra.Command{
		Use:   "generate-thumbnails",
		Short: "Generate thumbnails for videos without existing thumbnails",
		Long:  `Generate thumbnails for videos that don't have existing thumbnails in the gallery.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Only BUCKET_NAME is needed here, SECRET_KEY may be unset
			cfg, err := LoadStorageConfig()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}

			ctx, stop := commandContext()
			defer stop()

			if err := ffmpeg.NewExtractor(cfg.FFmpegPath, nil).Check(ctx); err != nil {
				log.Fatalf("%v: %v", services.ErrToolUnavailable, err)
			}

			a, closeApp, err := openApp(ctx, cfg)
			if err != nil {
				log.Fatalf("Failed to initialize: %v", err)
			}
			defer closeApp()

			if err := generateThumbnails(ctx, os.Stdout, a.Store, a.Gallery, a.Thumbnails, opts); err != nil {
				log.Printf("Error: %v", err)
			}
		},
	}

	// Add command-specific flags
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Force regeneration of all thumbnails, even if they exist")
	cmd.Flags().IntVarP(&opts.timeMs, "time", "t", 1000, "Time in milliseconds where to extract the thumbnail frame")
	cmd.Flags().IntVarP(&opts.maxSizeMB, "max-size", "m", 1024, "Maximum video size in MB to process (0 means no limit)")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "j", services.DefaultBulkParallel, "Number of thumbnails to generate at the same time")

	return cmd
}

type videoLister interface {
	Videos(ctx context.Context) []models.Video
}

// thumbnailGenerator is the part of the thumbnail service the command drives
type thumbnailGenerator interface {
	BulkGenerate(ctx context.Context, videoKeys []string, timeMs, maxParallel int) services.BulkResult
}

// generateThumbnails creates thumbnails for videos that don't have them
func generateThumbnails(ctx context.Context, w io.Writer, store storage.ObjectStore, gallery videoLister, thumbnails thumbnailGenerator, opts thumbnailOptions) error {
	fmt.Fprintln(w, "Scanning bucket for videos without thumbnails...")

	missing := services.MissingThumbnails(gallery.Videos(ctx), opts.force)
	if len(missing) == 0 {
		fmt.Fprintln(w, "No videos need thumbnails")
		return nil
	}

	selected := missing
	if opts.maxSizeMB > 0 {
		objects, err := store.List(ctx)
		if err != nil {
			if len(objects) == 0 {
				return fmt.Errorf("failed to list objects: %w", err)
			}
			fmt.Fprintf(w, "Warning: listing incomplete, sizes of some videos are unknown: %v\n", err)
		}

		var skipped []skippedVideo
		selected, skipped = filterBySize(missing, objectSizes(objects), int64(opts.maxSizeMB)*1024*1024)
		for _, s := range skipped {
			fmt.Fprintf(w, "Skipping %s (%s exceeds %d MB)\n", s.key, formatSize(s.size), opts.maxSizeMB)
		}
	}

	fmt.Fprintf(w, "Generating %d thumbnails at %d ms with up to %d in parallel...\n", len(selected), opts.timeMs, opts.parallel)

	result := thumbnails.BulkGenerate(ctx, selected, opts.timeMs, opts.parallel)

	fmt.Fprintf(w, "\nThumbnail generation complete: %d succeeded, %d failed, %d skipped\n",
		result.Success, result.Failed, len(missing)-len(selected))
	return nil
}

type skippedVideo struct {
	key  string
	size int64
}

func objectSizes(objects []storage.ObjectInfo) map[string]int64 {
	sizes := make(map[string]int64, len(objects))
	for _, obj := range objects {
		sizes[obj.Key] = obj.Size
	}
	return sizes
}

// filterBySize splits keys into those at most maxBytes large and the rest.
// Keys with no known size are kept.
func filterBySize(keys []string, sizes map[string]int64, maxBytes int64) (selected []string, skipped []skippedVideo) {
	for _, key := range keys {
		if size, ok := sizes[key]; ok && size > maxBytes {
			skipped = append(skipped, skippedVideo{key: key, size: size})
			continue
		}
		selected = append(selected, key)
	}
	return selected, skipped
}

// formatSize formats a byte count in human-readable units
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
