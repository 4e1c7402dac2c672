package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/models"
)

// newShowGalleryCmd creates a new command for showing gallery details
func newShowGalleryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-gallery [stub]",
		Short: "Show videos in a specific gallery",
		Long:  `Show detailed information about videos in a specific gallery identified by its stub.`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := LoadConfig()
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

			gallery, err := a.Gallery.Gallery(ctx, args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				closeApp()
				os.Exit(1)
			}
			printGallery(os.Stdout, gallery)
		},
	}
}

// printGallery displays details about a specific gallery
func printGallery(w io.Writer, gallery models.Gallery) {
	fmt.Fprintf(w, "Gallery: %s\n", gallery.Name)
	fmt.Fprintf(w, "Category: %s\n", gallery.Category)
	fmt.Fprintf(w, "Videos: %d\n", len(gallery.Videos))
	fmt.Fprintln(w, "================")

	for i, video := range gallery.Videos {
		fmt.Fprintf(w, "%d. %s\n", i+1, video.Name)
		fmt.Fprintf(w, "   URL: %s\n", video.Url)
		if video.Thumbnail != nil {
			fmt.Fprintf(w, "   Thumbnail: %s\n", *video.Thumbnail)
		}
		fmt.Fprintln(w)
	}
}
