package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/models"
)

// newListGalleriesCmd creates a new command for listing galleries
func newListGalleriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-galleries",
		Short: "List all galleries",
		Long:  `List all galleries organized by category with the number of videos and the stub of each.`,
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

			printGalleries(os.Stdout, a.Gallery.Categories(ctx))
		},
	}
}

// printGalleries displays all galleries grouped by category
func printGalleries(w io.Writer, categories []models.Category) {
	totalGalleries := 0

	fmt.Fprintln(w, "Video Galleries:")
	fmt.Fprintln(w, "===============")

	for _, category := range categories {
		fmt.Fprintf(w, "Category: %s\n", category.Name)

		for _, gallery := range category.Galleries {
			fmt.Fprintf(w, "  - %s (videos: %d)\n", gallery.Name, len(gallery.Videos))
			fmt.Fprintf(w, "    Stub: %s\n", gallery.Stub)
			fmt.Fprintf(w, "    Link: %s\n", gallery.Link())
			totalGalleries++
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d galleries across %d categories\n", totalGalleries, len(categories))
}
