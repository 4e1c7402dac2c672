package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/models"
)

// newListCategoriesCmd creates a new command for listing categories
func newListCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-categories",
		Short: "List all video categories",
		Long:  `List all video categories with the number of galleries in each.`,
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

			printCategories(os.Stdout, a.Gallery.Categories(ctx))
		},
	}
}

// printCategories displays all categories and their gallery counts
func printCategories(w io.Writer, categories []models.Category) {
	fmt.Fprintln(w, "Video Categories:")
	fmt.Fprintln(w, "================")

	for _, category := range categories {
		fmt.Fprintf(w, "%s\n", category.Name)
		fmt.Fprintf(w, "  Galleries: %d\n", len(category.Galleries))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d categories\n", len(categories))
}
