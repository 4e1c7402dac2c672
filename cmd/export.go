package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"media-gallery/pkg/models"
)

// newExportCmd creates a new command for exporting gallery data
func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [format]",
		Short: "Export gallery data",
		Long:  `Export all gallery data in the specified format. Currently supported formats: json.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			format := "json"
			if len(args) > 0 {
				format = args[0]
			}
			if format != "json" {
				fmt.Printf("Unsupported export format: %s\n", format)
				fmt.Println("Supported formats: json")
				os.Exit(1)
			}

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

			if err := exportJSON(os.Stdout, a.Gallery.Categories(ctx)); err != nil {
				log.Printf("Error exporting data: %v", err)
			}
		},
	}
}

// exportJSON writes the categories in feed order as indented JSON
func exportJSON(w io.Writer, categories []models.Category) error {
	if categories == nil {
		categories = []models.Category{}
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
