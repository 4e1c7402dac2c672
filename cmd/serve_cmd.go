package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"media-gallery/pkg/server"
)

// newServeCmd creates a new command for serving the web application
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the web server to serve the gallery content and the admin API via HTTP.`,
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

			cfg.PrintServerStartMessage()
			if err := server.Run(ctx, cfg.ServerAddress(), a.Handler(), a.Logger); err != nil {
				log.Printf("Server error: %v", err)
			}
		},
	}
}
