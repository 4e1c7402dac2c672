package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-gallery/pkg/app"
	"media-gallery/pkg/config"
)

// Configuration flags
var (
	secretKey      string
	bucketName     string
	portNumber     string
	storageBackend string
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "media-gallery",
		Short: "Media Gallery is a tool for managing and displaying video galleries",
		Long: `Media Gallery is a command line application that can display and manage video galleries
stored in an object storage bucket (GCS, S3 or MinIO). It can also serve these galleries via a web
interface and generate thumbnails for the videos.`,
		SilenceUsage: true,
	}

	// Define persistent flags that will be available for all commands
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "s", "", "Set the SECRET_KEY (overrides environment variable)")
	rootCmd.PersistentFlags().StringVarP(&bucketName, "bucket", "b", "", "Set the BUCKET_NAME (overrides environment variable)")
	rootCmd.PersistentFlags().StringVarP(&portNumber, "port", "p", "", "Set the PORT (overrides environment variable)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "Set the STORAGE_BACKEND: gcs, s3 or minio (overrides environment variable)")

	// Add commands to root
	rootCmd.AddCommand(newListCategoriesCmd())
	rootCmd.AddCommand(newListGalleriesCmd())
	rootCmd.AddCommand(newShowGalleryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateThumbnailsCmd())
	rootCmd.AddCommand(newClearThumbnailsCmd())

	return rootCmd
}

// applyFlags exports the flag overrides as environment variables
func applyFlags() {
	overrides := map[string]string{
		"SECRET_KEY":      secretKey,
		"BUCKET_NAME":     bucketName,
		"PORT":            portNumber,
		"STORAGE_BACKEND": storageBackend,
	}
	for name, value := range overrides {
		if value != "" {
			os.Setenv(name, value)
		}
	}
}

// LoadConfig loads configuration with respect to command line flags
func LoadConfig() (*config.Config, error) {
	applyFlags()
	return config.Load()
}

// LoadStorageConfig loads configuration for commands that only need the
// bucket, so SECRET_KEY may be unset
func LoadStorageConfig() (*config.Config, error) {
	applyFlags()
	return config.LoadStorageOnly()
}

// commandContext is cancelled on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openApp wires the services for cfg and returns a closer for deferred use
func openApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		_ = a.Close(context.Background())
	}, nil
}
