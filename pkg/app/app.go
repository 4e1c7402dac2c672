// Package app assembles the services from configuration. It is built once at
// process start and closed at shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"media-gallery/pkg/config"
	"media-gallery/pkg/ffmpeg"
	"media-gallery/pkg/handlers"
	"media-gallery/pkg/logger"
	"media-gallery/pkg/server"
	"media-gallery/pkg/services"
	"media-gallery/pkg/storage"
	"media-gallery/pkg/tracing"
)

const serviceName = "media-gallery"

// App holds the service graph
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      storage.ObjectStore
	Gallery    *services.Service
	Thumbnails *services.ThumbnailService
	Posters    *services.PosterService

	shutdownTracer func(context.Context) error
}

// New opens the configured bucket and wires every service to it
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	shutdownTracer, err := tracing.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		Bucket:      cfg.BucketName,
		URLLifetime: cfg.SignedURLTTL,
		MinIO: storage.MinIOOptions{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
		},
		S3Region:   cfg.AWSRegion,
		S3Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("failed to open %s bucket %q: %w", cfg.StorageBackend, cfg.BucketName, err)
	}

	return Assemble(cfg, store, log, shutdownTracer), nil
}

// Assemble wires the services over an already opened store
func Assemble(cfg *config.Config, store storage.ObjectStore, log *zap.Logger, shutdownTracer func(context.Context) error) *App {
	if shutdownTracer == nil {
		shutdownTracer = func(context.Context) error { return nil }
	}

	gallery := services.NewService(cfg, store, log)
	extractor := ffmpeg.NewExtractor(cfg.FFmpegPath, log)

	return &App{
		Config:         cfg,
		Logger:         log,
		Store:          store,
		Gallery:        gallery,
		Thumbnails:     services.NewThumbnailService(cfg, store, extractor, gallery, log),
		Posters:        services.NewPosterService(cfg, store, gallery, log),
		shutdownTracer: shutdownTracer,
	}
}

// Handler returns the HTTP router for the web server
func (a *App) Handler() http.Handler {
	h := handlers.New(a.Gallery, a.Thumbnails, a.Posters, a.Config.ViewsDir, a.Logger)
	return server.NewRouter(a.Config.SecretKey, a.Config.PublicDir, h, a.Logger)
}

// Close releases the bucket client and flushes traces and logs
func (a *App) Close(ctx context.Context) error {
	err := errors.Join(
		a.Store.Close(),
		a.shutdownTracer(ctx),
	)
	_ = a.Logger.Sync()
	return err
}
