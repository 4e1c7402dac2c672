// Package server builds the HTTP router and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"media-gallery/pkg/handlers"
)

const shutdownTimeout = 10 * time.Second

// NewRouter registers every route. Index, feed and admin routes live under
// the secret prefix; their templates use a {secret} placeholder so traces and
// logs never carry the secret itself.
func NewRouter(secretKey, publicDir string, h *handlers.Handlers, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.Handle("/gallery/{stub}", traced("GET /gallery/{stub}", h.PageHandler)).Methods(http.MethodGet)

	prefix := "/" + secretKey + "/"
	secret := router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return strings.HasPrefix(r.URL.Path, prefix)
	}).Subrouter()

	secret.Handle("/{secret}/index", traced("GET /{secret}/index", h.GalleryHandler)).Methods(http.MethodGet)
	secret.Handle("/{secret}/feed", traced("GET /{secret}/feed", h.FeedHandler)).Methods(http.MethodGet)
	secret.Handle("/{secret}/admin", traced("GET /{secret}/admin", h.AdminHandler)).Methods(http.MethodGet)

	api := secret.PathPrefix("/{secret}/admin/api").Subrouter()
	api.Handle("/generate-thumbnail", traced("/{secret}/admin/api/generate-thumbnail", h.GenerateThumbnailHandler)).
		Methods(http.MethodGet, http.MethodPost)
	api.Handle("/clear-thumbnail", traced("POST /{secret}/admin/api/clear-thumbnail", h.ClearThumbnailHandler)).
		Methods(http.MethodPost)
	api.Handle("/bulk-generate-thumbnails", traced("POST /{secret}/admin/api/bulk-generate-thumbnails", h.BulkGenerateThumbnailsHandler)).
		Methods(http.MethodPost)
	api.Handle("/bulk-clear-thumbnails", traced("POST /{secret}/admin/api/bulk-clear-thumbnails", h.BulkClearThumbnailsHandler)).
		Methods(http.MethodPost)
	api.Handle("/fetch-movie-poster", traced("GET /{secret}/admin/api/fetch-movie-poster", h.FetchMoviePosterHandler)).
		Methods(http.MethodGet)
	api.Handle("/search-movie-poster", traced("GET /{secret}/admin/api/search-movie-poster", h.SearchMoviePosterHandler)).
		Methods(http.MethodGet)

	router.PathPrefix("/").Handler(http.FileServer(http.Dir(publicDir)))

	return router
}

func traced(operation string, fn http.HandlerFunc) http.Handler {
	return otelhttp.NewHandler(fn, operation)
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: progress streams stay open for the whole job
	}

	logger.Info("server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
