package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/eknkc/pug"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"media-gallery/pkg/models"
	"media-gallery/pkg/progress"
	"media-gallery/pkg/services"
)

// GalleryService is the read side of the media index
type GalleryService interface {
	Categories(ctx context.Context) []models.Category
	Galleries(ctx context.Context) []models.Gallery
	Gallery(ctx context.Context, stub string) (models.Gallery, error)
	Admin(ctx context.Context) models.Admin
	MissingThumbnails(ctx context.Context, force bool) []string
}

// ThumbnailService runs thumbnail jobs
type ThumbnailService interface {
	Run(ctx context.Context, videoKey string, timeMs int, ch *progress.Channel) error
	ClearThumbnail(ctx context.Context, key string) error
	BulkGenerate(ctx context.Context, videoKeys []string, timeMs, maxParallel int) services.BulkResult
	BulkClear(ctx context.Context, keys []string) int
}

// PosterService looks up movie posters
type PosterService interface {
	Search(ctx context.Context, title string) ([]services.MoviePosterResult, error)
	Fetch(ctx context.Context, videoKey, title string, ch *progress.Channel) error
}

// Handlers serves the gallery pages and the admin API
type Handlers struct {
	gallery    GalleryService
	thumbnails ThumbnailService
	posters    PosterService
	viewsDir   string
	logger     *zap.Logger
}

// New creates the HTTP handlers. Templates are read from viewsDir.
func New(gallery GalleryService, thumbnails ThumbnailService, posters PosterService, viewsDir string, logger *zap.Logger) *Handlers {
	return &Handlers{
		gallery:    gallery,
		thumbnails: thumbnails,
		posters:    posters,
		viewsDir:   viewsDir,
		logger:     logger,
	}
}

// GalleryHandler handles requests for the gallery index page
func (h *Handlers) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("generating index")

	h.render(w, "index.pug", models.Index{
		Categories: h.gallery.Categories(r.Context()),
	})
}

// FeedHandler handles requests for the gallery feed (JSON)
func (h *Handlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("generating feed")

	writeJSON(w, http.StatusOK, h.gallery.Galleries(r.Context()))
}

// PageHandler handles requests for individual gallery pages
func (h *Handlers) PageHandler(w http.ResponseWriter, r *http.Request) {
	stub := mux.Vars(r)["stub"]

	gallery, err := h.gallery.Gallery(r.Context(), stub)
	if errors.Is(err, services.ErrGalleryNotFound) {
		h.logger.Info("gallery not found", zap.String("stub", stub))
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("gallery lookup failed", zap.String("stub", stub), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("generating gallery page", zap.String("gallery", gallery.Name))
	h.render(w, "gallery.pug", gallery)
}

func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	template, err := pug.CompileFile(filepath.Join(h.viewsDir, name), pug.Options{})
	if err != nil {
		h.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := template.Execute(&buf, data); err != nil {
		h.logger.Error("template execution error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
