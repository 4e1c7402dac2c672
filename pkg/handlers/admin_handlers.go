package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"media-gallery/pkg/progress"
	"media-gallery/pkg/services"
)

const defaultThumbnailTimeMs = 1000

type generateThumbnailRequest struct {
	VideoPath string `json:"videoPath"`
	TimeMs    *int   `json:"timeMs"`
}

type clearThumbnailRequest struct {
	ThumbnailPath string `json:"thumbnailPath"`
}

type bulkGenerateRequest struct {
	VideoPaths  []string `json:"videoPaths"`
	TimeMs      int      `json:"timeMs"`
	MaxParallel int      `json:"maxParallel"`
	Force       bool     `json:"force"`
}

type bulkClearRequest struct {
	ThumbnailPaths []string `json:"thumbnailPaths"`
}

// AdminHandler handles requests for the admin page
func (h *Handlers) AdminHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("generating admin page")

	h.render(w, "admin.pug", h.gallery.Admin(r.Context()))
}

// GenerateThumbnailHandler runs one thumbnail job and streams its progress.
// It takes videoPath and timeMs from the query string, or a JSON body on POST.
func (h *Handlers) GenerateThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	timeMs := defaultThumbnailTimeMs
	if req.TimeMs != nil {
		timeMs = *req.TimeMs
	}

	h.logger.Info("generating thumbnail", zap.String("video_key", req.VideoPath), zap.Int("time_ms", timeMs))

	ch := progress.New(eventBuffer)
	go func() {
		_ = h.thumbnails.Run(context.WithoutCancel(r.Context()), req.VideoPath, timeMs, ch)
	}()

	h.stream(w, r, ch)
}

func decodeGenerateRequest(r *http.Request) (generateThumbnailRequest, error) {
	var req generateThumbnailRequest

	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid request body")
		}
	} else {
		query := r.URL.Query()
		req.VideoPath = query.Get("videoPath")
		if raw := query.Get("timeMs"); raw != "" {
			timeMs, err := strconv.Atoi(raw)
			if err != nil {
				return req, errors.New("timeMs must be an integer")
			}
			req.TimeMs = &timeMs
		}
	}

	if req.VideoPath == "" {
		return req, errors.New("videoPath is required")
	}
	if req.TimeMs != nil && *req.TimeMs < 0 {
		return req, errors.New("timeMs must not be negative")
	}
	return req, nil
}

// ClearThumbnailHandler handles API requests to clear a single thumbnail
func (h *Handlers) ClearThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	var req clearThumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ThumbnailPath == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("clearing thumbnail", zap.String("key", req.ThumbnailPath))

	err := h.thumbnails.ClearThumbnail(context.WithoutCancel(r.Context()), req.ThumbnailPath)
	if errors.Is(err, services.ErrNotThumbnail) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to clear thumbnail", zap.String("key", req.ThumbnailPath), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BulkGenerateThumbnailsHandler generates thumbnails for the listed videos,
// or for every video missing one when the list is empty.
func (h *Handlers) BulkGenerateThumbnailsHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	videoPaths := req.VideoPaths
	if len(videoPaths) == 0 {
		videoPaths = h.gallery.MissingThumbnails(ctx, req.Force)
	}

	h.logger.Info("bulk generating thumbnails",
		zap.Int("videos", len(videoPaths)),
		zap.Int("time_ms", req.TimeMs),
		zap.Int("max_parallel", req.MaxParallel),
	)

	result := h.thumbnails.BulkGenerate(ctx, videoPaths, req.TimeMs, req.MaxParallel)
	writeJSON(w, http.StatusOK, result)
}

// BulkClearThumbnailsHandler handles API requests to clear many thumbnails
func (h *Handlers) BulkClearThumbnailsHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.logger.Info("bulk clearing thumbnails", zap.Int("thumbnails", len(req.ThumbnailPaths)))

	cleared := h.thumbnails.BulkClear(context.WithoutCancel(r.Context()), req.ThumbnailPaths)
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// FetchMoviePosterHandler stores a movie poster as the thumbnail of
// videoPath and streams progress. movieTitle defaults to the video name.
func (h *Handlers) FetchMoviePosterHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	videoPath := query.Get("videoPath")
	if videoPath == "" {
		http.Error(w, "Invalid request: videoPath is required", http.StatusBadRequest)
		return
	}

	title := query.Get("movieTitle")
	if title == "" {
		title = strings.TrimSuffix(path.Base(videoPath), path.Ext(videoPath))
	}

	h.logger.Info("fetching movie poster", zap.String("video_key", videoPath), zap.String("title", title))

	ch := progress.New(eventBuffer)
	go func() {
		_ = h.posters.Fetch(context.WithoutCancel(r.Context()), videoPath, title, ch)
	}()

	h.stream(w, r, ch)
}

// SearchMoviePosterHandler returns the posters matching movieTitle
func (h *Handlers) SearchMoviePosterHandler(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("movieTitle")
	if title == "" {
		http.Error(w, "Invalid request: movieTitle is required", http.StatusBadRequest)
		return
	}

	results, err := h.posters.Search(r.Context(), title)
	if err != nil {
		h.logger.Error("failed to search movie", zap.String("title", title), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, results)
}
