package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"media-gallery/pkg/config"
	"media-gallery/pkg/progress"
	"media-gallery/pkg/storage"
)

const (
	tmdbSearchURL = "https://api.themoviedb.org/3/search/movie"
	tmdbImageBase = "https://image.tmdb.org/t/p/"
)

var (
	// ErrMissingAPIKey is returned when TMDB_API_KEY is not configured
	ErrMissingAPIKey = errors.New("TMDB_API_KEY environment variable not set")
	// ErrPosterNotFound is returned when the search yields no usable poster
	ErrPosterNotFound = errors.New("no poster found")
)

type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
}

type tmdbSearchResult struct {
	Results []tmdbMovie `json:"results"`
}

// MoviePosterResult represents a movie poster search result
type MoviePosterResult struct {
	Title        string `json:"title"`
	Year         string `json:"year"`
	PosterURL    string `json:"posterUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// PosterService uses TMDb movie posters as video thumbnails
type PosterService struct {
	apiKey     string
	searchURL  string
	imageBase  string
	client     *http.Client
	store      storage.ObjectStore
	cache      Invalidator
	scratchDir string
	logger     *zap.Logger
}

// PosterOption customizes a PosterService
type PosterOption func(*PosterService)

// WithTMDbEndpoints points the service at another search endpoint and image host
func WithTMDbEndpoints(searchURL, imageBase string) PosterOption {
	return func(s *PosterService) {
		s.searchURL = searchURL
		s.imageBase = imageBase
	}
}

// NewPosterService creates the poster service
func NewPosterService(cfg *config.Config, store storage.ObjectStore, cache Invalidator, logger *zap.Logger, opts ...PosterOption) *PosterService {
	s := &PosterService{
		apiKey:    cfg.TMDbAPIKey,
		searchURL: tmdbSearchURL,
		imageBase: tmdbImageBase,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		store:      store,
		cache:      cache,
		scratchDir: cfg.ScratchDir,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns every result of a title search that has a poster
func (s *PosterService) Search(ctx context.Context, title string) ([]MoviePosterResult, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	movies, err := s.search(ctx, cleanMovieTitle(title))
	if err != nil {
		return nil, err
	}

	posters := []MoviePosterResult{}
	for _, movie := range movies {
		if movie.PosterPath == nil || *movie.PosterPath == "" {
			continue
		}
		posters = append(posters, MoviePosterResult{
			Title:        movie.Title,
			Year:         extractYear(movie.ReleaseDate),
			PosterURL:    s.imageBase + "w500" + *movie.PosterPath,
			ThumbnailURL: s.imageBase + "w185" + *movie.PosterPath,
		})
	}

	return posters, nil
}

// Fetch finds the poster best matching title and stores it as the thumbnail
// of videoKey, reporting progress on ch like a thumbnail job.
func (s *PosterService) Fetch(ctx context.Context, videoKey, title string, ch *progress.Channel) error {
	err := s.fetch(ctx, videoKey, title, ch)
	if err == nil {
		ch.Step("Refreshing index", 95)
		s.logger.Info("fetched movie poster", zap.String("video_key", videoKey), zap.String("title", title))
	} else {
		s.logger.Error("movie poster fetch failed", zap.String("video_key", videoKey), zap.Error(err))
	}
	s.cache.Invalidate()
	ch.Finish(err)
	return err
}

func (s *PosterService) fetch(ctx context.Context, videoKey, title string, ch *progress.Channel) error {
	ctx, span := tracer.Start(ctx, "PosterService.fetch")
	defer span.End()

	if !IsVideoKey(videoKey) {
		return fmt.Errorf("%w: %s", ErrNotVideo, videoKey)
	}

	ch.Step("Getting API key", 5)
	if s.apiKey == "" {
		return ErrMissingAPIKey
	}

	ch.Step("Searching for movie", 15)
	cleanTitle := cleanMovieTitle(title)
	movies, err := s.search(ctx, cleanTitle)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return fmt.Errorf("%w: no movie found for title: %s", ErrPosterNotFound, title)
	}

	movie := findBestMatch(movies, cleanTitle)
	if movie.PosterPath == nil || *movie.PosterPath == "" {
		return fmt.Errorf("%w: no poster available for: %s", ErrPosterNotFound, title)
	}

	ch.Step("Downloading poster", 40)
	resp, err := s.get(ctx, s.imageBase+"w500"+*movie.PosterPath)
	if err != nil {
		return fmt.Errorf("failed to download poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download poster (status %d)", resp.StatusCode)
	}

	ch.Step("Saving poster", 70)
	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	thumbnailKey := ThumbnailKey(videoKey)
	poster := newScratchFile(s.scratchDir, thumbnailKey)
	defer releaseScratch(poster, s.logger)

	if err := saveBody(poster.Path(), resp.Body); err != nil {
		return err
	}

	ch.Step("Uploading to storage", 85)
	if err := s.store.Delete(ctx, thumbnailKey); err != nil {
		s.logger.Warn("could not clear old thumbnail", zap.String("thumbnail_key", thumbnailKey), zap.Error(err))
	}
	if err := uploadFile(ctx, s.store, poster.Path(), thumbnailKey); err != nil {
		return fmt.Errorf("error uploading poster: %w", err)
	}

	return nil
}

func (s *PosterService) search(ctx context.Context, title string) ([]tmdbMovie, error) {
	query := url.Values{}
	query.Set("api_key", s.apiKey)
	query.Set("query", title)

	resp, err := s.get(ctx, s.searchURL+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search movie: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TMDb API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result tmdbSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}

	return result.Results, nil
}

func (s *PosterService) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

func saveBody(dst string, body io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("failed to save poster: %w", err)
	}
	return f.Close()
}

func extractYear(releaseDate string) string {
	if len(releaseDate) >= 4 {
		return releaseDate[:4]
	}
	return ""
}

// findBestMatch prefers a case-insensitive exact title, then a title that
// contains the search, then the first result.
func findBestMatch(results []tmdbMovie, searchTitle string) tmdbMovie {
	searchLower := strings.ToLower(searchTitle)

	for _, movie := range results {
		if strings.ToLower(movie.Title) == searchLower {
			return movie
		}
	}

	for _, movie := range results {
		if strings.Contains(strings.ToLower(movie.Title), searchLower) {
			return movie
		}
	}

	return results[0]
}

// cleanMovieTitle removes common metadata from movie titles for better search results
// Examples: "Empire Strikes Back (Despecialized v2 0)" -> "Empire Strikes Back"
func cleanMovieTitle(title string) string {
	if idx := strings.Index(title, "("); idx != -1 {
		title = title[:idx]
	}

	if idx := strings.Index(title, "["); idx != -1 {
		title = title[:idx]
	}

	return strings.TrimSpace(title)
}
