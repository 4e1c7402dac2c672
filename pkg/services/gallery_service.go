package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"media-gallery/pkg/config"
	"media-gallery/pkg/metrics"
	"media-gallery/pkg/models"
	"media-gallery/pkg/storage"
)

const videosCacheKey = "videos"

// ErrGalleryNotFound is returned when no gallery has the requested stub
var ErrGalleryNotFound = errors.New("gallery not found")

// snapshot is one aggregated index. It is replaced as a whole, never mutated.
type snapshot struct {
	videos          []models.Video
	galleries       []models.Gallery
	categories      []models.Category
	adminCategories []models.Category
	stubs           map[string]models.Gallery
	expiresAt       time.Time
}

// Service handles operations related to galleries and videos
type Service struct {
	aggregator *Aggregator
	secret     string
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger

	videoCache *cache.Cache
	mu         sync.RWMutex
	generation uint64
	refreshes  singleflight.Group
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the gallery service over store
func NewService(cfg *config.Config, store storage.ObjectStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		aggregator: NewAggregator(store, cfg.URLConcurrency, logger),
		secret:     cfg.SecretKey,
		ttl:        cfg.CacheTTL,
		now:        time.Now,
		logger:     logger,
		videoCache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Videos returns every aggregated video, including ones without a media object
func (s *Service) Videos(ctx context.Context) []models.Video {
	return s.index(ctx).videos
}

// Galleries returns all galleries of playable videos
func (s *Service) Galleries(ctx context.Context) []models.Gallery {
	return s.index(ctx).galleries
}

// Categories returns all categories with their galleries
func (s *Service) Categories(ctx context.Context) []models.Category {
	return s.index(ctx).categories
}

// Gallery returns a gallery by its stub
func (s *Service) Gallery(ctx context.Context, stub string) (models.Gallery, error) {
	gallery, ok := s.index(ctx).stubs[stub]
	if !ok {
		return models.Gallery{}, ErrGalleryNotFound
	}
	return gallery, nil
}

// Admin returns the admin view: every category including thumbnails that have
// no video next to them, plus those orphans listed separately. Entries with
// neither a video nor a thumbnail are never orphans.
func (s *Service) Admin(ctx context.Context) models.Admin {
	idx := s.index(ctx)

	var orphans []models.Video
	for _, video := range idx.videos {
		if !video.Playable() && video.ThumbnailKey != "" {
			orphans = append(orphans, video)
		}
	}

	return models.Admin{
		Categories: idx.adminCategories,
		Orphans:    orphans,
		SecretKey:  s.secret,
	}
}

// MissingThumbnails returns the keys of videos that need a thumbnail
func (s *Service) MissingThumbnails(ctx context.Context, force bool) []string {
	return MissingThumbnails(s.Videos(ctx), force)
}

// Invalidate drops the cached index so the next call re-aggregates. A refresh
// already in flight will not store its result.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.videoCache.Delete(videosCacheKey)
	s.mu.Unlock()

	metrics.CacheInvalidationsTotal.Inc()
	s.logger.Debug("index cache invalidated")
}

func (s *Service) index(ctx context.Context) *snapshot {
	s.mu.RLock()
	if cached, found := s.videoCache.Get(videosCacheKey); found {
		idx := cached.(*snapshot)
		if s.now().Before(idx.expiresAt) {
			s.mu.RUnlock()
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			s.logger.Debug("using cached videos")
			return idx
		}
	}
	generation := s.generation
	s.mu.RUnlock()

	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	// Callers missing in the same generation share one aggregation
	result, _, _ := s.refreshes.Do(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx), generation), nil
	})
	return result.(*snapshot)
}

func (s *Service) refresh(ctx context.Context, generation uint64) *snapshot {
	ctx, span := tracer.Start(ctx, "Service.refresh")
	defer span.End()

	s.logger.Info("getting videos")

	videos, err := s.aggregator.Videos(ctx)
	if err != nil {
		s.logger.Error("aggregation incomplete, caching partial index",
			zap.Int("videos", len(videos)),
			zap.Error(err),
		)
	}
	if videos == nil {
		videos = []models.Video{}
	}

	idx := buildIndex(videos, s.secret)
	idx.expiresAt = s.now().Add(s.ttl)
	span.SetAttributes(attribute.Int("galleries", len(idx.galleries)))

	s.mu.Lock()
	if s.generation == generation {
		s.videoCache.Set(videosCacheKey, idx, cache.DefaultExpiration)
	}
	s.mu.Unlock()

	return idx
}

func buildIndex(videos []models.Video, secret string) *snapshot {
	playable := make([]models.Video, 0, len(videos))
	for _, video := range videos {
		if video.Playable() {
			playable = append(playable, video)
		}
	}

	galleries := BuildGalleries(playable, secret)

	return &snapshot{
		videos:          videos,
		galleries:       galleries,
		categories:      BuildCategories(galleries),
		adminCategories: BuildCategories(BuildGalleries(videos, secret)),
		stubs:           StubIndex(galleries),
	}
}

// MissingThumbnails returns the media keys of videos without a thumbnail,
// or of every video when force is set.
func MissingThumbnails(videos []models.Video, force bool) []string {
	var keys []string
	for _, video := range videos {
		if video.MediaKey == "" {
			continue
		}
		if force || video.Thumbnail == nil {
			keys = append(keys, video.MediaKey)
		}
	}
	return keys
}
