package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"media-gallery/pkg/config"
	"media-gallery/pkg/metrics"
	"media-gallery/pkg/progress"
	"media-gallery/pkg/storage"
)

// DefaultBulkParallel is used when a bulk request does not ask for a parallelism
const DefaultBulkParallel = 3

var (
	// ErrToolUnavailable is returned when the frame extraction tool cannot run
	ErrToolUnavailable = errors.New("FFmpeg is required but not found")
	// ErrNotVideo is returned when a thumbnail is requested for a non-video key
	ErrNotVideo = errors.New("not a video key")
	// ErrNotThumbnail is returned when clearing a key that is not an image
	ErrNotThumbnail = errors.New("not a thumbnail key")
)

// FrameExtractor grabs a single frame from a local video file
type FrameExtractor interface {
	Check(ctx context.Context) error
	ExtractFrame(ctx context.Context, videoPath, outputPath string, timeMs int) error
}

// Invalidator drops cached listings after the bucket changed
type Invalidator interface {
	Invalidate()
}

// BulkResult tallies a bulk generation
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// ThumbnailService generates and clears video thumbnails
type ThumbnailService struct {
	store       storage.ObjectStore
	extractor   FrameExtractor
	cache       Invalidator
	scratchDir  string
	validate    bool
	maxParallel int
	logger      *zap.Logger
}

// NewThumbnailService wires the pipeline to its collaborators
func NewThumbnailService(cfg *config.Config, store storage.ObjectStore, extractor FrameExtractor, cache Invalidator, logger *zap.Logger) *ThumbnailService {
	maxParallel := cfg.BulkMaxParallel
	if maxParallel <= 0 {
		maxParallel = 10
	}
	return &ThumbnailService{
		store:       store,
		extractor:   extractor,
		cache:       cache,
		scratchDir:  cfg.ScratchDir,
		validate:    cfg.ValidateThumbnail,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// GenerateThumbnail generates a thumbnail for a specific video
func (s *ThumbnailService) GenerateThumbnail(ctx context.Context, videoKey string, timeMs int) error {
	return s.Run(ctx, videoKey, timeMs, nil)
}

// Run generates the thumbnail for videoKey from the frame at timeMs, reporting
// each step on ch and ending it with exactly one terminal event. The index
// cache is invalidated before the terminal event, whatever the outcome.
func (s *ThumbnailService) Run(ctx context.Context, videoKey string, timeMs int, ch *progress.Channel) error {
	err := s.execute(ctx, videoKey, timeMs, ch)
	if err == nil {
		ch.Step("Refreshing index", 95)
	}
	s.cache.Invalidate()
	ch.Finish(err)
	return err
}

func (s *ThumbnailService) execute(ctx context.Context, videoKey string, timeMs int, ch *progress.Channel) (err error) {
	ctx, span := tracer.Start(ctx, "ThumbnailService.execute", trace.WithAttributes(
		attribute.String("video_key", videoKey),
		attribute.Int("time_ms", timeMs),
	))
	defer span.End()

	logger := s.logger.With(zap.String("job_id", uuid.NewString()), zap.String("video_key", videoKey))
	start := time.Now()
	metrics.ActiveThumbnailJobs.Inc()
	defer func() {
		metrics.ActiveThumbnailJobs.Dec()
		metrics.ThumbnailJobDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			metrics.ThumbnailJobsTotal.WithLabelValues("failed").Inc()
			logger.Error("thumbnail generation failed", zap.Error(err))
			return
		}
		metrics.ThumbnailJobsTotal.WithLabelValues("completed").Inc()
		logger.Info("thumbnail generated", zap.Duration("took", time.Since(start)))
	}()

	if !IsVideoKey(videoKey) {
		return fmt.Errorf("%w: %s", ErrNotVideo, videoKey)
	}

	ch.Step("Checking FFmpeg", 5)
	if err := s.extractor.Check(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	ch.Step("Setting up directories", 10)
	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	thumbnailKey := ThumbnailKey(videoKey)

	ch.Step("Clearing old thumbnail", 20)
	if err := s.store.Delete(ctx, thumbnailKey); err != nil {
		logger.Warn("could not clear old thumbnail", zap.String("thumbnail_key", thumbnailKey), zap.Error(err))
	}

	ch.Step("Downloading video", 30)
	video := newScratchFile(s.scratchDir, videoKey)
	defer releaseScratch(video, logger)
	if err := s.store.Download(ctx, videoKey, video.Path()); err != nil {
		return fmt.Errorf("error downloading video: %w", err)
	}

	ch.Step("Generating thumbnail", 60)
	thumbnail := newScratchFile(s.scratchDir, thumbnailKey)
	defer releaseScratch(thumbnail, logger)
	if err := s.extractor.ExtractFrame(ctx, video.Path(), thumbnail.Path(), timeMs); err != nil {
		return fmt.Errorf("error creating thumbnail: %w", err)
	}

	if s.validate {
		ch.Step("Validating thumbnail", 75)
		if err := validateThumbnail(thumbnail.Path()); err != nil {
			return fmt.Errorf("thumbnail validation failed: %w", err)
		}
	}

	ch.Step("Uploading thumbnail", 80)
	if err := uploadFile(ctx, s.store, thumbnail.Path(), thumbnailKey); err != nil {
		return fmt.Errorf("error uploading thumbnail: %w", err)
	}

	return nil
}

func uploadFile(ctx context.Context, store storage.ObjectStore, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	return store.Upload(ctx, key, f, info.Size(), thumbnailContentType)
}

func releaseScratch(f *scratchFile, logger *zap.Logger) {
	if err := f.Release(); err != nil {
		logger.Warn("scratch cleanup failed", zap.String("path", f.Path()), zap.Error(err))
	}
}

// BulkGenerate runs one pipeline per key with at most
// min(maxParallel, BULK_MAX_PARALLEL) jobs at a time. A failing job never
// stops the others. The index cache is invalidated once at the end.
func (s *ThumbnailService) BulkGenerate(ctx context.Context, videoKeys []string, timeMs, maxParallel int) BulkResult {
	limit := maxParallel
	if limit <= 0 {
		limit = DefaultBulkParallel
	}
	if limit > s.maxParallel {
		limit = s.maxParallel
	}

	s.logger.Info("bulk thumbnail generation started",
		zap.Int("videos", len(videoKeys)),
		zap.Int("parallel", limit),
	)

	var success, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(limit)
	for _, key := range videoKeys {
		g.Go(func() error {
			if err := s.execute(ctx, key, timeMs, nil); err != nil {
				failed.Add(1)
				return nil
			}
			success.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	s.cache.Invalidate()

	result := BulkResult{Success: int(success.Load()), Failed: int(failed.Load())}
	s.logger.Info("bulk thumbnail generation finished",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result
}

// ClearThumbnail removes a thumbnail from storage. A video key is mapped to
// its thumbnail key first.
func (s *ThumbnailService) ClearThumbnail(ctx context.Context, key string) error {
	if err := s.clear(ctx, key); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// BulkClear deletes each thumbnail and returns how many were removed.
// The index cache is invalidated once at the end.
func (s *ThumbnailService) BulkClear(ctx context.Context, keys []string) int {
	var cleared atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.clear(ctx, key); err != nil {
				s.logger.Warn("error deleting thumbnail", zap.String("key", key), zap.Error(err))
				return nil
			}
			cleared.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	s.cache.Invalidate()
	return int(cleared.Load())
}

func (s *ThumbnailService) clear(ctx context.Context, key string) error {
	thumbnailKey := key
	if IsVideoKey(key) {
		thumbnailKey = ThumbnailKey(key)
	}
	if !IsImageKey(thumbnailKey) {
		return fmt.Errorf("%w: %s", ErrNotThumbnail, key)
	}

	if err := s.store.Delete(ctx, thumbnailKey); err != nil {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}

	metrics.ThumbnailsClearedTotal.Inc()
	return nil
}
