package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"media-gallery/pkg/metrics"
	"media-gallery/pkg/models"
	"media-gallery/pkg/storage"
)

// Allowed Extensions
var (
	videoExtensions = []string{".mp4", ".m4v", ".webm", ".mov", ".avi"}
	imageExtensions = []string{".jpg", ".jpeg", ".png"}
)

const (
	thumbnailExtension   = ".jpg"
	thumbnailContentType = "image/jpeg"

	// stubLength is the number of base64url characters kept from the gallery HMAC
	stubLength = 8

	defaultURLConcurrency = 50
)

var tracer = otel.Tracer("media-gallery/services")

// IsVideoKey reports whether the key ends in a recognized video extension
func IsVideoKey(key string) bool {
	return hasAnySuffix(key, videoExtensions)
}

// IsImageKey reports whether the key ends in a recognized image extension
func IsImageKey(key string) bool {
	return hasAnySuffix(key, imageExtensions)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, ext := range suffixes {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

// ThumbnailKey maps a video key to its thumbnail key by replacing the
// filename extension: "C/G/clip.01.mp4" -> "C/G/clip.01.jpg".
func ThumbnailKey(videoKey string) string {
	return strings.TrimSuffix(videoKey, path.Ext(videoKey)) + thumbnailExtension
}

// GalleryStub derives the opaque address of a gallery from its category, its
// name and the server secret. Same-named galleries in different categories get
// different stubs.
func GalleryStub(category, name, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(category + "/" + name))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))[:stubLength]
}

// splitKey splits "category/gallery/filename", rejecting anything else
func splitKey(key string) (category, gallery, filename string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// stripExtension removes everything from the last dot
func stripExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx != -1 {
		return filename[:idx]
	}
	return filename
}

type mergeKey struct {
	category string
	gallery  string
	base     string
}

type indexedObject struct {
	key      string
	category string
	gallery  string
	filename string
	isVideo  bool
	isImage  bool
}

// Aggregator turns a flat bucket listing into the video index
type Aggregator struct {
	store       storage.ObjectStore
	concurrency int
	logger      *zap.Logger
}

// NewAggregator resolves URLs with at most concurrency requests in flight
func NewAggregator(store storage.ObjectStore, concurrency int, logger *zap.Logger) *Aggregator {
	if concurrency <= 0 {
		concurrency = defaultURLConcurrency
	}
	return &Aggregator{store: store, concurrency: concurrency, logger: logger}
}

// Videos lists the bucket and merges video and thumbnail objects into
// naturally ordered videos. A listing error is returned alongside whatever
// was gathered before it happened.
func (a *Aggregator) Videos(ctx context.Context) ([]models.Video, error) {
	ctx, span := tracer.Start(ctx, "Aggregator.Videos")
	defer span.End()

	start := time.Now()
	defer func() { metrics.AggregationDuration.Observe(time.Since(start).Seconds()) }()

	objects, listErr := a.store.List(ctx)
	if listErr != nil {
		metrics.ListingErrorsTotal.Inc()
		span.RecordError(listErr)
		a.logger.Warn("bucket listing incomplete",
			zap.Int("objects", len(objects)),
			zap.Error(listErr),
		)
	}
	metrics.IndexedObjects.Set(float64(len(objects)))

	var indexed []indexedObject
	for _, obj := range objects {
		category, gallery, filename, ok := splitKey(obj.Key)
		if !ok {
			continue
		}
		indexed = append(indexed, indexedObject{
			key:      obj.Key,
			category: category,
			gallery:  gallery,
			filename: filename,
			isVideo:  IsVideoKey(filename),
			isImage:  IsImageKey(filename),
		})
	}

	urls := a.resolveURLs(ctx, indexed)

	videosMap := make(map[mergeKey]*models.Video)
	for i, obj := range indexed {
		recognized := obj.isVideo || obj.isImage
		if recognized && urls[i] == "" {
			continue
		}

		mk := mergeKey{category: obj.category, gallery: obj.gallery, base: stripExtension(obj.filename)}
		video, ok := videosMap[mk]
		if !ok {
			video = &models.Video{
				Name:     mk.base,
				Category: mk.category,
				Gallery:  mk.gallery,
			}
			videosMap[mk] = video
		}

		if obj.isVideo {
			video.Url = urls[i]
			video.MediaKey = obj.key
		}
		if obj.isImage {
			thumbnail := urls[i]
			video.Thumbnail = &thumbnail
			video.ThumbnailKey = obj.key
		}
	}

	videos := make([]models.Video, 0, len(videosMap))
	for _, video := range videosMap {
		videos = append(videos, *video)
	}
	sortVideos(videos)

	span.SetAttributes(
		attribute.Int("objects", len(objects)),
		attribute.Int("videos", len(videos)),
	)

	if listErr != nil {
		return videos, fmt.Errorf("list bucket: %w", listErr)
	}
	return videos, nil
}

// resolveURLs returns one URL per object, empty where resolution failed or
// the object has no recognized extension.
func (a *Aggregator) resolveURLs(ctx context.Context, objects []indexedObject) []string {
	urls := make([]string, len(objects))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, obj := range objects {
		if !obj.isVideo && !obj.isImage {
			continue
		}
		g.Go(func() error {
			u, err := a.store.URL(ctx, obj.key)
			if err != nil {
				metrics.URLResolutionFailuresTotal.Inc()
				a.logger.Warn("failed to resolve access URL", zap.String("key", obj.key), zap.Error(err))
				return nil
			}
			urls[i] = u
			return nil
		})
	}
	_ = g.Wait()

	return urls
}

func sortVideos(videos []models.Video) {
	sort.Slice(videos, func(i, j int) bool {
		if c := naturalCompare(videos[i].Name, videos[j].Name); c != 0 {
			return c < 0
		}
		if c := naturalCompare(videos[i].Category, videos[j].Category); c != 0 {
			return c < 0
		}
		return naturalLess(videos[i].Gallery, videos[j].Gallery)
	})
}

// BuildGalleries groups naturally ordered videos into galleries keyed by
// (category, gallery) and sorts the result by name.
func BuildGalleries(videos []models.Video, secret string) []models.Gallery {
	type galleryKey struct{ category, name string }

	galleryMap := make(map[galleryKey]*models.Gallery)
	for _, video := range videos {
		key := galleryKey{category: video.Category, name: video.Gallery}
		if g, exists := galleryMap[key]; exists {
			g.Videos = append(g.Videos, video)
			continue
		}
		galleryMap[key] = &models.Gallery{
			Name:     video.Gallery,
			Category: video.Category,
			Stub:     GalleryStub(video.Category, video.Gallery, secret),
			Videos:   []models.Video{video},
		}
	}

	galleries := make([]models.Gallery, 0, len(galleryMap))
	for _, gallery := range galleryMap {
		galleries = append(galleries, *gallery)
	}

	sort.Slice(galleries, func(i, j int) bool {
		if c := naturalCompare(galleries[i].Name, galleries[j].Name); c != 0 {
			return c < 0
		}
		return naturalLess(galleries[i].Category, galleries[j].Category)
	})

	return galleries
}

// BuildCategories groups galleries by category, keeping gallery order
func BuildCategories(galleries []models.Gallery) []models.Category {
	categoryMap := make(map[string]*models.Category)
	for _, gallery := range galleries {
		if cat, exists := categoryMap[gallery.Category]; exists {
			cat.Galleries = append(cat.Galleries, gallery)
			continue
		}
		categoryMap[gallery.Category] = &models.Category{
			Name:      gallery.Category,
			Stub:      gallery.Category,
			Galleries: []models.Gallery{gallery},
		}
	}

	categories := make([]models.Category, 0, len(categoryMap))
	for _, category := range categoryMap {
		categories = append(categories, *category)
	}

	sort.Slice(categories, func(i, j int) bool {
		return naturalLess(categories[i].Name, categories[j].Name)
	})

	return categories
}

// StubIndex maps stubs to galleries. Galleries whose stubs collide overwrite
// each other; the later one in gallery order wins.
func StubIndex(galleries []models.Gallery) map[string]models.Gallery {
	index := make(map[string]models.Gallery, len(galleries))
	for _, gallery := range galleries {
		index[gallery.Stub] = gallery
	}
	return index
}
