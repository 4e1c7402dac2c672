package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"media-gallery/pkg/models"
	"media-gallery/pkg/storage"
)

func TestThumbnailKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"category/gallery/clip.01.mp4", "category/gallery/clip.01.jpg"},
		{"Movies/Classics/Metropolis.webm", "Movies/Classics/Metropolis.jpg"},
		{"C/G/already.jpg", "C/G/already.jpg"},
		{"C/G/noext", "C/G/noext.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ThumbnailKey(tt.key))
		})
	}
}

func TestGalleryStub(t *testing.T) {
	name := "Summer Holiday 2024"

	stub := GalleryStub("Home", name, "secret-a")
	assert.Len(t, stub, stubLength)
	assert.Equal(t, stub, GalleryStub("Home", name, "secret-a"))
	assert.NotEqual(t, stub, GalleryStub("Home", name, "secret-b"))
	assert.NotEqual(t, stub, GalleryStub("Home", "Winter Holiday 2024", "secret-a"))
	assert.NotEqual(t, stub, GalleryStub("Travel", name, "secret-a"))
	assert.NotContains(t, stub, "Summer")
	assert.NotContains(t, stub, "/")
}

func TestGalleryStubNeverContainsLongNames(t *testing.T) {
	// A stub is stubLength characters, so it cannot embed any longer name
	for _, name := range []string{"Classics", "Beach 2024", "Summer Holiday", "2020-01-01 Party"} {
		require.Greater(t, len(name), stubLength-1)
		for _, secret := range []string{"a", "secret", "another secret"} {
			assert.NotContains(t, GalleryStub("Home", name, secret), name)
		}
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key string
		ok  bool
	}{
		{"A/B/x.mp4", true},
		{"A/B/", false},
		{"A/x.mp4", false},
		{"A/B/C/x.mp4", false},
		{"/B/x.mp4", false},
		{"A//x.mp4", false},
		{"x.mp4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, _, _, ok := splitKey(tt.key)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStripExtension(t *testing.T) {
	assert.Equal(t, "clip.01", stripExtension("clip.01.mp4"))
	assert.Equal(t, "clip", stripExtension("clip"))
	assert.Equal(t, "", stripExtension(".hidden"))
}

func TestAggregatorMergeIsCommutative(t *testing.T) {
	orders := [][]string{
		{"A/B/x.mp4", "A/B/x.jpg"},
		{"A/B/x.jpg", "A/B/x.mp4"},
	}

	for _, keys := range orders {
		t.Run(strings.Join(keys, ","), func(t *testing.T) {
			agg := NewAggregator(&orderedStore{keys: keys}, 2, zaptest.NewLogger(t))

			videos, err := agg.Videos(context.Background())
			require.NoError(t, err)
			require.Len(t, videos, 1)

			video := videos[0]
			assert.Equal(t, "x", video.Name)
			assert.Equal(t, "A", video.Category)
			assert.Equal(t, "B", video.Gallery)
			assert.Equal(t, "https://signed.example/A/B/x.mp4", video.Url)
			assert.Equal(t, "A/B/x.mp4", video.MediaKey)
			require.NotNil(t, video.Thumbnail)
			assert.Equal(t, "https://signed.example/A/B/x.jpg", *video.Thumbnail)
			assert.Equal(t, "A/B/x.jpg", video.ThumbnailKey)
		})
	}
}

func TestAggregatorSkipsMalformedKeys(t *testing.T) {
	store := &orderedStore{keys: []string{
		"top.mp4",
		"A/x.mp4",
		"A/B/C/x.mp4",
		"A/B/",
		"A//x.mp4",
		"A/B/ok.mp4",
	}}
	agg := NewAggregator(store, 2, zaptest.NewLogger(t))

	videos, err := agg.Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "ok", videos[0].Name)
}

func TestAggregatorDropsObjectsWhoseURLFails(t *testing.T) {
	store := storage.NewMemory("bucket")
	store.Put("A/B/x.mp4", []byte("x"), "video/mp4")
	store.Put("A/B/y.mp4", []byte("y"), "video/mp4")
	store.Put("A/B/y.jpg", []byte("y"), "image/jpeg")
	store.Fail(storage.OpURL, "A/B/y.mp4", errors.New("signing failed"))

	agg := NewAggregator(store, 2, zaptest.NewLogger(t))
	videos, err := agg.Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "x", videos[0].Name)
	assert.True(t, videos[0].Playable())

	// y keeps its thumbnail but lost its media object
	assert.Equal(t, "y", videos[1].Name)
	assert.False(t, videos[1].Playable())
	assert.NotNil(t, videos[1].Thumbnail)
}

func TestAggregatorReturnsPartialListing(t *testing.T) {
	store := storage.NewMemory("bucket")
	store.Put("A/B/1.mp4", nil, "video/mp4")
	store.Put("A/B/2.mp4", nil, "video/mp4")
	store.Put("A/B/3.mp4", nil, "video/mp4")
	store.FailListAfter(2, errors.New("page token expired"))

	agg := NewAggregator(store, 2, zaptest.NewLogger(t))
	videos, err := agg.Videos(context.Background())
	require.Error(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "1", videos[0].Name)
	assert.Equal(t, "2", videos[1].Name)
}

func TestAggregatorUnrecognizedExtensionConsumesMergeKey(t *testing.T) {
	agg := NewAggregator(&orderedStore{keys: []string{"A/B/x.txt", "A/B/x.mp4", "A/B/notes.txt"}}, 2, zaptest.NewLogger(t))

	videos, err := agg.Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "notes", videos[0].Name)
	assert.False(t, videos[0].Playable())
	assert.Nil(t, videos[0].Thumbnail)

	assert.Equal(t, "x", videos[1].Name)
	assert.True(t, videos[1].Playable())
}

func TestAggregatorSortsNaturally(t *testing.T) {
	agg := NewAggregator(&orderedStore{keys: []string{
		"A/B/clip 10.mp4",
		"A/B/clip 2.mp4",
		"A/B/clip 1.mp4",
	}}, 2, zaptest.NewLogger(t))

	videos, err := agg.Videos(context.Background())
	require.NoError(t, err)

	var names []string
	for _, v := range videos {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"clip 1", "clip 2", "clip 10"}, names)
}

func TestBuildGalleriesAndCategories(t *testing.T) {
	videos := []models.Video{
		{Name: "a", Category: "Movies", Gallery: "Part 10"},
		{Name: "b", Category: "Movies", Gallery: "Part 2"},
		{Name: "c", Category: "Home", Gallery: "Beach"},
		{Name: "d", Category: "Movies", Gallery: "Part 2"},
		{Name: "e", Category: "Home", Gallery: "Part 2"},
	}

	galleries := BuildGalleries(videos, "secret")
	require.Len(t, galleries, 4)

	assert.Equal(t, "Beach", galleries[0].Name)
	assert.Equal(t, "Part 2", galleries[1].Name)
	assert.Equal(t, "Home", galleries[1].Category)
	assert.Equal(t, "Part 2", galleries[2].Name)
	assert.Equal(t, "Movies", galleries[2].Category)
	assert.Len(t, galleries[2].Videos, 2)
	assert.Equal(t, "Part 10", galleries[3].Name)
	assert.Equal(t, GalleryStub("Home", "Beach", "secret"), galleries[0].Stub)
	assert.Equal(t, "/gallery/"+galleries[0].Stub, galleries[0].Link())

	categories := BuildCategories(galleries)
	require.Len(t, categories, 2)
	assert.Equal(t, "Home", categories[0].Name)
	assert.Equal(t, "Home", categories[0].Stub)
	assert.Len(t, categories[0].Galleries, 2)
	assert.Equal(t, "Movies", categories[1].Name)
	assert.Equal(t, "Part 2", categories[1].Galleries[0].Name)
	assert.Equal(t, "Part 10", categories[1].Galleries[1].Name)
}

func TestStubIndexLastGalleryWins(t *testing.T) {
	galleries := []models.Gallery{
		{Name: "first", Stub: "same"},
		{Name: "second", Stub: "same"},
		{Name: "other", Stub: "other"},
	}

	index := StubIndex(galleries)
	assert.Len(t, index, 2)
	assert.Equal(t, "second", index["same"].Name)
}

func TestMissingThumbnails(t *testing.T) {
	thumb := "https://signed.example/A/B/x.jpg"
	videos := []models.Video{
		{Name: "x", MediaKey: "A/B/x.mp4", Url: "u", Thumbnail: &thumb},
		{Name: "y", MediaKey: "A/B/y.mp4", Url: "u"},
		{Name: "orphan", Thumbnail: &thumb},
	}

	assert.Equal(t, []string{"A/B/y.mp4"}, MissingThumbnails(videos, false))
	assert.Equal(t, []string{"A/B/x.mp4", "A/B/y.mp4"}, MissingThumbnails(videos, true))
}
