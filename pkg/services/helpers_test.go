package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"media-gallery/pkg/config"
	"media-gallery/pkg/progress"
	"media-gallery/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SecretKey:         "test-secret",
		BucketName:        "test-bucket",
		CacheTTL:          5 * time.Minute,
		URLConcurrency:    4,
		BulkMaxParallel:   10,
		ScratchDir:        t.TempDir(),
		ValidateThumbnail: true,
	}
}

func gradientImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / size), G: uint8(y * 255 / size), B: 128, A: 255})
		}
	}
	return img
}

func solidImage(size int) *image.NRGBA {
	return imaging.New(size, size, color.NRGBA{A: 255})
}

// fakeExtractor writes a generated frame instead of running ffmpeg
type fakeExtractor struct {
	checkErr error
	solid    bool
	delay    time.Duration

	mu         sync.Mutex
	failFor    map[string]error
	videoPaths []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeExtractor) Check(context.Context) error {
	return f.checkErr
}

func (f *fakeExtractor) ExtractFrame(_ context.Context, videoPath, outputPath string, _ int) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		current := f.maxInFlight.Load()
		if n <= current || f.maxInFlight.CompareAndSwap(current, n) {
			break
		}
	}

	f.mu.Lock()
	f.videoPaths = append(f.videoPaths, videoPath)
	var failure error
	for suffix, err := range f.failFor {
		if strings.HasSuffix(videoPath, suffix) {
			failure = err
		}
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if failure != nil {
		return failure
	}

	if f.solid {
		return imaging.Save(solidImage(32), outputPath)
	}
	return imaging.Save(gradientImage(64), outputPath)
}

func (f *fakeExtractor) fail(suffix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor == nil {
		f.failFor = make(map[string]error)
	}
	f.failFor[suffix] = err
}

func (f *fakeExtractor) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.videoPaths...)
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

// countingStore counts listings. When release is set the first listing
// signals started and waits for release to be closed.
type countingStore struct {
	storage.ObjectStore

	lists   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (c *countingStore) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	if c.lists.Add(1) == 1 && c.release != nil {
		close(c.started)
		<-c.release
	}
	return c.ObjectStore.List(ctx)
}

// orderedStore lists a fixed sequence of keys and resolves every URL
type orderedStore struct {
	keys []string
}

func (o *orderedStore) List(context.Context) ([]storage.ObjectInfo, error) {
	objects := make([]storage.ObjectInfo, 0, len(o.keys))
	for _, key := range o.keys {
		objects = append(objects, storage.ObjectInfo{Key: key})
	}
	return objects, nil
}

func (o *orderedStore) URL(_ context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}

func (o *orderedStore) Download(context.Context, string, string) error {
	return errors.New("not supported")
}

func (o *orderedStore) Upload(context.Context, string, io.Reader, int64, string) error {
	return errors.New("not supported")
}

func (o *orderedStore) Delete(context.Context, string) error {
	return nil
}

func (o *orderedStore) Close() error {
	return nil
}

// failingListStore fails every listing without returning any objects
type failingListStore struct {
	orderedStore
	lists atomic.Int32
}

func (f *failingListStore) List(context.Context) ([]storage.ObjectInfo, error) {
	f.lists.Add(1)
	return nil, errors.New("bucket unreachable")
}

func drain(ch *progress.Channel) []progress.Event {
	var events []progress.Event
	for ev := range ch.Events() {
		events = append(events, ev)
	}
	return events
}

func steps(events []progress.Event) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Step)
	}
	return names
}
