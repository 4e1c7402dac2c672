package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateThumbnail(t *testing.T) {
	dir := t.TempDir()

	gradient := filepath.Join(dir, "gradient.png")
	require.NoError(t, imaging.Save(gradientImage(64), gradient))
	assert.NoError(t, validateThumbnail(gradient))

	solid := filepath.Join(dir, "solid.png")
	require.NoError(t, imaging.Save(solidImage(64), solid))
	err := validateThumbnail(solid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solid color")

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	err = validateThumbnail(garbage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestScratchFileRelease(t *testing.T) {
	dir := t.TempDir()

	a := newScratchFile(dir, "A/One/intro.mp4")
	b := newScratchFile(dir, "B/One/intro.mp4")
	assert.NotEqual(t, a.Path(), b.Path())
	assert.True(t, strings.HasSuffix(a.Path(), "-intro.mp4"))

	// Releasing a path that was never written is fine
	assert.NoError(t, a.Release())

	require.NoError(t, os.WriteFile(b.Path(), []byte("data"), 0o644))
	require.NoError(t, b.Release())
	assert.NoFileExists(t, b.Path())
}

func TestSafeFilenameShortensLongNames(t *testing.T) {
	assert.Equal(t, "clip.mp4", safeFilename("C/G/clip.mp4"))

	long := "C/G/" + strings.Repeat("x", 250) + ".mp4"
	name := safeFilename(long)
	assert.Less(t, len(name), 60)
	assert.True(t, strings.HasSuffix(name, ".mp4"))
	assert.Equal(t, name, safeFilename(long))
}
