package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("BUCKET_NAME", "videos")

	_, err := Load()
	assert.ErrorIs(t, err, ErrSecretKeyNotSet)
}

func TestLoadRequiresBucketName(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BUCKET_NAME", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrBucketNameNotSet)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BUCKET_NAME", "videos")
	t.Setenv("PORT", "")
	t.Setenv("SCRATCH_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gcs", cfg.StorageBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, 50, cfg.URLConcurrency)
	assert.Equal(t, 10, cfg.BulkMaxParallel)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.True(t, cfg.ValidateThumbnail)
	assert.NotEmpty(t, cfg.ScratchDir)
	assert.Equal(t, ":8080", cfg.ServerAddress())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BUCKET_NAME", "videos")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("THUMBNAIL_VALIDATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "minio", cfg.StorageBackend)
	assert.False(t, cfg.ValidateThumbnail)
}

func TestLoadStorageOnlySkipsSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("BUCKET_NAME", "videos")

	cfg, err := LoadStorageOnly()
	require.NoError(t, err)
	assert.Equal(t, "videos", cfg.BucketName)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BUCKET_NAME", "videos")
	t.Setenv("CACHE_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
