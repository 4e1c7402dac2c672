package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	SecretKey  string `env:"SECRET_KEY"`
	BucketName string `env:"BUCKET_NAME"`
	Port       string `env:"PORT" envDefault:"8080"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"gcs"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:"localhost:9000"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`

	AWSRegion  string `env:"AWS_REGION"  envDefault:"us-east-1"`
	S3Endpoint string `env:"S3_ENDPOINT"`

	CacheTTL        time.Duration `env:"CACHE_TTL"         envDefault:"5m"`
	SignedURLTTL    time.Duration `env:"SIGNED_URL_TTL"    envDefault:"168h"`
	URLConcurrency  int           `env:"URL_CONCURRENCY"   envDefault:"50"`
	BulkMaxParallel int           `env:"BULK_MAX_PARALLEL" envDefault:"10"`

	FFmpegPath        string `env:"FFMPEG_PATH"        envDefault:"ffmpeg"`
	ScratchDir        string `env:"SCRATCH_DIR"`
	ValidateThumbnail bool   `env:"THUMBNAIL_VALIDATE" envDefault:"true"`

	TMDbAPIKey string `env:"TMDB_API_KEY"`

	LogLevel     string `env:"LOG_LEVEL"                   envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ViewsDir  string `env:"VIEWS_DIR"  envDefault:"./views"`
	PublicDir string `env:"PUBLIC_DIR" envDefault:"./public"`
}

// ErrSecretKeyNotSet is returned when the SECRET_KEY environment variable is not set
var ErrSecretKeyNotSet = errors.New("SECRET_KEY environment variable not set")

// ErrBucketNameNotSet is returned when the BUCKET_NAME environment variable is not set
var ErrBucketNameNotSet = errors.New("BUCKET_NAME environment variable not set")

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		return nil, ErrSecretKeyNotSet
	}

	if cfg.BucketName == "" {
		return nil, ErrBucketNameNotSet
	}

	return cfg, nil
}

// LoadStorageOnly loads configuration for commands that only touch the bucket.
// SECRET_KEY is not required there.
func LoadStorageOnly() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.BucketName == "" {
		return nil, ErrBucketNameNotSet
	}

	return cfg, nil
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "media-gallery-thumbnails")
	}

	return cfg, nil
}

// ServerAddress returns the server address with port
func (c *Config) ServerAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// PrintServerStartMessage prints a message when the server starts
func (c *Config) PrintServerStartMessage() {
	fmt.Printf("Starting server at port %s\n", c.Port)
	fmt.Printf("Gallery URL: http://localhost:%s/%s/index\n", c.Port, c.SecretKey)
	fmt.Printf("Feed URL: http://localhost:%s/%s/feed\n", c.Port, c.SecretKey)
	fmt.Printf("Admin URL: http://localhost:%s/%s/admin\n", c.Port, c.SecretKey)
}
