package config

import (
	"os"
	"strconv"
	"time"

	"github.com/saransh1220/qrdrop/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Redis       database.RedisConfig
	Cache       CacheConfig
	FileStorage FileStorageConfig
	Upload      UploadConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
	// PublicBaseURL overrides the LAN address used to build the mobile upload URL
	PublicBaseURL string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// CacheConfig controls the optional Redis cache of session file listings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// FileStorageConfig holds file storage configuration
type FileStorageConfig struct {
	UseS3        bool
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3BucketName string
	S3UseSSL     bool
	S3Prefix     string
	LocalPath    string
}

// UploadConfig bounds a single multipart upload request
type UploadConfig struct {
	MaxFiles    int
	MemoryLimit int64
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
			PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
			// Large video uploads and archive downloads must not be cut off, so 0 (no timeout) is the default.
			ReadTimeout:  parseDuration(getEnv("SERVER_READ_TIMEOUT", "0"), 0),
			WriteTimeout: parseDuration(getEnv("SERVER_WRITE_TIMEOUT", "0"), 0),
			IdleTimeout:  parseDuration(getEnv("SERVER_IDLE_TIMEOUT", "60s"), 60*time.Second),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Cache: CacheConfig{
			Enabled: getEnv("REDIS_ENABLED", "false") == "true",
			TTL:     parseDuration(getEnv("FILE_LIST_CACHE_TTL", "10m"), 10*time.Minute),
		},
		FileStorage: FileStorageConfig{
			UseS3:        getEnv("USE_S3", "false") == "true",
			S3Region:     getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:   getEnv("S3_ENDPOINT", ""),
			S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
			S3BucketName: getEnv("S3_BUCKET", ""),
			S3UseSSL:     getEnv("S3_USE_SSL", "true") == "true",
			S3Prefix:     getEnv("S3_PREFIX", "uploads"),
			LocalPath:    getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		},
		Upload: UploadConfig{
			MaxFiles:    parseInt(getEnv("UPLOAD_MAX_FILES", "20"), 20),
			MemoryLimit: int64(parseInt(getEnv("UPLOAD_MEMORY_LIMIT", "33554432"), 32<<20)),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}
