package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	Database DatabaseConfig
	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret     string
	JWTTTL        time.Duration
	AdminEmail    string
	AdminPassword string
	SeedAdmin     bool

	Storage StorageConfig

	RateLimitReview       time.Duration
	OrphanCleanupInterval time.Duration
	DisplayLocation       *time.Location

	LogLevel string
	LogFile  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the key/value connection string understood by the postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type StorageConfig struct {
	Driver string // cloudinary, minio or local

	CloudinaryUploadFolder string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	LocalDir       string
	LocalPublicURL string

	MaxUploadBytes    int64
	MaxImageDimension int
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "community_review"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SeedAdmin:     getEnv("SEED_ADMIN", "false") == "true",

		Storage: StorageConfig{
			Driver:                 getEnv("STORAGE_DRIVER", "local"),
			CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "community_review"),
			MinIOEndpoint:          getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinIOAccessKey:         os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey:         os.Getenv("MINIO_SECRET_KEY"),
			MinIOBucket:            getEnv("MINIO_BUCKET", "community-review"),
			MinIOUseSSL:            getEnv("MINIO_USE_SSL", "false") == "true",
			LocalDir:               getEnv("LOCAL_UPLOAD_DIR", "./uploads"),
			LocalPublicURL:         getEnv("LOCAL_PUBLIC_URL", "/uploads"),
		},

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	var err error
	cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.RateLimitReview, err = parseDuration(getEnv("RATE_LIMIT_REVIEW", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REVIEW: %w", err)
	}
	cfg.OrphanCleanupInterval, err = parseDuration(getEnv("ORPHAN_CLEANUP_INTERVAL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORPHAN_CLEANUP_INTERVAL: %w", err)
	}

	maxMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "10"))
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.Storage.MaxUploadBytes = int64(maxMB) << 20

	cfg.Storage.MaxImageDimension, err = strconv.Atoi(getEnv("MAX_IMAGE_DIMENSION", "1920"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_IMAGE_DIMENSION: %w", err)
	}

	cfg.DisplayLocation, err = time.LoadLocation(getEnv("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

// ShouldSeedAdmin is opt-in: a seeded account takes ADMIN_EMAIL, so that
// address can no longer register and pick up the admin flag itself.
func (c *Config) ShouldSeedAdmin() bool {
	return c.SeedAdmin && c.IsDevelopment() && c.AdminEmail != ""
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
