package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	DataDir   string
	DBPath    string
	StaticDir string
	LogLevel  string

	JWTSecret       string
	SnowflakeNodeID int64

	// GitHub issue forwarding for report/feature-request endpoints.
	GitHubToken string
	GitHubRepo  string // "owner/repo"

	// Blob storage for the corpus upload tool.
	BlobToken string

	// Optional shared counter store. Empty means in-process counters.
	RedisAddr string

	// How often the server re-imports the corpus manifest. Zero
	// disables the background sync.
	ManifestSyncInterval time.Duration

	ReportRateLimitMax     int
	ReportRateLimitWindow  time.Duration
	FeatureRateLimitMax    int
	FeatureRateLimitWindow time.Duration

	SwaggerEnabled bool
}

func Load() Config {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	dataDir := envOr("MARGINALIA_DATA_DIR", "data")
	dbPath := os.Getenv("MARGINALIA_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "marginalia.db")
	}

	return Config{
		Addr:      envOr("MARGINALIA_ADDR", ":8080"),
		DataDir:   filepath.Clean(dataDir),
		DBPath:    filepath.Clean(dbPath),
		StaticDir: envOr("MARGINALIA_STATIC_DIR", detectStaticDir()),
		LogLevel:  envOr("MARGINALIA_LOG_LEVEL", "info"),

		JWTSecret:       os.Getenv("MARGINALIA_JWT_SECRET"),
		SnowflakeNodeID: envInt64("MARGINALIA_NODE_ID", 0),

		GitHubToken: os.Getenv("MARGINALIA_GITHUB_TOKEN"),
		GitHubRepo:  envOr("MARGINALIA_GITHUB_REPO", ""),

		BlobToken: os.Getenv("BLOB_READ_WRITE_TOKEN"),

		RedisAddr: os.Getenv("MARGINALIA_REDIS_ADDR"),

		ManifestSyncInterval: envDuration("MARGINALIA_MANIFEST_SYNC_INTERVAL", time.Hour),

		ReportRateLimitMax:     envInt("MARGINALIA_REPORT_RATE_MAX", 5),
		ReportRateLimitWindow:  envDuration("MARGINALIA_REPORT_RATE_WINDOW", 60*time.Second),
		FeatureRateLimitMax:    envInt("MARGINALIA_FEATURE_RATE_MAX", 3),
		FeatureRateLimitWindow: envDuration("MARGINALIA_FEATURE_RATE_WINDOW", 10*time.Minute),

		SwaggerEnabled: envBool("MARGINALIA_SWAGGER", false),
	}
}

func detectStaticDir() string {
	candidates := []string{
		"./frontend/dist",
		"../frontend/dist",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./frontend/dist"
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
