package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Imagery API.
	NASAAPIKey     string
	NASABaseURL    string
	ImageryDim     float64
	ImageryRetries int

	// Geocoding.
	NominatimBaseURL     string
	NominatimUserAgent   string
	GoogleGeocoderAPIKey string // optional fallback geocoder
	IPGeoBaseURL         string

	// Outbound mail. Credentials only ever come from the environment.
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPRequireTLS bool

	// HTTPTimeout bounds each outbound call; RequestTimeout bounds a whole API request.
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	// Animation pipeline.
	AcquireWorkers    int
	AnimationStepDays int
	AnimationFormat   string
	ArtifactDir       string
	FrameWidth        int
	FrameHeight       int
	FrameDelay        time.Duration
	FontPath          string
	ImageCacheSize    int

	// Session lifecycle.
	SessionMaxIdle       time.Duration // 0 = never expire
	SessionSweepInterval time.Duration

	// Record archive (SQLite).
	ArchiveEnabled bool
	ArchivePath    string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.NASAAPIKey = getenvDefault("NASA_API_KEY", "DEMO_KEY")
	cfg.NASABaseURL = os.Getenv("NASA_API_BASE_URL")
	if cfg.ImageryDim, err = getenvFloat("IMAGERY_DIM", 0.1); err != nil {
		return nil, err
	}
	cfg.ImageryRetries = getenvInt("IMAGERY_MAX_RETRIES", 0)

	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "landsat-dashboard/1.0")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.IPGeoBaseURL = os.Getenv("IPGEO_BASE_URL")

	cfg.SMTPHost = getenvDefault("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getenvInt("SMTP_PORT", 587)
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = getenvDefault("SMTP_FROM", cfg.SMTPUsername)
	cfg.SMTPRequireTLS = getenvBool("SMTP_REQUIRE_TLS", true)

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "5m"); err != nil {
		return nil, err
	}

	cfg.AcquireWorkers = getenvInt("ACQUIRE_WORKERS", 1)
	cfg.AnimationStepDays = getenvInt("ANIMATION_STEP_DAYS", 30)
	cfg.AnimationFormat = getenvDefault("ANIMATION_FORMAT", "gif")
	cfg.ArtifactDir = getenvDefault("ARTIFACT_DIR", filepath.Join(os.TempDir(), "landsat-artifacts"))
	cfg.FrameWidth = getenvInt("FRAME_WIDTH", 512)
	cfg.FrameHeight = getenvInt("FRAME_HEIGHT", 512)
	if cfg.FrameDelay, err = getenvDuration("FRAME_DELAY", "200ms"); err != nil {
		return nil, err
	}
	cfg.FontPath = os.Getenv("FRAME_FONT_PATH")
	cfg.ImageCacheSize = getenvInt("IMAGE_CACHE_SIZE", 64)

	if cfg.SessionMaxIdle, err = getenvDuration("SESSION_MAX_IDLE", "2h"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.ArchiveEnabled = getenvBool("ARCHIVE_ENABLED", true)
	cfg.ArchivePath = getenvDefault("ARCHIVE_PATH", "landsat.db")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
