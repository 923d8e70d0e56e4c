package config

import (
	"os"
)

// Config holds the environment-derived settings the CLI commands read.
// CLI flags (host, port, --upload, --strava-webhook) layer on top of
// this at the cobra command level; Config covers the database path,
// the upload token, and the Strava OAuth/webhook settings.
type Config struct {
	DBPath      string
	UploadToken string
	Strava      StravaConfig
}

// StravaConfig is the OAuth client configuration used by package
// strava's Manager.
type StravaConfig struct {
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	RedirectURL   string
}

// Load reads configuration from environment variables with sensible
// defaults, in the same getEnv-with-fallback idiom as the teacher's own
// config loader.
func Load() *Config {
	return &Config{
		DBPath:      getEnv("HOTPOT_DB_PATH", "hotpot.db"),
		UploadToken: getEnv("HOTPOT_UPLOAD_TOKEN", ""),
		Strava: StravaConfig{
			ClientID:      getEnv("STRAVA_CLIENT_ID", ""),
			ClientSecret:  getEnv("STRAVA_CLIENT_SECRET", ""),
			WebhookSecret: getEnv("STRAVA_WEBHOOK_SECRET", ""),
			RedirectURL:   getEnv("HOTPOT_BASE_URL", "http://localhost:8080") + "/strava/callback",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
