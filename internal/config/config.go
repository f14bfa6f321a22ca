// Package config reads runtime settings from the environment, after loading .env when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseURL = "host=localhost user=postgres password=password dbname=shukatsu port=5432 sslmode=disable"
	defaultPort        = "8080"
	defaultSessionTTL  = 7 * 24 * time.Hour
	defaultTimezone    = "Asia/Tokyo"
	defaultGeminiModel = "gemini-2.5-flash"
	defaultCalendarID  = "primary"
)

type Config struct {
	DatabaseURL string
	Port        string

	JWTSecret  string
	SessionTTL time.Duration
	RedisURL   string

	// Location decides what "today" is for deadline windows.
	Location *time.Location

	GeminiAPIKey string
	GeminiModel  string

	LogLevel  string
	LogFormat string

	GoogleCredentialsFile string
	GoogleTokenFile       string
	CalendarID            string

	CORSOrigins []string
}

// Load reads .env (a missing file is fine) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           env("DATABASE_URL", defaultDatabaseURL),
		Port:                  env("PORT", defaultPort),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		SessionTTL:            defaultSessionTTL,
		RedisURL:              os.Getenv("REDIS_URL"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           env("GEMINI_MODEL", defaultGeminiModel),
		LogLevel:              env("LOG_LEVEL", "info"),
		LogFormat:             env("LOG_FORMAT", "text"),
		GoogleCredentialsFile: env("GOOGLE_CREDENTIALS_FILE", "credential.json"),
		GoogleTokenFile:       env("GOOGLE_TOKEN_FILE", "token.json"),
		CalendarID:            env("CALENDAR_ID", defaultCalendarID),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL %q", v)
		}
		cfg.SessionTTL = d
	}

	loc, err := time.LoadLocation(env("APP_TIMEZONE", defaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
