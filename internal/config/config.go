package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultResetSecret = "change-me-reset-token-secret"

type Config struct {
	PostgresURI     string
	DBMaxOpenConns  int
	RedisURI        string
	Port            string
	AllowedOrigins  []string // CORS: ALLOWED_ORIGINS, comma separated; "*" allows any origin
	Environment     string   // ENV: production, development, etc.
	AllowedHost     string   // ALLOWED_HOST: bare hostname enforced in production; empty disables the check
	SessionTTL      time.Duration
	ResetSecret     string
	ResetTokenTTL   time.Duration
	OpenWeatherKey  string
	WeatherCacheTTL time.Duration
	// ReconcileInterval is how often the phone index is repaired; 0 disables the job.
	ReconcileInterval time.Duration
}

func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	maxConns, err := getEnvInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	weatherTTL, err := getEnvDuration("WEATHER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	reconcile, err := getEnvDuration("RECONCILE_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	origins := parseOrigins(getEnv("ALLOWED_ORIGINS", "*"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cfg := &Config{
		PostgresURI:       getEnv("POSTGRES_URI", "postgres://localhost:5432/weatherlist?sslmode=disable"),
		DBMaxOpenConns:    maxConns,
		RedisURI:          getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:              getEnv("PORT", "3000"),
		AllowedOrigins:    origins,
		Environment:       env,
		AllowedHost:       strings.TrimSpace(getEnv("ALLOWED_HOST", "")),
		SessionTTL:        sessionTTL,
		ResetSecret:       getEnv("RESET_TOKEN_SECRET", defaultResetSecret),
		ResetTokenTTL:     resetTTL,
		OpenWeatherKey:    getEnv("OPENWEATHER_API_KEY", ""),
		WeatherCacheTTL:   weatherTTL,
		ReconcileInterval: reconcile,
	}

	if cfg.IsProduction() && cfg.ResetSecret == defaultResetSecret {
		return nil, fmt.Errorf("RESET_TOKEN_SECRET must be set in production")
	}
	if cfg.DBMaxOpenConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.DBMaxOpenConns)
	}

	return cfg, nil
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// getEnvDuration accepts Go durations ("15m") or plain seconds ("900").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
