package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// CacheTTL bounds how long a hydrated asset detail is served from memory
	// before the next read goes back to the database. Set via CACHE_TTL_MINUTES.
	CacheTTL time.Duration

	// Debounce is the settle window applied to filter/sort mutations before
	// the inventory view recomputes. Set via DEBOUNCE_MS.
	Debounce time.Duration

	// PageSize is the default inventory page size. Set via PAGE_SIZE.
	PageSize int

	// ReviewSweepCron is the cron expression for the overdue-review sweep.
	ReviewSweepCron string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS. Set via
	// CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are
	// sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "inventorydb"),
		DBUser: getEnv("DB_USER", "inventory"),
		DBPass: getEnv("DB_PASS", "inventory"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		Env:            getEnv("ENV", "dev"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		CacheTTL: time.Duration(getEnvInt("CACHE_TTL_MINUTES", 5)) * time.Minute,
		Debounce: time.Duration(getEnvInt("DEBOUNCE_MS", 300)) * time.Millisecond,
		PageSize: getEnvInt("PAGE_SIZE", 25),

		// Hourly by default; overdue reviews move slowly.
		ReviewSweepCron: getEnv("REVIEW_SWEEP_CRON", "0 * * * *"),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
