package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevAuthSecret signs tokens when AUTH_SECRET is unset. It is public, so
// Validate rejects it in production.
const DevAuthSecret = "dev-secret-change-me"

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	LogDir      string

	// Document store
	StoreDriver    string // github, memory or postgres
	GitHubToken    string
	GitHubOwner    string
	GitHubRepo     string
	GitHubBranch   string
	GitHubAPIURL   string
	GitHubRPS      int
	DataPrefix     string
	DatabaseURL    string
	TablePrefix    string
	ReloadSchedule string // cron spec for refreshing mirrors, empty disables

	// Media
	S3Bucket    string
	S3Region    string
	S3PublicURL string

	RedisURL string

	// Auth
	AdminEmails []string
	AuthSecret  string
	AuthJWKSURL string
	TokenTTL    time.Duration

	AutosaveDelay time.Duration

	// Editor and reader sessions untouched for SessionIdle are closed by
	// the sweep job; an empty schedule disables it
	SessionIdle          time.Duration
	SessionSweepSchedule string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:4200"),
		LogDir:      getEnv("LOG_DIR", ""),

		StoreDriver:    getEnv("STORE_DRIVER", "github"),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GitHubOwner:    getEnv("GITHUB_OWNER", ""),
		GitHubRepo:     getEnv("GITHUB_REPO", ""),
		GitHubBranch:   getEnv("GITHUB_BRANCH", ""),
		GitHubAPIURL:   getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubRPS:      getEnvInt("GITHUB_RPS", 10),
		DataPrefix:     getEnv("DATA_PREFIX", "src/assets/data/"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		TablePrefix:    getTablePrefix(env),
		ReloadSchedule: getEnv("RELOAD_SCHEDULE", "@every 5m"),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
		AuthSecret:  getEnv("AUTH_SECRET", DevAuthSecret),
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		AutosaveDelay: getEnvDuration("AUTOSAVE_DELAY", 3*time.Second),

		SessionIdle:          getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
	}
}

// IsProduction reports whether the server runs with ENVIRONMENT=prod
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// Validate reports settings the server must not start with
func (c *Config) Validate() error {
	if c.IsProduction() && (c.AuthSecret == "" || c.AuthSecret == DevAuthSecret) {
		return errors.New("AUTH_SECRET must be set to a private value in production")
	}
	return nil
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

// splitList parses a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
