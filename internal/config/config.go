package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Jira         JiraConfig
	Advisor      AdvisorConfig
	Analysis     AnalysisConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	ServiceAPIKey         string
}

// JiraConfig points at the upstream ticket source.
type JiraConfig struct {
	BaseURL        string
	Email          string
	APIToken       string
	TimeoutSeconds int
	SearchLimit    int
}

// AdvisorConfig points at the insight advisor backend.
type AdvisorConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// AnalysisConfig tunes the analysis pipeline and its caches.
type AnalysisConfig struct {
	TicketTTLHours       int
	StalenessMinutes     int
	CacheTTLMinutes      int
	CacheMaxEntries      int
	SearchConcurrency    int
	ScoreConcurrency     int
	DefaultMaxRelated    int
	DefaultMinScore      float64
	DefaultDepth         string
	RetentionSweepMinute int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "impactlens"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			ServiceAPIKey:         os.Getenv("AUTH_SERVICE_API_KEY"),
		},
		Jira: JiraConfig{
			BaseURL:        os.Getenv("JIRA_BASE_URL"),
			Email:          os.Getenv("JIRA_EMAIL"),
			APIToken:       os.Getenv("JIRA_API_TOKEN"),
			TimeoutSeconds: getEnvAsInt("JIRA_TIMEOUT_SECONDS", 15),
			SearchLimit:    getEnvAsInt("JIRA_SEARCH_LIMIT", 25),
		},
		Advisor: AdvisorConfig{
			BaseURL:        getEnv("ADVISOR_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         os.Getenv("ADVISOR_API_KEY"),
			Model:          getEnv("ADVISOR_MODEL", "gpt-4"),
			TimeoutSeconds: getEnvAsInt("ADVISOR_TIMEOUT_SECONDS", 30),
		},
		Analysis: AnalysisConfig{
			TicketTTLHours:       getEnvAsInt("ANALYSIS_TICKET_TTL_HOURS", 24),
			StalenessMinutes:     getEnvAsInt("ANALYSIS_TICKET_STALENESS_MINUTES", 60),
			CacheTTLMinutes:      getEnvAsInt("ANALYSIS_CACHE_TTL_MINUTES", 30),
			CacheMaxEntries:      getEnvAsInt("ANALYSIS_CACHE_MAX_ENTRIES", 256),
			SearchConcurrency:    getEnvAsInt("ANALYSIS_SEARCH_CONCURRENCY", 4),
			ScoreConcurrency:     getEnvAsInt("ANALYSIS_SCORE_CONCURRENCY", 4),
			DefaultMaxRelated:    getEnvAsInt("ANALYSIS_DEFAULT_MAX_RELATED", 20),
			DefaultMinScore:      getEnvAsFloat("ANALYSIS_DEFAULT_MIN_SCORE", 0.3),
			DefaultDepth:         getEnv("ANALYSIS_DEFAULT_DEPTH", "detailed"),
			RetentionSweepMinute: getEnvAsInt("ANALYSIS_RETENTION_SWEEP_MINUTES", 15),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TicketTTL returns how long resolved tickets stay usable in the store.
func (a AnalysisConfig) TicketTTL() time.Duration {
	return time.Duration(a.TicketTTLHours) * time.Hour
}

// StalenessThreshold returns the max age before a ticket is re-synced.
func (a AnalysisConfig) StalenessThreshold() time.Duration {
	return time.Duration(a.StalenessMinutes) * time.Minute
}

// CacheTTL returns the analysis cache entry lifetime.
func (a AnalysisConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLMinutes) * time.Minute
}

// RetentionSweepInterval returns the retention worker tick interval.
func (a AnalysisConfig) RetentionSweepInterval() time.Duration {
	if a.RetentionSweepMinute <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.RetentionSweepMinute) * time.Minute
}

// Timeout returns the per-call timeout for the Jira client.
func (j JiraConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// Timeout returns the per-call timeout for the advisor client.
func (a AdvisorConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
