package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	AdminJWTSecret string
	AutoMigrate    bool
	GeoIPDBPath    string
	DefaultLocale  string

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBackupModel string
	OpenAIBaseURL     string
	OllamaBaseURL     string
	OllamaModel       string
	LLMTimeout        time.Duration
	LLMMaxTokens      int

	WorkerPoolSize     int
	WorkerPollInterval time.Duration
	JobLeaseTTL        time.Duration
	LeaseReapInterval  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),

		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBackupModel: getEnv("OPENAI_BACKUP_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OllamaBaseURL:     os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.1"),
		LLMTimeout:        time.Second * time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 4096),

		WorkerPoolSize:     getEnvInt("WORKER_POOL_SIZE", 4),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),
		JobLeaseTTL:        time.Minute * time.Duration(getEnvInt("JOB_LEASE_MINUTES", 15)),
		LeaseReapInterval:  time.Second * time.Duration(getEnvInt("LEASE_REAP_SECONDS", 60)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}

	if cfg.WorkerPoolSize < 1 {
		cfg.WorkerPoolSize = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
