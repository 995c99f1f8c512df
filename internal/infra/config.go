package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	CivitaiAPIToken string
	CivitaiBaseURL  string

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	OutputDir  string
	UploadsDir string

	JobsBackend string
	JobsDir     string
	DatabaseURL string

	EnhancerCacheTTL time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		CivitaiAPIToken:  os.Getenv("CIVITAI_API_TOKEN"),
		CivitaiBaseURL:   getEnv("CIVITAI_BASE_URL", "https://orchestration.civitai.com"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqModel:        getEnv("GROQ_MODEL", "qwen-qwq-32b"),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		OutputDir:        getEnv("OUTPUT_DIR", "output"),
		UploadsDir:       getEnv("UPLOADS_DIR", "uploads"),
		JobsBackend:      getEnv("JOBS_BACKEND", "memory"),
		JobsDir:          getEnv("JOBS_DIR", "jobs"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EnhancerCacheTTL: time.Second * time.Duration(getEnvInt("ENHANCER_CACHE_TTL_SECONDS", 300)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.JobsBackend {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("JOBS_BACKEND must be memory or postgres, got %q", cfg.JobsBackend)
	}

	if cfg.JobsBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when JOBS_BACKEND=postgres")
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
