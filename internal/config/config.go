package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	APIPrefix   string
	// Authentication
	SecretKey                string
	AccessTokenExpireMinutes int
	BcryptCost               int
	JWKSURL                  string // Optional external issuer (RS256/ES256)
	// LLM Configuration
	GeminiAPIKey     string
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	OllamaHost       string
	DefaultProvider  string
	DefaultModel     string
	Temperature      float64
	RetryAttempts    int
	RetryInitialWait time.Duration
	RetryMaxWait     time.Duration
	// History cache (disabled when RedisURL is empty)
	RedisURL        string
	HistoryCacheTTL time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		APIPrefix:   getEnv("API_VER_STR", "/api/v1"),
		// Authentication
		SecretKey:                getEnv("SECRET_KEY", ""),
		AccessTokenExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60),
		BcryptCost:               getEnvInt("BCRYPT_COST", 10),
		JWKSURL:                  getEnv("AUTH_JWKS_URL", ""),
		// LLM Configuration
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OllamaHost:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
		DefaultProvider:  getEnv("DEFAULT_PROVIDER", "gemini"),
		DefaultModel:     getEnv("DEFAULT_MODEL", "gemini-2.5-flash"),
		Temperature:      getEnvFloat("LLM_TEMPERATURE", 0.7),
		RetryAttempts:    getEnvInt("LLM_RETRY_ATTEMPTS", 5),
		RetryInitialWait: getEnvDuration("LLM_RETRY_INITIAL", 4*time.Second),
		RetryMaxWait:     getEnvDuration("LLM_RETRY_MAX", 10*time.Second),
		// History cache
		RedisURL:        getEnv("REDIS_URL", ""),
		HistoryCacheTTL: getEnvDuration("HISTORY_CACHE_TTL", 24*time.Hour),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// AccessTokenTTL returns the default lifetime of issued access tokens
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
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
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go duration strings ("4s", "250ms") or bare seconds ("4")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
