// Package config loads storefront settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ecosopis/storefront/internal/repository"
)

const defaultPersona = "You are a helpful beauty advisor for Ecosopis, a natural and vegan cosmetics brand. " +
	"You give advice about skin types and recommend Ecosopis products. Be friendly, professional and concise."

type Config struct {
	Env                string
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogFormat          string

	DB       *repository.Credentials
	Redis    RedisConfig
	Session  SessionConfig
	Chat     ChatConfig
	CacheTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL          time.Duration
	CookieName   string
	SecureCookie bool
}

type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Persona string
	Timeout time.Duration
}

// Load reads the configuration, falling back to development defaults.
func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	requestTimeout, err := getDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	chatTimeout, err := getDuration("CHAT_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	env := getEnv("APP_ENV", "development")
	return &Config{
		Env:                env,
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     requestTimeout,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		DB: &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "storefront"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			TTL:          sessionTTL,
			CookieName:   getEnv("SESSION_COOKIE", "sid"),
			SecureCookie: env == "production",
		},
		Chat: ChatConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("CHAT_MODEL", "gpt-4o"),
			Persona: getEnv("CHAT_PERSONA", defaultPersona),
			Timeout: chatTimeout,
		},
		CacheTTL: 15 * time.Minute,
	}, nil
}

// IsProduction reports whether demo seeding should be skipped.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	if c.DB.Host == "" || c.DB.DBName == "" {
		return fmt.Errorf("DB_HOST and DB_NAME are required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("CHAT_MODEL is required")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
