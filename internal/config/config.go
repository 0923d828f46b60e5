package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrInvalidRateLimit   = errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	ErrInvalidTimeout     = errors.New("BIGBOX_TIMEOUT must be positive")
	ErrInvalidBaseURL     = errors.New("BIGBOX_BASE_URL must be an absolute http(s) url")
	ErrInvalidConcurrency = errors.New("TOOLS_MAX_CONCURRENCY must be positive")
	ErrInvalidLogLevel    = errors.New("LOG_LEVEL must be one of debug, info, warn, error")
	ErrMissingAddr        = errors.New("HTTP_ADDR is required")
)

type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	BigBox    BigBoxConfig `envPrefix:"BIGBOX_"`
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Tools     ToolsConfig `envPrefix:"TOOLS_"`
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// BigBoxConfig - ключ не имеет значения по умолчанию и в коде не хранится.
// Пустой ключ не ошибка конфигурации: поиск просто вернёт "credential not configured".
type BigBoxConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.bigboxapi.com"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig: пустой URL - журнал активности живёт в памяти
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
}

type ToolsConfig struct {
	MaxConcurrency int `env:"MAX_CONCURRENCY" envDefault:"4"`
}

func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom читает конфиг из переданной карты вместо окружения процесса
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.BigBox.APIKey = strings.TrimSpace(cfg.BigBox.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return ErrMissingAddr
	}
	if !validLogLevel(c.Log.Level) {
		return ErrInvalidLogLevel
	}
	if c.BigBox.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	u, err := url.Parse(c.BigBox.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return ErrInvalidRateLimit
	}
	if c.Tools.MaxConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

func (c *Config) UseDatabase() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
