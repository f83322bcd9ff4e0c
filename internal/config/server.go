package config

import (
	"fmt"
	"os"
	"time"
)

// MinSecretLen минимальная длина секрета подписи JWT
const MinSecretLen = 32

// RateLimitConfig параметры token bucket
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ServerConfig настройки сервера
type ServerConfig struct {
	Log             LogConfig       `yaml:"log"`
	HTTPRateLimit   RateLimitConfig `yaml:"http_rate_limit"`
	MutationLimit   RateLimitConfig `yaml:"mutation_rate_limit"`
	Addr            string          `yaml:"addr"`
	DBPath          string          `yaml:"db"`
	JWTSecret       string          `yaml:"jwt_secret"`
	TokenTTL        time.Duration   `yaml:"token_ttl"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	PingInterval    time.Duration   `yaml:"ping_interval"`
}

// DefaultServerConfig значения по умолчанию
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Log:             LogConfig{Level: "info", Format: "text"},
		HTTPRateLimit:   RateLimitConfig{RPS: 10, Burst: 20},
		MutationLimit:   RateLimitConfig{RPS: 50, Burst: 100},
		Addr:            ":8080",
		DBPath:          "gophdash.db",
		TokenTTL:        24 * time.Hour,
		ShutdownTimeout: 10 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
	}
}

// LoadServer собирает конфигурацию сервера: defaults -> файл -> окружение -> Validate
func LoadServer(path string) (ServerConfig, error) {
	return loadServer(path, os.Getenv)
}

func loadServer(path string, getenv envReader) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	getenv.str("ADDR", &cfg.Addr)
	getenv.str("DB", &cfg.DBPath)
	getenv.str("JWT_SECRET", &cfg.JWTSecret)
	getenv.str("LOG_LEVEL", &cfg.Log.Level)
	getenv.str("LOG_FORMAT", &cfg.Log.Format)
	getenv.duration("TOKEN_TTL", &cfg.TokenTTL)
	getenv.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	getenv.duration("WRITE_TIMEOUT", &cfg.WriteTimeout)
	getenv.duration("PING_INTERVAL", &cfg.PingInterval)
	getenv.float("RATE_LIMIT_RPS", &cfg.HTTPRateLimit.RPS)
	getenv.integer("RATE_LIMIT_BURST", &cfg.HTTPRateLimit.Burst)
	getenv.float("MUTATION_RATE_LIMIT_RPS", &cfg.MutationLimit.RPS)
	getenv.integer("MUTATION_RATE_LIMIT_BURST", &cfg.MutationLimit.Burst)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет значения
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	if len(c.JWTSecret) < MinSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d bytes", MinSecretLen)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be > 0")
	}
	if c.ShutdownTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout and write_timeout must be > 0")
	}
	if c.PingInterval < 0 {
		return fmt.Errorf("ping_interval must be >= 0")
	}
	for name, rl := range map[string]RateLimitConfig{
		"http_rate_limit":     c.HTTPRateLimit,
		"mutation_rate_limit": c.MutationLimit,
	} {
		if rl.RPS <= 0 || rl.Burst < 1 {
			return fmt.Errorf("%s: rps must be > 0 and burst >= 1", name)
		}
	}
	return c.Log.Validate()
}
