package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// ClientConfig настройки CLI клиента
type ClientConfig struct {
	Log                LogConfig       `yaml:"log"`
	Reconnect          ReconnectConfig `yaml:"reconnect"`
	Server             string          `yaml:"server"`
	DBPath             string          `yaml:"db"`
	Document           string          `yaml:"document"`
	RequestTimeout     time.Duration   `yaml:"request_timeout"`
	PingInterval       time.Duration   `yaml:"ping_interval"`
	ConfirmedRetention time.Duration   `yaml:"confirmed_retention"`
	MaxRetries         int             `yaml:"max_retries"`
}

// DefaultClientConfig значения по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Log:                LogConfig{Level: "warn", Format: "text"},
		Server:             "http://localhost:8080",
		DBPath:             "gophdash-client.db",
		Document:           "main",
		RequestTimeout:     10 * time.Second,
		PingInterval:       30 * time.Second,
		ConfirmedRetention: 5 * time.Second,
		MaxRetries:         3,
		Reconnect: ReconnectConfig{
			Attempts:   5,
			Delay:      time.Second,
			Multiplier: 2,
			MaxDelay:   30 * time.Second,
		},
	}
}

// ReconnectConfig политика переподключения websocket после разрыва.
// Attempts 0 отключает переподключение.
type ReconnectConfig struct {
	Attempts   int           `yaml:"attempts"`
	Delay      time.Duration `yaml:"delay"`
	Multiplier float64       `yaml:"multiplier"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

func (r ReconnectConfig) Validate() error {
	if r.Attempts < 0 {
		return fmt.Errorf("reconnect.attempts must be >= 0")
	}
	if r.Attempts == 0 {
		return nil
	}
	if r.Delay <= 0 {
		return fmt.Errorf("reconnect.delay must be > 0")
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("reconnect.multiplier must be >= 1")
	}
	if r.MaxDelay != 0 && r.MaxDelay < r.Delay {
		return fmt.Errorf("reconnect.max_delay must be >= reconnect.delay")
	}
	return nil
}

// LoadClient собирает конфигурацию клиента: defaults -> файл -> окружение -> Validate
func LoadClient(path string) (ClientConfig, error) {
	return loadClient(path, os.Getenv)
}

func loadClient(path string, getenv envReader) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	getenv.str("SERVER", &cfg.Server)
	getenv.str("DB", &cfg.DBPath)
	getenv.str("DOCUMENT", &cfg.Document)
	getenv.str("LOG_LEVEL", &cfg.Log.Level)
	getenv.str("LOG_FORMAT", &cfg.Log.Format)
	getenv.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	getenv.duration("PING_INTERVAL", &cfg.PingInterval)
	getenv.duration("CONFIRMED_RETENTION", &cfg.ConfirmedRetention)
	getenv.integer("MAX_RETRIES", &cfg.MaxRetries)
	getenv.integer("RECONNECT_ATTEMPTS", &cfg.Reconnect.Attempts)
	getenv.duration("RECONNECT_DELAY", &cfg.Reconnect.Delay)
	getenv.float("RECONNECT_MULTIPLIER", &cfg.Reconnect.Multiplier)
	getenv.duration("RECONNECT_MAX_DELAY", &cfg.Reconnect.MaxDelay)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid client config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет значения
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL; got %q", c.Server)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	if c.Document == "" {
		return fmt.Errorf("document cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be > 0")
	}
	if c.PingInterval < 0 {
		return fmt.Errorf("ping_interval must be >= 0")
	}
	if c.ConfirmedRetention < 0 {
		return fmt.Errorf("confirmed_retention must be >= 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if err := c.Reconnect.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
