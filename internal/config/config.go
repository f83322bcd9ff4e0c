// Package config загружает настройки клиента и сервера:
// значения по умолчанию, затем YAML файл, затем переменные окружения GOPHDASH_*.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "GOPHDASH_"

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate проверяет уровень и формат логов
func (c LogConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json; got %q", c.Format)
	}
	return nil
}

// decodeFile читает YAML файл в out; отсутствующий файл не ошибка.
// Неизвестные ключи отклоняются, чтобы опечатки не терялись молча.
func decodeFile(path string, out any) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type envReader func(string) string

func (e envReader) str(name string, dst *string) {
	if v := e(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func (e envReader) integer(name string, dst *int) {
	if v := e(EnvPrefix + name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func (e envReader) float(name string, dst *float64) {
	if v := e(EnvPrefix + name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (e envReader) duration(name string, dst *time.Duration) {
	if v := e(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
