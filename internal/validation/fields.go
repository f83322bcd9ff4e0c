package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxKeyLen максимальная длина ключа состояния в байтах
	MaxKeyLen = 128
	// MaxFieldsPerUpdate ограничение на число ключей в одном изменении
	MaxFieldsPerUpdate = 256
)

// ValidateStateKey проверяет ключ верхнего уровня состояния документа.
// Точка запрещена: она разделяет сегменты пути при чтении значения.
func ValidateStateKey(key string) error {
	if key == "" {
		return fmt.Errorf("state key cannot be empty")
	}
	if len(key) > MaxKeyLen {
		return fmt.Errorf("state key must not exceed %d bytes", MaxKeyLen)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("state key %q is not valid UTF-8", key)
	}
	if strings.Contains(key, ".") {
		return fmt.Errorf("state key %q must not contain '.'", key)
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("state key %q has leading or trailing spaces", key)
	}
	return nil
}

// ValidateFields проверяет все ключи одного изменения
func ValidateFields(fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("update has no fields")
	}
	if len(fields) > MaxFieldsPerUpdate {
		return fmt.Errorf("update must not exceed %d fields", MaxFieldsPerUpdate)
	}
	for key := range fields {
		if err := ValidateStateKey(key); err != nil {
			return err
		}
	}
	return nil
}
