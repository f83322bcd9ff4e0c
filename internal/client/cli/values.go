package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iudanet/gophdash/internal/realtime"
	"github.com/iudanet/gophdash/internal/validation"
)

// parseAssignments разбирает аргументы вида key=value.
// Значение читается как JSON, при ошибке остается строкой.
func parseAssignments(args []string) (realtime.State, error) {
	values := make(realtime.State, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		if err := validation.ValidateStateKey(key); err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", arg, err)
		}
		values[key] = parseValue(raw)
	}
	if err := validation.ValidateFields(values); err != nil {
		return nil, err
	}
	return values, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// formatValue компактное JSON представление значения для вывода
func formatValue(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFields печатает поля в порядке ключей
func printFields(w io.Writer, prefix string, fields realtime.State) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s = %s\n", prefix, k, formatValue(fields[k]))
	}
}
