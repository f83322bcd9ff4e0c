package realtime

import (
	"encoding/json"
	"strconv"
	"strings"
)

// State is a flat mapping of top-level keys to structured values.
// Merges are shallow: a key in the incoming map overwrites the whole value.
type State map[string]any

// Clone возвращает глубокую копию состояния.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys возвращает ключи верхнего уровня.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// merge перезаписывает ключи s значениями из other (shallow merge).
func (s State) merge(other State) {
	for k, v := range other {
		s[k] = cloneValue(v)
	}
}

// cloneValue возвращает копию значения, принадлежащую движку. Деревья из
// map[string]any и []any копируются рекурсивно; любые другие контейнеры
// (типизированные срезы, map, структуры) приводятся к виду, в котором они
// пришли бы из JSON, поэтому []int{1, 2} становится []any{1.0, 2.0}.
func cloneValue(v any) any {
	switch val := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case State:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return jsonValue(v)
	}
}

// jsonValue прогоняет значение через encoding/json. Значения, которые
// нельзя закодировать (каналы, функции), возвращаются как есть.
func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// lookupPath resolves a dot-separated path through nested maps and slices.
// Numeric segments index into slices. Any missing segment yields ok == false.
func lookupPath(s State, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = map[string]any(s)

	for _, seg := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = next
		case State:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}

	return cloneValue(current), true
}
