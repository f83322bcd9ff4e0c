package realtime

import (
	"reflect"
	"time"
)

// ConflictInfo records a field touched by both a pending local operation and
// an incoming remote update with a different value. Immutable once recorded.
type ConflictInfo struct {
	Timestamp   time.Time
	LocalValue  any
	RemoteValue any
	OperationID OperationID
	Field       string
}

// Resolution is the outcome a Resolver chooses for one conflicting field.
type Resolution int

const (
	// ResolveRemote: удалённое значение становится видимым в State,
	// локальное наложение по этому полю отключается.
	ResolveRemote Resolution = iota
	// ResolveLocal: локальное значение остаётся видимым, пока операция не завершится.
	ResolveLocal
)

// Resolver decides which side of a conflict is visible in State. The
// conflict is recorded regardless of the decision.
type Resolver interface {
	Resolve(conflict ConflictInfo, op PendingOperation) Resolution
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(conflict ConflictInfo, op PendingOperation) Resolution

func (f ResolverFunc) Resolve(conflict ConflictInfo, op PendingOperation) Resolution {
	return f(conflict, op)
}

// Compile-time checks
var (
	_ Resolver = RemoteWins{}
	_ Resolver = LocalWins{}
	_ Resolver = ResolverFunc(nil)
)

// RemoteWins is the default policy: the server's concurrent write is shown.
type RemoteWins struct{}

func (RemoteWins) Resolve(ConflictInfo, PendingOperation) Resolution { return ResolveRemote }

// LocalWins keeps the optimistic value visible until the operation settles.
type LocalWins struct{}

func (LocalWins) Resolve(ConflictInfo, PendingOperation) Resolution { return ResolveLocal }

// detectConflicts сравнивает входящие поля с данными всех операций реестра
// (включая подтверждённые в пределах окна удержания) в порядке применения.
func (m *Manager) detectConflicts(remote State, at time.Time) []ConflictInfo {
	var found []ConflictInfo
	for _, id := range m.order {
		entry := m.ops[id]
		for field, remoteValue := range remote {
			localValue, ok := entry.op.Data[field]
			if !ok || valuesEqual(localValue, remoteValue) {
				continue
			}
			found = append(found, ConflictInfo{
				OperationID: id,
				Field:       field,
				LocalValue:  cloneValue(localValue),
				RemoteValue: cloneValue(remoteValue),
				Timestamp:   at,
			})
		}
	}
	return found
}

// valuesEqual сравнивает значения с учётом того, что числа, пришедшие
// из JSON, декодируются в float64. Контейнеры к этому моменту уже приведены
// к дереву map[string]any и []any (см. cloneValue).
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case State:
		return normalize(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
