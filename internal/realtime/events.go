package realtime

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ChangeSource tells what kind of call produced a ChangeEvent.
type ChangeSource string

const (
	SourceInitialize ChangeSource = "initialize"
	SourceLocal      ChangeSource = "local"
	SourceRemote     ChangeSource = "remote"
	SourceConfirm    ChangeSource = "confirm"
	SourceRollback   ChangeSource = "rollback"
	SourceRetry      ChangeSource = "retry"
	SourceClear      ChangeSource = "clear"
)

// ChangeEvent is emitted after any local or remote mutation of State or of
// the pending registry.
type ChangeEvent struct {
	Fields      State
	Source      ChangeSource
	OperationID OperationID
	Type        OperationType
}

// ConflictEvent is emitted for every recorded ConflictInfo.
type ConflictEvent struct {
	Conflict ConflictInfo
}

// OperationFailedEvent is emitted when an operation transitions to FAILED.
// RetryEligible reports whether the operation went back to PENDING.
type OperationFailedEvent struct {
	Err           error
	OperationID   OperationID
	Retries       int
	MaxRetries    int
	RetryEligible bool
}

// ConfirmedEvent is emitted when an operation transitions to CONFIRMED.
type ConfirmedEvent struct {
	ServerData  State
	OperationID OperationID
}

// RolledBackEvent is emitted when an operation is undone. Restored holds the
// current values of the fields the operation touched; Removed lists fields
// that no longer exist after the rollback.
type RolledBackEvent struct {
	Restored    State
	OperationID OperationID
	Removed     []string
}

type subscriber[E any] struct {
	fn func(E)
	id uint64
}

// topic одна таблица подписчиков для одного вида события.
type topic[E any] struct {
	name   string
	subs   []subscriber[E]
	nextID uint64
	mu     sync.Mutex
}

func (t *topic[E]) subscribe(fn func(E)) func() {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[E]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subs {
				if s.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (t *topic[E]) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// emit вызывает подписчиков по порядку подписки. Паника одного подписчика
// логируется и не мешает доставке остальным.
func (t *topic[E]) emit(logger *slog.Logger, ev E) {
	t.mu.Lock()
	subs := make([]subscriber[E], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		deliver(logger, t.name, s, ev)
	}
}

func deliver[E any](logger *slog.Logger, name string, s subscriber[E], ev E) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Listener panic recovered",
				"event", name,
				"subscriber_id", s.id,
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.fn(ev)
}

// bus набор таблиц подписчиков, по одной на вид события.
type bus struct {
	change     topic[ChangeEvent]
	conflict   topic[ConflictEvent]
	failed     topic[OperationFailedEvent]
	confirmed  topic[ConfirmedEvent]
	rolledBack topic[RolledBackEvent]
}

func newBus() *bus {
	return &bus{
		change:     topic[ChangeEvent]{name: "change"},
		conflict:   topic[ConflictEvent]{name: "conflict"},
		failed:     topic[OperationFailedEvent]{name: "operationFailed"},
		confirmed:  topic[ConfirmedEvent]{name: "confirmed"},
		rolledBack: topic[RolledBackEvent]{name: "rolledBack"},
	}
}

// pendingEvent событие, собранное под блокировкой и отправляемое после неё.
type pendingEvent func(b *bus, logger *slog.Logger)

func changeEvent(ev ChangeEvent) pendingEvent {
	return func(b *bus, l *slog.Logger) { b.change.emit(l, ev) }
}

func conflictEvent(ev ConflictEvent) pendingEvent {
	return func(b *bus, l *slog.Logger) { b.conflict.emit(l, ev) }
}

func failedEvent(ev OperationFailedEvent) pendingEvent {
	return func(b *bus, l *slog.Logger) { b.failed.emit(l, ev) }
}

func confirmedEvent(ev ConfirmedEvent) pendingEvent {
	return func(b *bus, l *slog.Logger) { b.confirmed.emit(l, ev) }
}

func rolledBackEvent(ev RolledBackEvent) pendingEvent {
	return func(b *bus, l *slog.Logger) { b.rolledBack.emit(l, ev) }
}

// OnChange subscribes to ChangeEvent. The returned function unsubscribes.
func (m *Manager) OnChange(fn func(ChangeEvent)) func() { return m.bus.change.subscribe(fn) }

// OnConflict subscribes to ConflictEvent.
func (m *Manager) OnConflict(fn func(ConflictEvent)) func() { return m.bus.conflict.subscribe(fn) }

// OnOperationFailed subscribes to OperationFailedEvent.
func (m *Manager) OnOperationFailed(fn func(OperationFailedEvent)) func() {
	return m.bus.failed.subscribe(fn)
}

// OnConfirmed subscribes to ConfirmedEvent.
func (m *Manager) OnConfirmed(fn func(ConfirmedEvent)) func() { return m.bus.confirmed.subscribe(fn) }

// OnRolledBack subscribes to RolledBackEvent.
func (m *Manager) OnRolledBack(fn func(RolledBackEvent)) func() {
	return m.bus.rolledBack.subscribe(fn)
}

// SubscriberCount возвращает число подписчиков на все виды событий.
func (m *Manager) SubscriberCount() int {
	return m.bus.change.count() + m.bus.conflict.count() + m.bus.failed.count() +
		m.bus.confirmed.count() + m.bus.rolledBack.count()
}
