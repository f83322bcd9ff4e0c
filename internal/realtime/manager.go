package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// SyncStatus summarises how far local state is from the server view.
type SyncStatus struct {
	LastSync      time.Time
	PendingCount  int
	ConflictCount int
	IsSynced      bool
}

// Manager is the optimistic state synchronization engine for one document.
//
// All methods are safe for concurrent use. A single mutex guards state, the
// operation registry and the conflict log; events are delivered after the
// mutex is released, synchronously, before the triggering method returns.
type Manager struct {
	baseline  State
	state     State
	ops       map[OperationID]*operationEntry
	lastSync  time.Time
	resolver  Resolver
	transport Transport
	logger    *slog.Logger
	seq       *Sequencer
	bus       *bus
	now       func() time.Time
	afterFunc func(time.Duration, func()) func() bool
	order     []OperationID
	conflicts []ConflictInfo

	retention         time.Duration
	defaultMaxRetries int
	// generation увеличивается в Clear, чтобы устаревшие таймеры очистки ничего не делали.
	generation uint64
	mu         sync.Mutex
}

// Option настраивает Manager.
type Option func(*Manager)

// WithLogger задаёт логгер. По умолчанию логи отбрасываются.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithResolver заменяет политику разрешения конфликтов (по умолчанию RemoteWins).
// Resolver вызывается под блокировкой менеджера и не должен обращаться к нему.
func WithResolver(r Resolver) Option {
	return func(m *Manager) {
		if r != nil {
			m.resolver = r
		}
	}
}

// WithTransport подключает транспорт, используемый Send.
func WithTransport(t Transport) Option {
	return func(m *Manager) { m.transport = t }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithAfterFunc подменяет планировщик отложенной очистки подтверждённых операций.
// Возвращаемая функция отменяет запланированный вызов.
func WithAfterFunc(after func(time.Duration, func()) func() bool) Option {
	return func(m *Manager) {
		if after != nil {
			m.afterFunc = after
		}
	}
}

// WithConfirmedRetention задаёт окно удержания подтверждённых операций.
// Ноль или отрицательное значение удаляет операцию сразу после подтверждения.
func WithConfirmedRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

// WithDefaultMaxRetries задаёт лимит повторов для операций без WithMaxRetries.
func WithDefaultMaxRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.defaultMaxRetries = n
		}
	}
}

// WithSequencer задаёт генератор идентификаторов операций.
func WithSequencer(s *Sequencer) Option {
	return func(m *Manager) {
		if s != nil {
			m.seq = s
		}
	}
}

// NewManager creates an empty engine.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		baseline:          State{},
		state:             State{},
		ops:               make(map[OperationID]*operationEntry),
		resolver:          RemoteWins{},
		logger:            slog.New(slog.DiscardHandler),
		seq:               NewSequencer(),
		bus:               newBus(),
		now:               time.Now,
		retention:         DefaultConfirmedRetention,
		defaultMaxRetries: DefaultMaxRetries,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize replaces the confirmed baseline with a server snapshot and
// resets the sync clock. Operations still in flight keep their overlay.
func (m *Manager) Initialize(snapshot State) {
	m.mu.Lock()
	m.baseline = snapshot.Clone()
	m.lastSync = m.now()
	m.recompute()
	ev := changeEvent(ChangeEvent{Source: SourceInitialize, Fields: m.state.Clone()})
	pending := m.activeCountLocked()
	m.mu.Unlock()

	m.logger.Info("State initialized", "keys", len(snapshot), "pending", pending)
	m.dispatch([]pendingEvent{ev})
}

// Clear resets state, registry and conflict log. Subscriptions survive.
func (m *Manager) Clear() {
	m.mu.Lock()
	for _, entry := range m.ops {
		if entry.stopPurge != nil {
			entry.stopPurge()
		}
	}
	dropped := len(m.ops)
	m.generation++
	m.baseline = State{}
	m.state = State{}
	m.ops = make(map[OperationID]*operationEntry)
	m.order = nil
	m.conflicts = nil
	m.lastSync = time.Time{}
	m.mu.Unlock()

	m.logger.Info("State cleared", "dropped_operations", dropped)
	m.dispatch([]pendingEvent{changeEvent(ChangeEvent{Source: SourceClear, Fields: State{}})})
}

// State returns a deep copy of the reconciled state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// StateValue resolves a dot-separated path ("widget:w-1.config.title",
// "layout:main.items.0.x"). ok is false when any segment is missing, which
// callers should read as "not yet known".
func (m *Manager) StateValue(path string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lookupPath(m.state, path)
}

// PendingOperations returns unconfirmed operations in application order.
func (m *Manager) PendingOperations() []PendingOperation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PendingOperation, 0, len(m.order))
	for _, id := range m.order {
		entry := m.ops[id]
		if entry.op.active() {
			out = append(out, entry.op.clone())
		}
	}
	return out
}

// PendingOperation returns an operation from the registry, including a
// confirmed one that is still inside the retention window.
func (m *Manager) PendingOperation(id OperationID) (PendingOperation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.ops[id]
	if !ok {
		return PendingOperation{}, false
	}
	return entry.op.clone(), true
}

// Conflicts returns every recorded conflict in detection order.
func (m *Manager) Conflicts() []ConflictInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ConflictInfo, len(m.conflicts))
	for i, c := range m.conflicts {
		out[i] = cloneConflict(c)
	}
	return out
}

// ConflictsFor returns the conflicts attributed to one operation.
func (m *Manager) ConflictsFor(id OperationID) []ConflictInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ConflictInfo
	for _, c := range m.conflicts {
		if c.OperationID == id {
			out = append(out, cloneConflict(c))
		}
	}
	return out
}

// ClearConflicts drops the whole conflict log.
func (m *Manager) ClearConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts = nil
}

// ClearConflictsFor drops the conflicts attributed to one operation.
func (m *Manager) ClearConflictsFor(id OperationID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.conflicts[:0]
	for _, c := range m.conflicts {
		if c.OperationID != id {
			kept = append(kept, c)
		}
	}
	m.conflicts = kept
}

// SyncStatus returns the current sync summary.
func (m *Manager) SyncStatus() SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.activeCountLocked()
	return SyncStatus{
		LastSync:      m.lastSync,
		PendingCount:  pending,
		ConflictCount: len(m.conflicts),
		IsSynced:      pending == 0,
	}
}

func (m *Manager) activeCountLocked() int {
	n := 0
	for _, entry := range m.ops {
		if entry.op.active() {
			n++
		}
	}
	return n
}

// recompute пересобирает состояние: baseline плюс наложения активных операций
// в порядке применения, без подавленных полей.
func (m *Manager) recompute() {
	next := make(State, len(m.baseline))
	for k, v := range m.baseline {
		next[k] = v
	}
	for _, id := range m.order {
		entry := m.ops[id]
		if !entry.op.active() {
			continue
		}
		for k, v := range entry.op.Data {
			if _, off := entry.suppressed[k]; off {
				continue
			}
			next[k] = v
		}
	}
	m.state = next
}

// view возвращает копии текущих значений для заданных ключей и список отсутствующих.
func (m *Manager) view(keys []string) (State, []string) {
	present := make(State, len(keys))
	var missing []string
	for _, k := range keys {
		if v, ok := m.state[k]; ok {
			present[k] = cloneValue(v)
		} else {
			missing = append(missing, k)
		}
	}
	return present, missing
}

func (m *Manager) removeFromOrder(id OperationID) {
	for i, cur := range m.order {
		if cur == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func (m *Manager) dispatch(events []pendingEvent) {
	for _, ev := range events {
		ev(m.bus, m.logger)
	}
}

func cloneConflict(c ConflictInfo) ConflictInfo {
	c.LocalValue = cloneValue(c.LocalValue)
	c.RemoteValue = cloneValue(c.RemoteValue)
	return c
}
