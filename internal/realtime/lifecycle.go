package realtime

// Apply applies a payload to local state immediately and registers it as a
// PENDING operation. The returned ID drives the rest of the lifecycle.
func (m *Manager) Apply(p Payload, opts ...OperationOption) OperationID {
	fields := p.Fields().Clone()

	m.mu.Lock()
	_, id := m.seq.Next()
	op := PendingOperation{
		ID:           id,
		Type:         p.OperationType(),
		Status:       StatusPending,
		Data:         fields,
		OriginalData: State{},
		Timestamp:    m.now(),
		MaxRetries:   m.defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&op)
	}

	entry := &operationEntry{
		op:         op,
		suppressed: make(map[string]struct{}),
	}
	for k := range fields {
		if v, ok := m.state[k]; ok {
			entry.op.OriginalData[k] = cloneValue(v)
		}
	}

	m.ops[id] = entry
	m.order = append(m.order, id)
	m.recompute()

	visible, _ := m.view(fields.Keys())
	events := []pendingEvent{changeEvent(ChangeEvent{
		Source:      SourceLocal,
		OperationID: id,
		Type:        op.Type,
		Fields:      visible,
	})}
	m.mu.Unlock()

	m.logger.Debug("Optimistic update applied",
		"operation_id", id,
		"type", op.Type,
		"fields", len(fields),
		"max_retries", op.MaxRetries)
	m.dispatch(events)

	return id
}

// MarkSent moves a PENDING operation to SENT. Reports whether the
// transition happened; anything else is a no-op.
func (m *Manager) MarkSent(id OperationID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.ops[id]
	if !ok || entry.op.Status != StatusPending {
		return false
	}
	entry.op.Status = StatusSent
	return true
}

// Confirm marks an operation as accepted by the server and merges the
// optional authoritative server data into the confirmed baseline. Unknown,
// removed or already confirmed IDs are ignored.
func (m *Manager) Confirm(id OperationID, serverData State) bool {
	m.mu.Lock()

	entry, ok := m.ops[id]
	if !ok || !entry.op.active() {
		m.mu.Unlock()
		return false
	}

	entry.op.Status = StatusConfirmed
	position := m.indexOf(id)

	touched := make(map[string]struct{}, len(entry.op.Data)+len(serverData))
	for k, v := range entry.op.Data {
		touched[k] = struct{}{}
		if _, off := entry.suppressed[k]; off {
			continue
		}
		m.baseline[k] = v
		// Подтверждённая запись новее любых более ранних незавершённых операций по этому полю.
		m.suppressEarlier(position, k)
	}
	for k, v := range serverData {
		touched[k] = struct{}{}
		m.baseline[k] = cloneValue(v)
	}

	m.lastSync = m.now()
	m.recompute()
	m.schedulePurge(entry)

	keys := make([]string, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	visible, _ := m.view(keys)
	events := []pendingEvent{
		confirmedEvent(ConfirmedEvent{OperationID: id, ServerData: serverData.Clone()}),
		changeEvent(ChangeEvent{
			Source:      SourceConfirm,
			OperationID: id,
			Type:        entry.op.Type,
			Fields:      visible,
		}),
	}
	m.mu.Unlock()

	m.logger.Debug("Operation confirmed", "operation_id", id, "server_fields", len(serverData))
	m.dispatch(events)

	return true
}

// Fail records a transport failure. While Retries < MaxRetries the operation
// returns to PENDING so the caller may resend it; after that it is rolled
// back. Unknown, removed or confirmed IDs are ignored.
func (m *Manager) Fail(id OperationID, err error) bool {
	m.mu.Lock()

	entry, ok := m.ops[id]
	if !ok || !entry.op.active() {
		m.mu.Unlock()
		return false
	}

	entry.op.Status = StatusFailed
	entry.op.Retries++
	eligible := entry.op.Retries < entry.op.MaxRetries

	events := []pendingEvent{failedEvent(OperationFailedEvent{
		OperationID:   id,
		Err:           err,
		Retries:       entry.op.Retries,
		MaxRetries:    entry.op.MaxRetries,
		RetryEligible: eligible,
	})}

	if eligible {
		entry.op.Status = StatusPending
		visible, _ := m.view(entry.op.Data.Keys())
		events = append(events, changeEvent(ChangeEvent{
			Source:      SourceRetry,
			OperationID: id,
			Type:        entry.op.Type,
			Fields:      visible,
		}))
	} else {
		events = append(events, m.rollbackLocked(entry)...)
	}
	retries, maxRetries := entry.op.Retries, entry.op.MaxRetries
	m.mu.Unlock()

	if eligible {
		m.logger.Warn("Operation failed, retry allowed",
			"operation_id", id, "retries", retries, "max_retries", maxRetries, "error", err)
	} else {
		m.logger.Warn("Operation failed, retries exhausted, rolled back",
			"operation_id", id, "retries", retries, "max_retries", maxRetries, "error", err)
	}
	m.dispatch(events)

	return true
}

// Rollback undoes an unconfirmed operation and removes it from the registry.
// A response for it arriving later is ignored.
func (m *Manager) Rollback(id OperationID) bool {
	m.mu.Lock()

	entry, ok := m.ops[id]
	if !ok || !entry.op.active() {
		m.mu.Unlock()
		return false
	}
	events := m.rollbackLocked(entry)
	m.mu.Unlock()

	m.logger.Debug("Operation rolled back", "operation_id", id)
	m.dispatch(events)

	return true
}

// ApplyRemoteUpdate merges a server-pushed update. Before the merge every
// registry operation is scanned for conflicting fields; each conflict is
// recorded and emitted, then the resolver decides which value stays visible.
// The update itself is never held back.
func (m *Manager) ApplyRemoteUpdate(p Payload) {
	fields := p.Fields().Clone()

	m.mu.Lock()
	now := m.now()
	conflicts := m.detectConflicts(fields, now)

	events := make([]pendingEvent, 0, len(conflicts)+1)
	for _, c := range conflicts {
		m.conflicts = append(m.conflicts, c)
		events = append(events, conflictEvent(ConflictEvent{Conflict: cloneConflict(c)}))

		entry := m.ops[c.OperationID]
		if !entry.op.active() {
			continue
		}
		if m.resolver.Resolve(cloneConflict(c), entry.op.clone()) == ResolveRemote {
			entry.suppressed[c.Field] = struct{}{}
		}
	}

	m.baseline.merge(fields)
	m.lastSync = now
	m.recompute()

	visible, _ := m.view(fields.Keys())
	events = append(events, changeEvent(ChangeEvent{
		Source: SourceRemote,
		Type:   p.OperationType(),
		Fields: visible,
	}))
	m.mu.Unlock()

	if len(conflicts) > 0 {
		m.logger.Info("Remote update conflicts with pending operations",
			"type", p.OperationType(), "conflicts", len(conflicts))
	}
	m.dispatch(events)
}

// rollbackLocked удаляет операцию из реестра и пересобирает состояние.
func (m *Manager) rollbackLocked(entry *operationEntry) []pendingEvent {
	id := entry.op.ID
	delete(m.ops, id)
	m.removeFromOrder(id)
	m.recompute()

	restored, removed := m.view(entry.op.Data.Keys())
	return []pendingEvent{
		rolledBackEvent(RolledBackEvent{OperationID: id, Restored: restored, Removed: removed}),
		changeEvent(ChangeEvent{
			Source:      SourceRollback,
			OperationID: id,
			Type:        entry.op.Type,
			Fields:      restored.Clone(),
		}),
	}
}

// suppressEarlier отключает наложение поля у активных операций, применённых до позиции.
func (m *Manager) suppressEarlier(position int, field string) {
	for _, id := range m.order[:position] {
		entry := m.ops[id]
		if !entry.op.active() {
			continue
		}
		if _, ok := entry.op.Data[field]; ok {
			entry.suppressed[field] = struct{}{}
		}
	}
}

func (m *Manager) indexOf(id OperationID) int {
	for i, cur := range m.order {
		if cur == id {
			return i
		}
	}
	return len(m.order)
}

// schedulePurge удаляет подтверждённую операцию по истечении окна удержания.
func (m *Manager) schedulePurge(entry *operationEntry) {
	id := entry.op.ID
	if m.retention <= 0 {
		delete(m.ops, id)
		m.removeFromOrder(id)
		return
	}
	gen := m.generation
	entry.stopPurge = m.afterFunc(m.retention, func() { m.purge(id, gen) })
}

func (m *Manager) purge(id OperationID, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return
	}
	entry, ok := m.ops[id]
	if !ok || entry.op.Status != StatusConfirmed {
		return
	}
	delete(m.ops, id)
	m.removeFromOrder(id)
	m.logger.Debug("Confirmed operation purged", "operation_id", id)
}
