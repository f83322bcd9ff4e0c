package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRemoteUpdate_ConflictRecordedNotBlocking(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.Apply(patch(State{"x": 1}))

	var received []ConflictEvent
	m.OnConflict(func(ev ConflictEvent) {
		received = append(received, ev)
	})

	m.ApplyRemoteUpdate(patch(State{"x": 2}))

	assert.Equal(t, 2, m.State()["x"], "remote value wins")

	conflicts := m.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, id, conflicts[0].OperationID)
	assert.Equal(t, "x", conflicts[0].Field)
	assert.Equal(t, 1, conflicts[0].LocalValue)
	assert.Equal(t, 2, conflicts[0].RemoteValue)
	assert.False(t, conflicts[0].Timestamp.IsZero())

	require.Len(t, received, 1, "conflict event is emitted synchronously")
	assert.Equal(t, conflicts[0], received[0].Conflict)

	op, ok := m.PendingOperation(id)
	require.True(t, ok, "conflict does not cancel the operation")
	assert.Equal(t, StatusPending, op.Status)
	assert.Equal(t, 1, m.SyncStatus().ConflictCount)
}

func TestApplyRemoteUpdate_NoConflictForEqualValues(t *testing.T) {
	m, _ := newTestManager(t)
	m.Apply(patch(State{"x": 1, "cfg": map[string]any{"size": 3}}))

	// числа из JSON приходят как float64
	m.ApplyRemoteUpdate(patch(State{"x": float64(1), "cfg": map[string]any{"size": float64(3)}}))

	assert.Empty(t, m.Conflicts())
}

func TestApplyRemoteUpdate_TypedLocalMatchesDecodedRemote(t *testing.T) {
	m, _ := newTestManager(t)
	m.Apply(patch(State{
		"ids":  []int{1, 2},
		"meta": map[string]string{"owner": "ops"},
	}))

	m.ApplyRemoteUpdate(patch(State{
		"ids":  []any{float64(1), float64(2)},
		"meta": map[string]any{"owner": "ops"},
	}))
	assert.Empty(t, m.Conflicts())

	m.ApplyRemoteUpdate(patch(State{"ids": []any{float64(1), float64(3)}}))
	conflicts := m.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "ids", conflicts[0].Field)
	assert.Equal(t, []any{float64(1), float64(2)}, conflicts[0].LocalValue)
}

func TestApplyRemoteUpdate_UntouchedFieldsMergeSilently(t *testing.T) {
	m, _ := newTestManager(t)
	m.Apply(patch(State{"x": 1}))

	m.ApplyRemoteUpdate(patch(State{"y": "remote"}))

	assert.Empty(t, m.Conflicts())
	assert.Equal(t, 1, m.State()["x"])
	assert.Equal(t, "remote", m.State()["y"])
}

func TestApplyRemoteUpdate_RollbackAfterRemoteWinKeepsRemote(t *testing.T) {
	m, _ := newTestManager(t)
	m.Initialize(State{"x": 0})
	id := m.Apply(patch(State{"x": 1}))

	m.ApplyRemoteUpdate(patch(State{"x": 2}))
	m.Rollback(id)

	assert.Equal(t, 2, m.State()["x"], "remote value is the confirmed baseline")
	assert.Len(t, m.Conflicts(), 1, "conflicts survive removal of the operation")
}

func TestApplyRemoteUpdate_MultipleOperations(t *testing.T) {
	m, _ := newTestManager(t)
	first := m.Apply(patch(State{"x": 1}))
	second := m.Apply(patch(State{"x": 2, "y": "local"}))

	m.ApplyRemoteUpdate(patch(State{"x": 2, "y": "remote"}))

	conflicts := m.Conflicts()
	require.Len(t, conflicts, 2)
	assert.Len(t, m.ConflictsFor(first), 1, "x differs only from the first op")
	assert.Len(t, m.ConflictsFor(second), 1, "y differs on the second op")
	assert.Equal(t, "remote", m.State()["y"])
	assert.Equal(t, 2, m.State()["x"])
}

func TestApplyRemoteUpdate_LocalWinsResolver(t *testing.T) {
	m, _ := newTestManager(t, WithResolver(LocalWins{}))
	id := m.Apply(patch(State{"x": 1}))

	m.ApplyRemoteUpdate(patch(State{"x": 2}))
	assert.Equal(t, 1, m.State()["x"], "local overlay stays visible")
	assert.Len(t, m.Conflicts(), 1, "still recorded")

	m.Rollback(id)
	assert.Equal(t, 2, m.State()["x"], "remote value underneath becomes visible")
}

func TestApplyRemoteUpdate_ResolverPerField(t *testing.T) {
	resolver := ResolverFunc(func(c ConflictInfo, op PendingOperation) Resolution {
		if c.Field == "title" {
			return ResolveLocal
		}
		return ResolveRemote
	})
	m, _ := newTestManager(t, WithResolver(resolver))
	m.Apply(patch(State{"title": "mine", "color": "red"}))

	m.ApplyRemoteUpdate(patch(State{"title": "theirs", "color": "blue"}))

	state := m.State()
	assert.Equal(t, "mine", state["title"])
	assert.Equal(t, "blue", state["color"])
}

func TestApplyRemoteUpdate_AttributesToConfirmedInRetention(t *testing.T) {
	m, timers := newTestManager(t)
	id := m.Apply(patch(State{"x": 1}))
	m.Confirm(id, nil)

	m.ApplyRemoteUpdate(patch(State{"x": 3}))

	require.Len(t, m.ConflictsFor(id), 1, "late conflict still attributed for audit")
	assert.Equal(t, 3, m.State()["x"])

	timers.fire()
	m.ApplyRemoteUpdate(patch(State{"x": 4}))
	assert.Len(t, m.Conflicts(), 1, "purged operations no longer attract conflicts")
}

func TestClearConflicts(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.Apply(patch(State{"a": 1}))
	b := m.Apply(patch(State{"b": 1}))
	m.ApplyRemoteUpdate(patch(State{"a": 2, "b": 2}))
	require.Len(t, m.Conflicts(), 2)

	m.ClearConflictsFor(a)
	assert.Empty(t, m.ConflictsFor(a))
	assert.Len(t, m.ConflictsFor(b), 1)

	m.ClearConflicts()
	assert.Empty(t, m.Conflicts())
	assert.Equal(t, 0, m.SyncStatus().ConflictCount)
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b any
		name string
		want bool
	}{
		{name: "int vs float", a: 3, b: float64(3), want: true},
		{name: "different numbers", a: 3, b: 4, want: false},
		{name: "nested maps", a: map[string]any{"n": 1}, b: map[string]any{"n": float64(1)}, want: true},
		{name: "slices", a: []any{1, "a"}, b: []any{float64(1), "a"}, want: true},
		{name: "string vs number", a: "1", b: 1, want: false},
		{name: "nil vs value", a: nil, b: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.a, tt.b))
		})
	}
}
