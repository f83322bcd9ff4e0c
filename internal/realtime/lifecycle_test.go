package realtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_VisibleImmediately(t *testing.T) {
	m, _ := newTestManager(t)

	id := m.Apply(patch(State{"title": "Draft"}))

	assert.Equal(t, OperationID("op_test_1"), id)
	assert.Equal(t, "Draft", m.State()["title"], "optimistic value must be visible before send")

	op, ok := m.PendingOperation(id)
	require.True(t, ok)
	assert.Equal(t, StatusPending, op.Status)
	assert.Equal(t, TypeOptimisticUpdate, op.Type)
	assert.Equal(t, DefaultMaxRetries, op.MaxRetries)
	assert.Empty(t, op.OriginalData, "title did not exist before")
}

func TestApply_IDsAreMonotonic(t *testing.T) {
	m, _ := newTestManager(t)

	first := m.Apply(patch(State{"a": 1}))
	second := m.Apply(patch(State{"b": 2}))
	m.Clear()
	third := m.Apply(patch(State{"c": 3}))

	assert.Equal(t, OperationID("op_test_1"), first)
	assert.Equal(t, OperationID("op_test_2"), second)
	assert.Equal(t, OperationID("op_test_3"), third, "Clear must not reuse identifiers")
}

func TestRollback_RestoresPreviousValue(t *testing.T) {
	tests := []struct {
		initial   State
		name      string
		wantTitle any
		wantFound bool
	}{
		{name: "title did not exist", initial: State{}, wantFound: false},
		{name: "title existed", initial: State{"title": "Published"}, wantTitle: "Published", wantFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			m.Initialize(tt.initial)

			id := m.Apply(patch(State{"title": "Draft"}))
			require.Equal(t, "Draft", m.State()["title"])

			assert.True(t, m.Rollback(id))

			got, found := m.StateValue("title")
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantTitle, got)
			_, stillThere := m.PendingOperation(id)
			assert.False(t, stillThere)
		})
	}
}

func TestRollback_ExactWithConcurrentUnrelatedOperations(t *testing.T) {
	m, _ := newTestManager(t)
	m.Initialize(State{"a": "Y", "b": 0, "c": 0})

	before := m.Apply(patch(State{"b": 1}))
	target := m.Apply(patch(State{"a": "X"}))
	after := m.Apply(patch(State{"c": 1}))

	m.Rollback(target)

	state := m.State()
	assert.Equal(t, "Y", state["a"])
	assert.Equal(t, 1, state["b"])
	assert.Equal(t, 1, state["c"])

	for _, id := range []OperationID{before, after} {
		op, ok := m.PendingOperation(id)
		require.True(t, ok)
		assert.Equal(t, StatusPending, op.Status)
	}
}

func TestRollback_SameFieldKeepsLaterOperation(t *testing.T) {
	m, _ := newTestManager(t)
	m.Initialize(State{"a": 0})

	first := m.Apply(patch(State{"a": 1}))
	second := m.Apply(patch(State{"a": 2}))
	require.Equal(t, 2, m.State()["a"], "latest applied write wins")

	m.Rollback(first)
	assert.Equal(t, 2, m.State()["a"], "rolling back an earlier op must not hide a later one")

	m.Rollback(second)
	assert.Equal(t, 0, m.State()["a"])
}

func TestConfirm_Idempotent(t *testing.T) {
	m, timers := newTestManager(t)
	id := m.Apply(patch(State{"a": 1}))

	require.True(t, m.Confirm(id, State{"a": 10}))
	snapshot := m.State()

	assert.False(t, m.Confirm(id, State{"a": 99}), "second confirm is a no-op")
	assert.Equal(t, snapshot, m.State())

	timers.fire()
	assert.False(t, m.Confirm(id, State{"a": 77}), "confirm on purged id is a no-op")
	assert.Equal(t, snapshot, m.State())
	assert.False(t, m.Confirm("op_unknown", nil))
}

func TestConfirm_MergesServerDataAndRetains(t *testing.T) {
	m, timers := newTestManager(t)
	id := m.Apply(patch(State{"title": "Draft"}))
	require.True(t, m.MarkSent(id))

	m.Confirm(id, State{"title": "Draft", "updatedBy": "server"})

	state := m.State()
	assert.Equal(t, "Draft", state["title"])
	assert.Equal(t, "server", state["updatedBy"])

	op, ok := m.PendingOperation(id)
	require.True(t, ok, "confirmed operation stays inside the retention window")
	assert.Equal(t, StatusConfirmed, op.Status)
	assert.Empty(t, m.PendingOperations())
	require.Len(t, timers.durations, 1)
	assert.Equal(t, DefaultConfirmedRetention, timers.durations[0])

	timers.fire()
	_, ok = m.PendingOperation(id)
	assert.False(t, ok, "purged after retention")
	assert.Equal(t, "Draft", m.State()["title"], "purge does not touch state")
}

func TestConfirm_ZeroRetentionPurgesImmediately(t *testing.T) {
	m, _ := newTestManager(t, WithConfirmedRetention(0))
	id := m.Apply(patch(State{"a": 1}))

	m.Confirm(id, nil)

	_, ok := m.PendingOperation(id)
	assert.False(t, ok)
	assert.Equal(t, 1, m.State()["a"])
}

func TestConfirm_LaterConfirmedWriteBeatsEarlierPending(t *testing.T) {
	m, _ := newTestManager(t)
	first := m.Apply(patch(State{"a": 1}))
	second := m.Apply(patch(State{"a": 2}))

	m.Confirm(second, nil)
	assert.Equal(t, 2, m.State()["a"])

	m.Rollback(first)
	assert.Equal(t, 2, m.State()["a"])
}

func TestDisjointFields_Independent(t *testing.T) {
	t.Run("confirm", func(t *testing.T) {
		m, _ := newTestManager(t)
		opA := m.Apply(patch(State{"a": "A"}))
		opB := m.Apply(patch(State{"b": "B"}))
		m.MarkSent(opB)

		m.Confirm(opA, State{"a": "A!"})

		opBState, ok := m.PendingOperation(opB)
		require.True(t, ok)
		assert.Equal(t, StatusSent, opBState.Status)
		assert.Equal(t, "B", m.State()["b"])
		assert.Equal(t, "A!", m.State()["a"])
	})

	t.Run("rollback", func(t *testing.T) {
		m, _ := newTestManager(t)
		opA := m.Apply(patch(State{"a": "A"}))
		opB := m.Apply(patch(State{"b": "B"}))

		m.Rollback(opA)

		opBState, ok := m.PendingOperation(opB)
		require.True(t, ok)
		assert.Equal(t, StatusPending, opBState.Status)
		assert.Equal(t, "B", m.State()["b"])
		_, found := m.StateValue("a")
		assert.False(t, found)
	})
}

func TestFail_RetryExhaustion(t *testing.T) {
	for _, maxRetries := range []int{0, 1, 2, 3, 5} {
		m, _ := newTestManager(t)
		m.Initialize(State{"count": 0})
		id := m.Apply(patch(State{"count": 1}), WithMaxRetries(maxRetries))

		calls := maxRetries
		if calls == 0 {
			calls = 1
		}
		for i := 1; i < calls; i++ {
			require.True(t, m.Fail(id, errors.New("boom")))
			op, ok := m.PendingOperation(id)
			require.True(t, ok, "max=%d: still registered after failure %d", maxRetries, i)
			assert.Equal(t, StatusPending, op.Status)
			assert.Equal(t, i, op.Retries)
			assert.Equal(t, 1, m.State()["count"])
		}

		require.True(t, m.Fail(id, errors.New("boom")))
		_, ok := m.PendingOperation(id)
		assert.False(t, ok, "max=%d: rolled back on failure %d", maxRetries, calls)
		assert.Equal(t, 0, m.State()["count"])
	}
}

func TestFail_CountScenario(t *testing.T) {
	m, _ := newTestManager(t)

	id := m.Apply(patch(State{"count": 1}), WithMaxRetries(1))
	m.Fail(id, nil)

	for _, op := range m.PendingOperations() {
		assert.NotEqual(t, id, op.ID)
	}
	_, found := m.StateValue("count")
	assert.False(t, found, "count reverts to its unknown pre-update value")
}

func TestFail_IgnoredForUnknownAndConfirmed(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.Apply(patch(State{"a": 1}))
	m.Confirm(id, nil)

	assert.False(t, m.Fail(id, errors.New("late")))
	assert.False(t, m.Fail("op_missing", nil))
	assert.False(t, m.Rollback(id))
	assert.Equal(t, 1, m.State()["a"])
}

func TestMarkSent_OnlyFromPending(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.Apply(patch(State{"a": 1}))

	assert.True(t, m.MarkSent(id))
	assert.False(t, m.MarkSent(id))
	assert.False(t, m.MarkSent("op_missing"))

	m.Fail(id, nil)
	op, _ := m.PendingOperation(id)
	assert.Equal(t, StatusPending, op.Status)
	assert.True(t, m.MarkSent(id), "retry path makes it sendable again")
}

func TestSyncStatus_MatchesPendingOperations(t *testing.T) {
	m, _ := newTestManager(t)

	check := func() {
		t.Helper()
		status := m.SyncStatus()
		assert.Equal(t, len(m.PendingOperations()) == 0, status.IsSynced)
		assert.Equal(t, len(m.PendingOperations()), status.PendingCount)
	}

	check()
	a := m.Apply(patch(State{"a": 1}))
	check()
	b := m.Apply(patch(State{"b": 1}), WithMaxRetries(1))
	check()
	c := m.Apply(patch(State{"c": 1}))
	check()
	m.Fail(a, nil)
	check()
	m.Fail(b, nil)
	check()
	m.Confirm(a, nil)
	check()
	m.Rollback(c)
	check()
	assert.True(t, m.SyncStatus().IsSynced)
}

func TestGetters_ReturnCopies(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.Apply(WidgetUpdate{WidgetID: "w-1", Config: map[string]any{"title": "Revenue"}})

	state := m.State()
	state[WidgetKey("w-1")].(map[string]any)["title"] = "hacked"
	delete(state, WidgetKey("w-1"))

	op, _ := m.PendingOperation(id)
	op.Data[WidgetKey("w-1")].(map[string]any)["title"] = "hacked"

	got, ok := m.StateValue("widget:w-1.title")
	require.True(t, ok)
	assert.Equal(t, "Revenue", got)
}

func TestClear_ResetsEverything(t *testing.T) {
	m, timers := newTestManager(t)
	m.Initialize(State{"x": 1})
	a := m.Apply(patch(State{"x": 2}))
	m.Confirm(a, nil)
	m.Apply(patch(State{"y": 1}))
	m.ApplyRemoteUpdate(patch(State{"y": 5}))
	require.NotEmpty(t, m.Conflicts())

	m.Clear()

	assert.Empty(t, m.State())
	assert.Empty(t, m.PendingOperations())
	assert.Empty(t, m.Conflicts())
	status := m.SyncStatus()
	assert.True(t, status.IsSynced)
	assert.True(t, status.LastSync.IsZero())

	timers.fire()
	assert.Empty(t, m.State())
}

func TestInitialize_KeepsInFlightOverlay(t *testing.T) {
	m, _ := newTestManager(t)
	m.Apply(patch(State{"a": "local"}))

	m.Initialize(State{"a": "server", "b": "server"})

	state := m.State()
	assert.Equal(t, "local", state["a"])
	assert.Equal(t, "server", state["b"])
	assert.False(t, m.SyncStatus().LastSync.IsZero())
}
