package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophdash/internal/realtime"
	"github.com/iudanet/gophdash/pkg/api"
)

func TestAdapter_SendConfirms(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t, "alice", "main")
	m := newBoundManager(t, c)

	_, err := Sync(context.Background(), c, m)
	require.NoError(t, err)

	id := m.Apply(realtime.WidgetUpdate{WidgetID: "w1", Config: map[string]any{"title": "CPU"}})
	require.NoError(t, m.Send(context.Background(), id, nil))

	op, ok := m.PendingOperation(id)
	require.True(t, ok)
	assert.Equal(t, realtime.StatusConfirmed, op.Status)

	status := m.SyncStatus()
	assert.True(t, status.IsSynced)
	assert.Zero(t, status.PendingCount)

	v, ok := m.StateValue("widget:w1.title")
	require.True(t, ok)
	assert.Equal(t, "CPU", v)
}

func TestAdapter_NackRollsBack(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t, "alice", "main")
	m := newBoundManager(t, c)

	var rolledBack []realtime.OperationID
	m.OnRolledBack(func(ev realtime.RolledBackEvent) { rolledBack = append(rolledBack, ev.OperationID) })

	id := m.Apply(realtime.Patch{Values: realtime.State{"bad.key": 1}}, realtime.WithMaxRetries(0))
	err := m.Send(context.Background(), id, nil)

	var re *realtime.ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, api.CodeInvalidKey, re.Code)

	_, ok := m.PendingOperation(id)
	assert.False(t, ok)
	assert.Equal(t, []realtime.OperationID{id}, rolledBack)
	assert.Empty(t, m.State())
}

func TestSync_LoadsSnapshot(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice", "main")

	_, err := alice.Request(context.Background(), api.TypeOptimisticUpdate, map[string]any{"theme": "dark"})
	require.NoError(t, err)

	bob := ts.dial(t, "bob", "main")
	m := newBoundManager(t, bob)

	version, err := Sync(context.Background(), bob, m)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, realtime.State{"theme": "dark"}, m.State())
	assert.False(t, m.SyncStatus().LastSync.IsZero())
}

func TestBind_RemoteUpdateConflicts(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "alice", "main")
	bob := ts.dial(t, "bob", "main")

	m := newBoundManager(t, bob)
	_, err := Sync(context.Background(), bob, m)
	require.NoError(t, err)

	conflicts := make(chan realtime.ConflictEvent, 1)
	m.OnConflict(func(ev realtime.ConflictEvent) { conflicts <- ev })

	// локальная правка bob еще не отправлена
	id := m.Apply(realtime.Patch{Values: realtime.State{"title": "Bob"}})

	_, err = alice.Request(context.Background(), api.TypeOptimisticUpdate, map[string]any{"title": "Alice"})
	require.NoError(t, err)

	select {
	case ev := <-conflicts:
		assert.Equal(t, id, ev.Conflict.OperationID)
		assert.Equal(t, "title", ev.Conflict.Field)
		assert.Equal(t, "Bob", ev.Conflict.LocalValue)
		assert.Equal(t, "Alice", ev.Conflict.RemoteValue)
	case <-time.After(2 * time.Second):
		t.Fatal("conflict not reported")
	}

	// по умолчанию побеждает удаленное значение
	v, ok := m.StateValue("title")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestAdapter_ClosedConnection(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t, "alice", "main")
	m := newBoundManager(t, c)
	require.NoError(t, c.Close())

	id := m.Apply(realtime.Patch{Values: realtime.State{"x": 1}}, realtime.WithMaxRetries(2))
	err := m.Send(context.Background(), id, nil)
	assert.ErrorIs(t, err, ErrClosed)

	op, ok := m.PendingOperation(id)
	require.True(t, ok)
	assert.Equal(t, realtime.StatusPending, op.Status)
	assert.Equal(t, 1, op.Retries)
}
