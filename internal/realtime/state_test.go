package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPath(t *testing.T) {
	state := State{
		"title": "Dashboard",
		"empty": nil,
		"widget:w-1": map[string]any{
			"config": map[string]any{"title": "Revenue", "limit": 10},
		},
		"layout:main": map[string]any{
			"items": []any{
				map[string]any{"widgetId": "w-1", "x": 0},
				map[string]any{"widgetId": "w-2", "x": 6},
			},
		},
	}

	tests := []struct {
		want   any
		name   string
		path   string
		wantOK bool
	}{
		{name: "top level", path: "title", want: "Dashboard", wantOK: true},
		{name: "nested", path: "widget:w-1.config.title", want: "Revenue", wantOK: true},
		{name: "slice index", path: "layout:main.items.1.x", want: 6, wantOK: true},
		{name: "explicit nil", path: "empty", want: nil, wantOK: true},
		{name: "missing top level", path: "nope", wantOK: false},
		{name: "missing nested", path: "widget:w-1.config.nope", wantOK: false},
		{name: "through scalar", path: "title.length", wantOK: false},
		{name: "through nil", path: "empty.x", wantOK: false},
		{name: "bad index", path: "layout:main.items.x", wantOK: false},
		{name: "index out of range", path: "layout:main.items.5", wantOK: false},
		{name: "empty path", path: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookupPath(state, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_CloneIsDeep(t *testing.T) {
	orig := State{
		"cfg": map[string]any{"tags": []any{"a"}},
	}

	cp := orig.Clone()
	cp["cfg"].(map[string]any)["tags"].([]any)[0] = "changed"

	assert.Equal(t, "a", orig["cfg"].(map[string]any)["tags"].([]any)[0])
}

func TestCloneValue_TypedContainers(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	tests := []struct {
		value any
		want  any
		name  string
	}{
		{name: "int slice", value: []int{1, 2}, want: []any{float64(1), float64(2)}},
		{name: "string slice", value: []string{"x"}, want: []any{"x"}},
		{name: "string map", value: map[string]string{"title": "a"}, want: map[string]any{"title": "a"}},
		{name: "float slice", value: []float64{0.5}, want: []any{0.5}},
		{name: "struct", value: point{X: 1, Y: 2}, want: map[string]any{"x": float64(1), "y": float64(2)}},
		{
			name:  "nested typed in tree",
			value: map[string]any{"ids": []int64{7}},
			want:  map[string]any{"ids": []any{float64(7)}},
		},
		{name: "scalar kept", value: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cloneValue(tt.value))
		})
	}
}

func TestManager_TypedValuesAreOwned(t *testing.T) {
	m, _ := newTestManager(t)

	tags := []int{1, 2}
	meta := map[string]string{"title": "a"}
	id := m.Apply(patch(State{"tags": tags, "meta": meta}))

	// исходные значения вызывающего больше не связаны с движком
	tags[0] = 99
	meta["title"] = "mutated"
	assert.Equal(t, []any{float64(1), float64(2)}, m.State()["tags"])
	assert.Equal(t, map[string]any{"title": "a"}, m.State()["meta"])

	got := m.State()
	got["tags"].([]any)[0] = float64(42)
	got["meta"].(map[string]any)["title"] = "mutated"
	assert.Equal(t, []any{float64(1), float64(2)}, m.State()["tags"])
	assert.Equal(t, map[string]any{"title": "a"}, m.State()["meta"])

	op, ok := m.PendingOperation(id)
	require.True(t, ok)
	op.Data["tags"].([]any)[1] = float64(0)
	assert.Equal(t, []any{float64(1), float64(2)}, m.State()["tags"])
}

func TestManager_RollbackRestoresTypedOriginal(t *testing.T) {
	m, _ := newTestManager(t)

	snapshot := []string{"a", "b"}
	m.Initialize(State{"list": snapshot})
	snapshot[0] = "mutated"

	id := m.Apply(patch(State{"list": []string{"c"}}))
	op, _ := m.PendingOperation(id)
	op.OriginalData["list"].([]any)[0] = "mutated"

	require.True(t, m.Rollback(id))
	assert.Equal(t, []any{"a", "b"}, m.State()["list"])
}

func TestManager_ConfirmServerDataIsOwned(t *testing.T) {
	m, _ := newTestManager(t)

	id := m.Apply(patch(State{"a": 1}))
	server := State{"ids": []int{5}}
	require.True(t, m.Confirm(id, server))
	server["ids"].([]int)[0] = 6

	assert.Equal(t, []any{float64(5)}, m.State()["ids"])
}

func TestState_CloneNil(t *testing.T) {
	var s State
	cp := s.Clone()
	require.NotNil(t, cp)
	assert.Empty(t, cp)
}

func TestPayloadFields(t *testing.T) {
	layout := LayoutUpdate{
		LayoutID: "main",
		Columns:  12,
		Items:    []LayoutItem{{WidgetID: "w-1", X: 0, Y: 0, W: 6, H: 4}},
	}
	fields := layout.Fields()
	require.Contains(t, fields, LayoutKey("main"))

	m, _ := newTestManager(t)
	m.Apply(layout)

	w, ok := m.StateValue("layout:main.items.0.w")
	require.True(t, ok)
	assert.Equal(t, 6, w)

	assert.Equal(t, TypeLayoutUpdate, layout.OperationType())
	assert.Equal(t, TypeWidgetUpdate, WidgetUpdate{}.OperationType())
	assert.Equal(t, TypeOptimisticUpdate, Patch{}.OperationType())
	assert.Equal(t, OperationType("CUSTOM"), Patch{Type: "CUSTOM"}.OperationType())
}
