package realtime

// OperationType tags the kind of mutation an operation carries.
type OperationType string

const (
	TypeWidgetUpdate     OperationType = "WIDGET_UPDATE"
	TypeLayoutUpdate     OperationType = "LAYOUT_UPDATE"
	TypeOptimisticUpdate OperationType = "OPTIMISTIC_UPDATE"
)

// Payload is the typed body of a mutation. Fields returns the top-level
// State keys the mutation touches together with their new values.
type Payload interface {
	OperationType() OperationType
	Fields() State
}

// WidgetKey возвращает ключ состояния, под которым хранится конфигурация виджета.
func WidgetKey(widgetID string) string {
	return "widget:" + widgetID
}

// LayoutKey возвращает ключ состояния для раскладки дашборда.
func LayoutKey(layoutID string) string {
	return "layout:" + layoutID
}

// WidgetUpdate replaces the configuration of a single widget.
type WidgetUpdate struct {
	Config   map[string]any
	WidgetID string
}

func (w WidgetUpdate) OperationType() OperationType { return TypeWidgetUpdate }

func (w WidgetUpdate) Fields() State {
	cfg := make(map[string]any, len(w.Config))
	for k, v := range w.Config {
		cfg[k] = cloneValue(v)
	}
	return State{WidgetKey(w.WidgetID): cfg}
}

// LayoutItem is one grid cell of a dashboard layout.
type LayoutItem struct {
	WidgetID string
	X        int
	Y        int
	W        int
	H        int
}

// LayoutUpdate replaces the grid of a layout.
type LayoutUpdate struct {
	LayoutID string
	Items    []LayoutItem
	Columns  int
}

func (l LayoutUpdate) OperationType() OperationType { return TypeLayoutUpdate }

func (l LayoutUpdate) Fields() State {
	items := make([]any, 0, len(l.Items))
	for _, it := range l.Items {
		items = append(items, map[string]any{
			"widgetId": it.WidgetID,
			"x":        it.X,
			"y":        it.Y,
			"w":        it.W,
			"h":        it.H,
		})
	}
	return State{LayoutKey(l.LayoutID): map[string]any{
		"columns": l.Columns,
		"items":   items,
	}}
}

// Patch is a free-form set of top-level values. Remote updates decoded off
// the wire arrive as Patch since their shape is decided by the server.
type Patch struct {
	Values State
	Type   OperationType
}

func (p Patch) OperationType() OperationType {
	if p.Type == "" {
		return TypeOptimisticUpdate
	}
	return p.Type
}

func (p Patch) Fields() State {
	return p.Values.Clone()
}
