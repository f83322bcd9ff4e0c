package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophdash/internal/realtime"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    realtime.State
		wantErr bool
	}{
		{
			name: "json values",
			args: []string{"count=3", "on=true", `tags=["a","b"]`, `cfg={"x":1}`, "none=null"},
			want: realtime.State{
				"count": float64(3),
				"on":    true,
				"tags":  []any{"a", "b"},
				"cfg":   map[string]any{"x": float64(1)},
				"none":  nil,
			},
		},
		{
			name: "plain strings",
			args: []string{"theme=dark", "title=CPU load", "empty="},
			want: realtime.State{"theme": "dark", "title": "CPU load", "empty": ""},
		},
		{
			name: "value with equals sign",
			args: []string{"query=a=b"},
			want: realtime.State{"query": "a=b"},
		},
		{name: "missing equals", args: []string{"theme"}, wantErr: true},
		{name: "dotted key", args: []string{"a.b=1"}, wantErr: true},
		{name: "empty key", args: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	printFields(&buf, "> ", realtime.State{"b": "x", "a": []any{1, 2}})
	assert.Equal(t, "> a = [1,2]\n> b = \"x\"\n", buf.String())
}
