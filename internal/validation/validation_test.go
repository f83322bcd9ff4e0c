package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		errMsg  string
		wantErr bool
	}{
		{name: "valid - lowercase", subject: "alice"},
		{name: "valid - with underscore and digits", subject: "alice_42"},
		{name: "valid - max length", subject: strings.Repeat("a", 32)},
		{name: "invalid - empty", subject: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "invalid - too short", subject: "ab", wantErr: true, errMsg: "at least 3"},
		{name: "invalid - too long", subject: strings.Repeat("a", 33), wantErr: true, errMsg: "must not exceed 32"},
		{name: "invalid - dash", subject: "alice-smith", wantErr: true, errMsg: "can only contain"},
		{name: "invalid - cyrillic", subject: "алиса", wantErr: true, errMsg: "can only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubject(tt.subject)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "main"},
		{name: "dash and underscore", id: "team-board_2"},
		{name: "single char", id: "a"},
		{name: "max length", id: strings.Repeat("d", 64)},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("d", 65), wantErr: true},
		{name: "leading dash", id: "-main", wantErr: true},
		{name: "slash", id: "a/b", wantErr: true},
		{name: "dot", id: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		errMsg  string
		wantErr bool
	}{
		{name: "plain", key: "title"},
		{name: "widget key", key: "widget:w-1"},
		{name: "unicode", key: "заголовок"},
		{name: "empty", key: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "dot", key: "a.b", wantErr: true, errMsg: "must not contain '.'"},
		{name: "spaces", key: " title", wantErr: true, errMsg: "spaces"},
		{name: "too long", key: strings.Repeat("k", 129), wantErr: true, errMsg: "must not exceed"},
		{name: "invalid utf8", key: string([]byte{0xff, 0xfe}), wantErr: true, errMsg: "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStateKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, ValidateFields(map[string]any{"a": 1, "b": nil}))

	err := ValidateFields(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields")

	err = ValidateFields(map[string]any{"ok": 1, "bad.key": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.key")

	many := make(map[string]any, MaxFieldsPerUpdate+1)
	for i := 0; i <= MaxFieldsPerUpdate; i++ {
		many[fmt.Sprintf("k%d", i)] = i
	}
	assert.Error(t, ValidateFields(many))
}
