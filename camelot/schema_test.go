package camelot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"rows of strings", `[{"0":"a","1":"b"},{"0":"c"}]`, false},
		{"no rows", `[]`, false},
		{"object instead of rows", `{"0":"a"}`, true},
		{"numeric cell", `[{"0":1}]`, true},
		{"named column", `[{"name":"a"}]`, true},
		{"not json", `a,b`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTable(json.RawMessage(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTable)
				return
			}
			assert.NoError(t, err)
		})
	}
}
