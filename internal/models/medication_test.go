// internal/models/medication_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTimeJSON(t *testing.T) {
	data, err := json.Marshal(ClockTime{Hour: 8, Minute: 30})
	require.NoError(t, err)
	assert.Equal(t, `"08:30"`, string(data))

	var ct ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"21:05"`), &ct))
	assert.Equal(t, ClockTime{Hour: 21, Minute: 5}, ct)

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &ct))
	assert.Error(t, json.Unmarshal([]byte(`"late"`), &ct))
}

func TestFormIcon(t *testing.T) {
	tests := []struct {
		form     string
		expected string
	}{
		{"Capsule", "capsule"},
		{"Tablet", "pill"},
		{"Liquid", "drop"},
		{"Inhaler", "inhaler"},
		{"Injection", "syringe"},
		{"Cream", "cream"},
		{"Not specified", "pill"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormIcon(tt.form), "form %q", tt.form)
	}
}
