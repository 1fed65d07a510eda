package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"valid text", "text", false},
		{"valid json", "json", false},
		{"valid yaml", "yaml", false},
		{"valid uppercase", "JSON", false},
		{"valid mixed case", "Yaml", false},
		{"invalid format", "xml", true},
		{"empty format", "", true},
		{"csv not supported", "csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{"text", "text"},
		{"JSON", "json"},
		{" Yaml ", "yaml"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFormat(tt.format))
		})
	}
}

func TestGetValidFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "text", "yaml"}, GetValidFormats())
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "", OutputPath(""))
	assert.Equal(t, "", OutputPath("-"))
	assert.Equal(t, "out.json", OutputPath("out.json"))
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, ColorEnabled(&buf), "buffers are never terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(&buf))
}
