package metadata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	m := New([]string{"."}, "1.0")

	abs, _ := filepath.Abs(".")
	assert.Equal(t, []string{abs}, m.Paths)
	assert.Equal(t, FormatFull, m.Format)
	assert.Equal(t, "1.0", m.SpecVersion)
	_, err := time.Parse(time.RFC3339, m.Timestamp)
	assert.NoError(t, err)
}

func TestNewKeepsURLs(t *testing.T) {
	m := New([]string{"s3://bucket/jobs/load.sas"}, "1.0")
	assert.Equal(t, []string{"s3://bucket/jobs/load.sas"}, m.Paths)
}

func TestSetters(t *testing.T) {
	m := New(nil, "1.0")
	m.SetDuration(1500 * time.Millisecond)
	m.SetCounts(3, 1, 120)
	m.SetFormat(FormatAggregated)
	m.SetProperties(nil)
	assert.Nil(t, m.Properties)
	m.SetProperties(map[string]interface{}{"team": "risk"})

	assert.Equal(t, int64(1500), m.DurationMs)
	assert.Equal(t, 3, m.FileCount)
	assert.Equal(t, 1, m.FailedCount)
	assert.Equal(t, 120, m.LineCount)
	assert.Equal(t, FormatAggregated, m.Format)
	assert.Equal(t, "risk", m.Properties["team"])
}
