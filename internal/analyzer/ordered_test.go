package analyzer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	var m FactTable
	Append(&m, "zeta", 1)
	Append(&m, "alpha", 2)
	Append(&m, "zeta", 3)

	assert.Equal(t, []string{"zeta", "alpha"}, m.Keys())
	lines, ok := m.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, lines)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":[1,3],"alpha":[2]}`, string(data))

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(out), "zeta:"), strings.Index(string(out), "alpha:"))
}

func TestOrderedMapSetKeepsPosition(t *testing.T) {
	var m OrderedMap[string]
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("a", "3")

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, "3", v)

	var seen []string
	m.Each(func(k, v string) { seen = append(seen, k+"="+v) })
	assert.Equal(t, []string{"a=3", "b=2"}, seen)
}

func TestOrderedMapZeroValueEncodesEmpty(t *testing.T) {
	var m FactTable
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.False(t, m.Has("x"))
}
