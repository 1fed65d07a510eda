package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrarca/sas-analyzer/internal/types"
)

func names(files []types.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestFSProvider(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "jobs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.sas"), []byte("RUN;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.sas"), []byte("DATA A;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "jobs", "load.sas"), []byte("%LOAD;"), 0o644))

	p := NewFSProvider(root + "/")
	assert.Equal(t, root, p.GetBasePath())

	files, err := p.ListDir(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.sas", "b.sas", "jobs"}, names(files))
	assert.True(t, files[2].IsDir())
	assert.Equal(t, int64(7), files[0].Size)

	nested, err := p.ListDir("jobs")
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, filepath.Join("jobs", "load.sas"), nested[0].Path)

	data, err := p.ReadFile(nested[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "%LOAD;", string(data))

	ok, err := p.Exists("missing.sas")
	require.NoError(t, err)
	assert.False(t, ok)

	isDir, err := p.IsDir("jobs")
	require.NoError(t, err)
	assert.True(t, isDir)
	assert.Equal(t, filepath.Join(root, "jobs"), p.FullPath("jobs"))
}

func TestFakeProvider(t *testing.T) {
	p := NewFakeProvider()
	p.AddFile("etl/daily/load.sas", "DATA A; RUN;")
	p.AddFile("main.sas", "%INCLUDE 'etl/daily/load.sas';")

	root, err := p.ListDir(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"etl", "main.sas"}, names(root))

	daily, err := p.ListDir("etl/daily")
	require.NoError(t, err)
	assert.Equal(t, []string{"load.sas"}, names(daily))

	isDir, _ := p.IsDir("etl")
	assert.True(t, isDir)

	data, err := p.ReadFile("etl/daily/load.sas")
	require.NoError(t, err)
	assert.Equal(t, "DATA A; RUN;", string(data))

	_, err = p.ReadFile("nope.sas")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = p.ListDir("nope")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
