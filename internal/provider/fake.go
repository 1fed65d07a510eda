package provider

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/petrarca/sas-analyzer/internal/types"
)

// FakeProvider is an in-memory Provider for tests. Paths are slash separated
// and relative to "."; parent directories are created on demand.
type FakeProvider struct {
	dirs    map[string]map[string]types.File
	content map[string][]byte
}

// NewFakeProvider creates an empty fake provider with a root directory
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		dirs:    map[string]map[string]types.File{".": {}},
		content: make(map[string][]byte),
	}
}

// AddFile adds a file and any missing parent directories
func (p *FakeProvider) AddFile(name, content string) {
	name = path.Clean(name)
	dir := path.Dir(name)
	p.AddDir(dir)

	p.dirs[dir][path.Base(name)] = types.File{
		Name: path.Base(name),
		Path: name,
		Type: types.FileTypeFile,
		Size: int64(len(content)),
	}
	p.content[name] = []byte(content)
}

// AddDir adds a directory and its parents
func (p *FakeProvider) AddDir(name string) {
	name = path.Clean(name)
	if _, ok := p.dirs[name]; ok {
		return
	}
	p.dirs[name] = map[string]types.File{}
	if name == "." {
		return
	}

	parent := path.Dir(name)
	p.AddDir(parent)
	p.dirs[parent][path.Base(name)] = types.File{
		Name: path.Base(name),
		Path: name,
		Type: types.FileTypeDir,
	}
}

// ListDir returns the contents of a directory sorted by name
func (p *FakeProvider) ListDir(name string) ([]types.File, error) {
	entries, ok := p.dirs[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}

	files := make([]types.File, 0, len(entries))
	for _, f := range entries {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadFile returns the content of a file
func (p *FakeProvider) ReadFile(name string) ([]byte, error) {
	data, ok := p.content[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return data, nil
}

// Exists checks if a file or directory exists
func (p *FakeProvider) Exists(name string) (bool, error) {
	name = path.Clean(name)
	_, isFile := p.content[name]
	_, isDir := p.dirs[name]
	return isFile || isDir, nil
}

// IsDir checks if a path is a directory
func (p *FakeProvider) IsDir(name string) (bool, error) {
	_, ok := p.dirs[path.Clean(name)]
	return ok, nil
}

// GetBasePath returns the fake root
func (p *FakeProvider) GetBasePath() string {
	return "."
}
