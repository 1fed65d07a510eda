package provider

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/types"
)

// FSProvider implements the Provider interface for local file systems
type FSProvider struct {
	rootPath string
}

// NewFSProvider creates a new file system provider rooted at rootPath
func NewFSProvider(rootPath string) *FSProvider {
	return &FSProvider{
		rootPath: strings.TrimSuffix(rootPath, "/"),
	}
}

// ListDir returns the contents of a directory sorted by name. Symlinks and
// other special files are reported with their target's type.
func (p *FSProvider) ListDir(path string) ([]types.File, error) {
	entries, err := os.ReadDir(p.getFullPath(path))
	if err != nil {
		return nil, err
	}

	files := make([]types.File, 0, len(entries))
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(p.getFullPath(path), entry.Name()))
		if err != nil {
			continue // dangling symlink or entry removed while listing
		}

		fileType := types.FileTypeFile
		if info.IsDir() {
			fileType = types.FileTypeDir
		} else if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, types.File{
			Name:     entry.Name(),
			Path:     filepath.Join(path, entry.Name()),
			Type:     fileType,
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadFile reads file content as bytes
func (p *FSProvider) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(p.getFullPath(path))
}

// Exists checks if a file or directory exists
func (p *FSProvider) Exists(path string) (bool, error) {
	_, err := os.Stat(p.getFullPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir checks if a path is a directory
func (p *FSProvider) IsDir(path string) (bool, error) {
	info, err := os.Stat(p.getFullPath(path))
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// FullPath resolves a provider path to a path on disk
func (p *FSProvider) FullPath(path string) string {
	return p.getFullPath(path)
}

func (p *FSProvider) getFullPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if path == "." || path == "" {
		return p.rootPath
	}
	return filepath.Join(p.rootPath, path)
}

// GetBasePath returns the base path for this provider
func (p *FSProvider) GetBasePath() string {
	return p.rootPath
}
