package types

// Provider abstracts the tree of files a scan walks over
type Provider interface {
	// ListDir returns the entries of a directory, relative paths preserved
	ListDir(path string) ([]File, error)

	// ReadFile reads file content as bytes
	ReadFile(path string) ([]byte, error)

	// Exists checks if a file or directory exists
	Exists(path string) (bool, error)

	// IsDir checks if a path is a directory
	IsDir(path string) (bool, error)

	// GetBasePath returns the root every relative path is resolved against
	GetBasePath() string
}

// Entry types reported in File.Type
const (
	FileTypeFile = "file"
	FileTypeDir  = "dir"
)

// File represents a file or directory entry
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// IsDir reports whether the entry is a directory
func (f File) IsDir() bool {
	return f.Type == FileTypeDir
}
