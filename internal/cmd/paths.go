package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/source"
)

// Directories too broad to hold a project; no .sas-analyzer.yml is read there
var systemRoots = map[string]bool{
	"/":      true,
	"/home":  true,
	"/Users": true,
	"/tmp":   true,
	"/var":   true,
	"/opt":   true,
	"/usr":   true,
}

// computeCommonParent returns the deepest directory containing all paths
func computeCommonParent(paths []string) string {
	if len(paths) == 0 {
		return "."
	}

	common := strings.Split(filepath.Clean(paths[0]), string(filepath.Separator))
	for _, p := range paths[1:] {
		parts := strings.Split(filepath.Clean(p), string(filepath.Separator))
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}

	if len(common) == 0 || (len(common) == 1 && common[0] == "") {
		return string(filepath.Separator)
	}
	return strings.Join(common, string(filepath.Separator))
}

func isSystemRoot(path string) bool {
	return systemRoots[filepath.Clean(path)]
}

// projectRoot returns the directory whose .sas-analyzer.yml applies to an
// analysis of paths, or "" when there is none. File arguments count through
// their directory, URLs are ignored.
func projectRoot(paths []string) string {
	var dirs []string
	for _, p := range paths {
		if source.IsRemote(p) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		dirs = append(dirs, abs)
	}
	if len(dirs) == 0 {
		return ""
	}

	root := computeCommonParent(dirs)
	if isSystemRoot(root) {
		return ""
	}
	return root
}
