package git

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// GitInfo contains git repository information recorded with a run
type GitInfo struct {
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	IsDirty   bool   `json:"is_dirty" yaml:"is_dirty"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// GetGitInfo retrieves git repository information for the given path.
// Returns nil when the path is not inside a git repository.
func GetGitInfo(path string) *GitInfo {
	info, _ := GetGitInfoWithRoot(path)
	return info
}

// FindRepoRoot returns the worktree root containing path, or "" when the path
// is not inside a git repository
func FindRepoRoot(path string) string {
	repo, err := openRepo(path)
	if err != nil {
		return ""
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return worktree.Filesystem.Root()
}

// GetGitInfoWithRoot retrieves git info and returns the repository root path
func GetGitInfoWithRoot(path string) (*GitInfo, string) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, ""
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, ""
	}
	repoRoot := worktree.Filesystem.Root()

	gitInfo := &GitInfo{}

	head, err := repo.Head()
	if err == nil {
		gitInfo.Commit = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			gitInfo.Branch = head.Name().Short()
		} else {
			gitInfo.Branch = "HEAD" // detached
		}
	}

	// Status walks the whole worktree
	status, err := worktree.Status()
	if err == nil {
		gitInfo.IsDirty = !status.IsClean()
	}

	remoteConfig, err := repo.Config()
	if err == nil {
		if origin := remoteConfig.Remotes["origin"]; origin != nil && len(origin.URLs) > 0 {
			gitInfo.RemoteURL = sanitizeRemoteURL(origin.URLs[0])
		}
	}

	return gitInfo, repoRoot
}

func openRepo(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
}

// ProjectID derives a stable identifier for the analyzed paths. Inside a
// repository with an origin remote the ID is based on the remote and the paths
// relative to the repository root, so clones in different locations agree.
// Otherwise the absolute paths are used.
func ProjectID(paths []string) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, projectKey(p))
	}
	sort.Strings(parts)
	return hashID(strings.Join(parts, ":"))
}

func projectKey(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}

	gitInfo, repoRoot := GetGitInfoWithRoot(absPath)
	if gitInfo == nil || gitInfo.RemoteURL == "" {
		return absPath
	}

	key := normalizeRemoteURL(gitInfo.RemoteURL)
	if rel, err := filepath.Rel(repoRoot, absPath); err == nil && rel != "." {
		key += ":" + filepath.ToSlash(rel)
	}
	return key
}

func hashID(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])[:20]
}

// sanitizeRemoteURL strips credentials from http(s) remotes
func sanitizeRemoteURL(remote string) string {
	if !strings.HasPrefix(remote, "http://") && !strings.HasPrefix(remote, "https://") {
		return remote
	}
	u, err := url.Parse(remote)
	if err != nil || u.User == nil {
		return remote
	}
	u.User = nil
	return u.String()
}

// normalizeRemoteURL converts various git URL formats to a consistent format
func normalizeRemoteURL(remote string) string {
	remote = strings.TrimPrefix(remote, "https://")
	remote = strings.TrimPrefix(remote, "http://")
	remote = strings.TrimPrefix(remote, "git@")
	remote = strings.TrimPrefix(remote, "git://")
	remote = strings.TrimSuffix(remote, "/")
	remote = strings.TrimSuffix(remote, ".git")
	return remote
}
