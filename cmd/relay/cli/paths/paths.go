// Package paths resolves the directories Relay reads and writes.
//
// Relay keeps its settings, session store, and logs under a .relay/ directory
// at the root of the enclosing git repository. Outside a repository it falls
// back to ~/.relay so one-off usage still works.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	git "github.com/go-git/go-git/v5"
)

// DataDirName is the directory Relay owns, relative to the repo root (or home).
const DataDirName = ".relay"

var (
	repoRootMu     sync.Mutex
	repoRootCached string
	repoRootOK     bool
)

// RepoRoot returns the root of the enclosing git repository.
// The result is cached for the lifetime of the process; working directory
// changes after the first call are not observed.
func RepoRoot() (string, error) {
	repoRootMu.Lock()
	defer repoRootMu.Unlock()

	if repoRootOK {
		return repoRootCached, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolving worktree: %w", err)
	}

	repoRootCached = wt.Filesystem.Root()
	repoRootOK = true
	return repoRootCached, nil
}

// RepoRootOr returns the git repository root, or the fallback when not inside
// a repository.
func RepoRootOr(fallback string) string {
	root, err := RepoRoot()
	if err != nil {
		return fallback
	}
	return root
}

// ClearRepoRootCache clears the cached repository root. For tests that change
// the working directory.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	defer repoRootMu.Unlock()
	repoRootCached = ""
	repoRootOK = false
}

// DataDir returns the Relay data directory: <repo-root>/.relay inside a
// repository, ~/.relay otherwise.
func DataDir() (string, error) {
	if root, err := RepoRoot(); err == nil {
		return filepath.Join(root, DataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// AbsPath resolves a path relative to the repository root. Absolute paths are
// returned unchanged. Outside a repository, paths resolve against the current
// working directory.
func AbsPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if root, err := RepoRoot(); err == nil {
		return filepath.Join(root, path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", path, err)
	}
	return abs, nil
}
