package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves into a fresh temp directory and resets the repo root cache
// so the move is observed.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	ClearRepoRootCache()
	t.Cleanup(ClearRepoRootCache)
	// macOS returns /var symlinks from TempDir.
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return resolved
}

func TestRepoRootInsideRepository(t *testing.T) {
	dir := chdirTemp(t)
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	// Also check detection from a nested directory.
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)
	ClearRepoRootCache()

	root, err := RepoRoot()
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)
}

func TestRepoRootOutsideRepositoryErrors(t *testing.T) {
	chdirTemp(t)

	_, err := RepoRoot()
	assert.Error(t, err)
}

func TestRepoRootOrFallsBack(t *testing.T) {
	chdirTemp(t)

	assert.Equal(t, "/tmp/fallback", RepoRootOr("/tmp/fallback"))
}

func TestDataDirOutsideRepositoryUsesHome(t *testing.T) {
	chdirTemp(t)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DataDirName), dir)
}

func TestDataDirInsideRepository(t *testing.T) {
	dir := chdirTemp(t)
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	ClearRepoRootCache()

	got, err := DataDir()
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(filepath.Dir(got))
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)
	assert.Equal(t, DataDirName, filepath.Base(got))
}

func TestAbsPath(t *testing.T) {
	dir := chdirTemp(t)
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	ClearRepoRootCache()

	abs, err := AbsPath("/already/absolute")
	require.NoError(t, err)
	assert.Equal(t, "/already/absolute", abs)

	rel, err := AbsPath("sessions/live")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
	assert.True(t, strings.HasSuffix(rel, filepath.Join("sessions", "live")))
}
