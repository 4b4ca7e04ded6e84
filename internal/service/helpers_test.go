package service

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"clientvault/internal/storage"
)

func newTestWorkspace(t *testing.T, id string) *storage.Workspace {
	t.Helper()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, id), 0o755))

	ws, err := storage.OpenWorkspace(base, id)
	require.NoError(t, err)
	return ws
}

// snapshotTree returns every path under the workspace root, relative and
// slash-separated, sorted.
func snapshotTree(t *testing.T, ws *storage.Workspace) []string {
	t.Helper()

	var paths []string
	root := ws.RootAbs()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)

	sort.Strings(paths)
	return paths
}

func requireDir(t *testing.T, ws *storage.Workspace, relPath string) {
	t.Helper()

	info, err := ws.Stat(relPath)
	require.NoError(t, err, "expected directory %q", relPath)
	require.True(t, info.IsDir(), "expected %q to be a directory", relPath)
}

func requireAbsent(t *testing.T, ws *storage.Workspace, relPath string) {
	t.Helper()

	_, err := ws.Stat(relPath)
	require.True(t, os.IsNotExist(err), "expected %q to be absent", relPath)
}
