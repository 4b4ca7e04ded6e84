package taxyear

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreDefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "taxyears.txt"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-25", "2025-26"}, store.Years())
}

func TestStoreReadsExistingFile(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "taxyears.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("2022-23\n\n2023-24\n"), 0o644))

	store, err := NewStore(filePath)
	require.NoError(t, err)
	require.Equal(t, []string{"2022-23", "2023-24"}, store.Years())
}

func TestStoreAdd(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "taxyears.txt")
	store, err := NewStore(filePath)
	require.NoError(t, err)

	t.Run("appends and persists", func(t *testing.T) {
		years, added, addErr := store.Add("2026-27")
		require.NoError(t, addErr)
		require.True(t, added)
		require.Equal(t, []string{"2024-25", "2025-26", "2026-27"}, years)

		content, readErr := os.ReadFile(filePath)
		require.NoError(t, readErr)
		require.Equal(t, "2024-25\n2025-26\n2026-27\n", string(content))
	})

	t.Run("duplicate is a no-op", func(t *testing.T) {
		years, added, addErr := store.Add("2026-27")
		require.NoError(t, addErr)
		require.False(t, added)
		require.Equal(t, []string{"2024-25", "2025-26", "2026-27"}, years)
	})

	t.Run("empty label is rejected", func(t *testing.T) {
		_, _, addErr := store.Add("  ")
		require.Error(t, addErr)
	})

	t.Run("another instance sees persisted state", func(t *testing.T) {
		reopened, openErr := NewStore(filePath)
		require.NoError(t, openErr)
		require.Equal(t, []string{"2024-25", "2025-26", "2026-27"}, reopened.Years())
	})
}
