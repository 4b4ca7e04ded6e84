package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	t.Run("plain name passes through", func(t *testing.T) {
		name, err := SanitizeFilename("invoice March.pdf")
		require.NoError(t, err)
		require.Equal(t, "invoice March.pdf", name)
	})

	t.Run("separators become underscores", func(t *testing.T) {
		name, err := SanitizeFilename(`a/b\c:d`)
		require.NoError(t, err)
		require.Equal(t, "a_b_c_d", name)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := SanitizeFilename("   ")
		require.Error(t, err)
	})

	t.Run("null bytes are rejected", func(t *testing.T) {
		_, err := SanitizeFilename("file\x00.txt")
		require.Error(t, err)
	})

	t.Run("control characters are stripped", func(t *testing.T) {
		name, err := SanitizeFilename("re\tport.txt")
		require.NoError(t, err)
		require.Equal(t, "report.txt", name)
	})

	t.Run("dot and dotdot are rejected", func(t *testing.T) {
		_, err := SanitizeFilename(".")
		require.Error(t, err)
		_, err = SanitizeFilename("..")
		require.Error(t, err)
	})

	t.Run("windows reserved names are rejected", func(t *testing.T) {
		_, err := SanitizeFilename("CON")
		require.Error(t, err)
		_, err = SanitizeFilename("lpt1.txt")
		require.Error(t, err)
	})

	t.Run("long names are truncated by runes", func(t *testing.T) {
		name, err := SanitizeFilename(strings.Repeat("é", 300))
		require.NoError(t, err)
		require.Len(t, []rune(name), 255)
	})
}

func TestSanitizeClientName(t *testing.T) {
	t.Parallel()

	t.Run("allowed characters survive", func(t *testing.T) {
		name, err := SanitizeClientName("O'Brien & Sons Ltd.")
		require.NoError(t, err)
		require.Equal(t, "O'Brien & Sons Ltd.", name)
	})

	t.Run("disallowed characters are removed", func(t *testing.T) {
		name, err := SanitizeClientName("Acme/Ltd<script>")
		require.NoError(t, err)
		require.Equal(t, "AcmeLtdscript", name)
	})

	t.Run("whitespace is collapsed", func(t *testing.T) {
		name, err := SanitizeClientName("  Jane   Doe  ")
		require.NoError(t, err)
		require.Equal(t, "Jane Doe", name)
	})

	t.Run("empty after cleaning is rejected", func(t *testing.T) {
		_, err := SanitizeClientName("///")
		require.Error(t, err)
	})

	t.Run("length is capped", func(t *testing.T) {
		name, err := SanitizeClientName(strings.Repeat("a", 120))
		require.NoError(t, err)
		require.Len(t, []rune(name), 80)
	})
}
