package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePath(t *testing.T) {
	t.Run("passes memory through", func(t *testing.T) {
		got, err := DatabasePath(":memory:")
		require.NoError(t, err)
		assert.Equal(t, ":memory:", got)
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := DatabasePath("  ")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("rejects DSN and shell characters", func(t *testing.T) {
		for _, c := range forbidden {
			_, err := DatabasePath("/tmp/aira" + c + "db")
			assert.ErrorIs(t, err, ErrInvalidPath, "character %q", c)
		}
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		got, err := DatabasePath("aira-devapi.db")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("cleans traversal", func(t *testing.T) {
		dir := t.TempDir()
		got, err := DatabasePath(filepath.Join(dir, "sub", "..", "aira.db"))
		require.NoError(t, err)
		assert.NotContains(t, got, "..")
		assert.Equal(t, "aira.db", filepath.Base(got))
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "target.db")
		require.NoError(t, os.WriteFile(target, nil, 0o600))
		link := filepath.Join(dir, "link.db")
		require.NoError(t, os.Symlink(target, link))

		got, err := DatabasePath(link)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(target)
		assert.Equal(t, want, got)
	})
}
