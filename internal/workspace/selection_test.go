package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection(t *testing.T) {
	t.Run("empty by default", func(t *testing.T) {
		s := NewSelection(t.TempDir())
		assert.Empty(t, s.Current())
	})

	t.Run("select persists across instances", func(t *testing.T) {
		dir := t.TempDir()
		s := NewSelection(dir)
		require.NoError(t, s.Select("ws-42"))
		assert.Equal(t, "ws-42", s.Current())

		reopened := NewSelection(dir)
		assert.Equal(t, "ws-42", reopened.Current())
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		s := NewSelection(t.TempDir())
		require.NoError(t, s.Select("ws-1"))
		require.NoError(t, s.Clear())
		require.NoError(t, s.Clear())
		assert.Empty(t, s.Current())
	})

	t.Run("subscribers observe changes until cancelled", func(t *testing.T) {
		s := NewSelection(t.TempDir())

		var got []string
		cancel := s.Subscribe(func(id string) { got = append(got, id) })

		require.NoError(t, s.Select("ws-1"))
		require.NoError(t, s.Clear())
		cancel()
		require.NoError(t, s.Select("ws-2"))

		assert.Equal(t, []string{"ws-1", ""}, got)
	})

	t.Run("selecting empty string clears", func(t *testing.T) {
		s := NewSelection(t.TempDir())
		require.NoError(t, s.Select("ws-1"))
		require.NoError(t, s.Select(""))
		assert.Empty(t, s.Current())
	})
}
