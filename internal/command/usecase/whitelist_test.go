package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestWhitelist tests whitelist membership, normalization, and reload.
func TestWhitelist(t *testing.T) {
	t.Run("ContainsIsCaseInsensitive", func(t *testing.T) {
		w := NewWhitelist([]string{"deploy", " RESTART "})

		assert.True(t, w.Contains("DEPLOY"))
		assert.True(t, w.Contains("deploy"))
		assert.True(t, w.Contains("Restart"))
		assert.False(t, w.Contains("DESTROY"))
		assert.False(t, w.Contains(""))
	})

	t.Run("ReloadReplacesSet", func(t *testing.T) {
		w := NewWhitelist([]string{"DEPLOY"})

		w.Reload([]string{"BACKUP"})

		assert.False(t, w.Contains("DEPLOY"))
		assert.True(t, w.Contains("BACKUP"))
	})

	t.Run("CommandsSorted", func(t *testing.T) {
		w := NewWhitelist([]string{"restart", "backup", "deploy"})

		assert.Equal(t, []string{"BACKUP", "DEPLOY", "RESTART"}, w.Commands())
	})

	t.Run("BlankEntriesDropped", func(t *testing.T) {
		w := NewWhitelist([]string{"", "  ", "DEPLOY"})

		assert.Equal(t, []string{"DEPLOY"}, w.Commands())
	})
}
