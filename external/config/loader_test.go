package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "memory://")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.True(t, cfg.AllowCustomStates)
	assert.Equal(t, 300, cfg.PendingEditTimeoutSec)
	assert.Equal(t, 3, cfg.StoreMaxRetries)
	assert.Len(t, cfg.Vocabulary.States, 7)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_StatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.yaml")
	content := `states:
  - name: Code
    emoji: "💻"
    productive: true
  - name: nap
    passive: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("DATABASE_URL", "sqlite://tt.db")
	t.Setenv("STATES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "nap"}, cfg.Vocabulary.Names())
	assert.Equal(t, []string{"code"}, cfg.Vocabulary.ProductiveNames())
	assert.Equal(t, []string{"nap"}, cfg.Vocabulary.PassiveNames())
}

func TestParseVocabulary_Invalid(t *testing.T) {
	_, err := ParseVocabulary([]byte("states: [}"))
	assert.Error(t, err)

	_, err = ParseVocabulary([]byte("states:\n  - name: a\n  - name: a\n"))
	assert.Error(t, err)
}
